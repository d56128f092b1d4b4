// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Flow engine metrics (runs, cache hits, retrieve fetches, WebSub pushes)
//   - Database query metrics
//   - Application performance metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "flowrunner/internal/observability/metrics"
//
//	func runFlow(name string) {
//	    start := time.Now()
//	    err := flow.Run(ctx)
//	    metrics.RecordFlowRun(name, err == nil, time.Since(start))
//	}
package metrics
