// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Business metrics track flow-engine-specific operations: runs, cache
// behavior, content retrieval, and WebSub push verification.
var (
	// FlowsTotal tracks the number of registered flows.
	FlowsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flows_total",
			Help: "Total number of registered flows",
		},
	)

	// FlowRunsTotal counts flow runs by name and result.
	FlowRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_runs_total",
			Help: "Total number of flow runs",
		},
		[]string{"flow", "result"},
	)

	// FlowRunDuration measures time to fully run a flow, from the source
	// node through the terminal slot.
	FlowRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flow_run_duration_seconds",
			Help:    "Time taken to run a flow end to end",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"flow"},
	)

	// CacheResultsTotal counts Cache node outcomes by flow and result
	// (hit, miss, singleflight_shared).
	CacheResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Total number of Cache node lookups by result",
		},
		[]string{"flow", "result"},
	)

	// RetrieveFetchAttemptsTotal counts Retrieve node per-entry fetches by result.
	RetrieveFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieve_fetch_attempts_total",
			Help: "Total number of Retrieve node content fetch attempts",
		},
		[]string{"result"}, // result: success, failure
	)

	// RetrieveFetchDuration measures time to fetch and extract one entry's content.
	RetrieveFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrieve_fetch_duration_seconds",
			Help:    "Time taken to fetch and extract one entry's content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// WebSubVerificationsTotal counts WebSub subscribe/unsubscribe challenge
	// verifications by outcome.
	WebSubVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websub_verifications_total",
			Help: "Total number of WebSub challenge verifications",
		},
		[]string{"mode", "result"},
	)

	// WebSubPushesTotal counts inbound content distribution pushes by
	// signature verification outcome.
	WebSubPushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websub_pushes_total",
			Help: "Total number of inbound WebSub content distribution pushes",
		},
		[]string{"result"}, // result: accepted, bad_signature, unknown_subscription
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
