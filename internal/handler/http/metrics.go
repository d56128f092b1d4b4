package http

import (
	"net/http"
	"strconv"
	"time"

	"flowrunner/internal/handler/http/pathutil"
	"flowrunner/internal/observability/metrics"
	"flowrunner/internal/observability/slo"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// sloRecorder accumulates request outcomes for periodic SLO gauge updates.
// It is process-wide: SLO targets are measured against the whole server,
// not per-route.
var sloRecorder = slo.NewRecorder(2048)

// SLORecorder exposes the shared recorder so main can start its flush loop.
func SLORecorder() *slo.Recorder { return sloRecorder }

// metricsResponseWriter wraps http.ResponseWriter to record status code and
// response size for MetricsMiddleware.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// MetricsMiddleware records HTTP request metrics into the shared
// observability/metrics registry, normalizing the path first so a flow
// name or subscription UUID never becomes its own label value.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		normalizedPath := pathutil.NormalizePath(r.URL.Path)

		rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		status := strconv.Itoa(rw.statusCode)
		reqSize := int(r.ContentLength)
		if reqSize < 0 {
			reqSize = 0
		}
		metrics.RecordHTTPRequest(r.Method, normalizedPath, status, duration, reqSize, rw.size)
		sloRecorder.Observe(duration, rw.statusCode >= 500)
	})
}

// MetricsHandler returns an HTTP handler serving the Prometheus metrics
// endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
