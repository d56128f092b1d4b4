package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Unlike the teacher's standalone package, which built its own
// prometheus.Registry and left wiring it to an HTTP endpoint to the
// caller, these collectors register on the process-wide default
// registerer via promauto, the same pattern internal/observability/metrics
// uses, so rate limit activity shows up on the server's existing /metrics
// endpoint without a second scrape target.
var (
	rlRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total rate limit checks by limiter type, status, and endpoint",
		},
		[]string{"limiter_type", "status", "endpoint"},
	)

	rlCheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limit_check_duration_seconds",
			Help:    "Duration of rate limit check operations",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"limiter_type"},
	)

	rlActiveKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rate_limit_active_keys",
			Help: "Current number of tracked rate limit keys by limiter type",
		},
		[]string{"limiter_type"},
	)

	rlCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rate_limit_circuit_state",
			Help: "Rate limit circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"limiter_type"},
	)

	rlDegradationLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rate_limit_degradation_level",
			Help: "Current rate limit degradation level (0=normal, 1=relaxed, 2=minimal, 3=disabled)",
		},
		[]string{"limiter_type"},
	)

	rlEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_evictions_total",
			Help: "Total LRU evictions from the rate limit store by limiter type",
		},
		[]string{"limiter_type"},
	)
)

// PrometheusMetrics implements RateLimitMetrics against the package-level
// collectors above.
type PrometheusMetrics struct{}

func NewPrometheusMetrics() *PrometheusMetrics { return &PrometheusMetrics{} }

func (m *PrometheusMetrics) RecordRequest(limiterType, endpoint string) {
	rlRequestsTotal.WithLabelValues(limiterType, "allowed", endpoint).Inc()
}

func (m *PrometheusMetrics) RecordDenied(limiterType, endpoint string) {
	rlRequestsTotal.WithLabelValues(limiterType, "denied", endpoint).Inc()
}

func (m *PrometheusMetrics) RecordAllowed(limiterType, endpoint string) {
	m.RecordRequest(limiterType, endpoint)
}

func (m *PrometheusMetrics) RecordCheckDuration(limiterType string, duration time.Duration) {
	rlCheckDuration.WithLabelValues(limiterType).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) SetActiveKeys(limiterType string, count int) {
	rlActiveKeys.WithLabelValues(limiterType).Set(float64(count))
}

func (m *PrometheusMetrics) RecordCircuitState(limiterType, state string) {
	var value float64
	switch state {
	case "open":
		value = 1
	case "half-open":
		value = 2
	}
	rlCircuitState.WithLabelValues(limiterType).Set(value)
}

func (m *PrometheusMetrics) RecordDegradationLevel(limiterType string, level int) {
	rlDegradationLevel.WithLabelValues(limiterType).Set(float64(level))
}

func (m *PrometheusMetrics) RecordEviction(limiterType string, count int) {
	rlEvictionsTotal.WithLabelValues(limiterType).Add(float64(count))
}
