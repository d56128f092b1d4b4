package ratelimit

import "time"

// NoOpMetrics discards everything. Useful in tests that exercise the
// algorithm or store without pulling in Prometheus collectors.
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordRequest(limiterType, endpoint string)               {}
func (m *NoOpMetrics) RecordDenied(limiterType, endpoint string)                {}
func (m *NoOpMetrics) RecordAllowed(limiterType, endpoint string)               {}
func (m *NoOpMetrics) RecordCheckDuration(limiterType string, d time.Duration)  {}
func (m *NoOpMetrics) SetActiveKeys(limiterType string, count int)              {}
func (m *NoOpMetrics) RecordCircuitState(limiterType, state string)             {}
func (m *NoOpMetrics) RecordDegradationLevel(limiterType string, level int)     {}
func (m *NoOpMetrics) RecordEviction(limiterType string, count int)             {}
