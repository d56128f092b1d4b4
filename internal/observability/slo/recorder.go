package slo

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder accumulates request outcomes between two Flush calls so the SLO
// gauges reflect a rolling window rather than a cumulative lifetime ratio.
type Recorder struct {
	total  atomic.Int64
	errors atomic.Int64

	mu         sync.Mutex
	durations  []float64
	maxSamples int
}

// NewRecorder returns a Recorder that keeps up to maxSamples latency
// observations per window for percentile estimation.
func NewRecorder(maxSamples int) *Recorder {
	return &Recorder{maxSamples: maxSamples}
}

// Observe records one completed request: its duration and whether it was a
// server error (5xx).
func (r *Recorder) Observe(duration time.Duration, serverError bool) {
	r.total.Add(1)
	if serverError {
		r.errors.Add(1)
	}

	seconds := duration.Seconds()
	r.mu.Lock()
	if len(r.durations) < r.maxSamples {
		r.durations = append(r.durations, seconds)
	}
	r.mu.Unlock()
}

// Flush computes availability, error rate, p95 and p99 latency from the
// samples accumulated since the last Flush, pushes them into the SLO
// gauges, and resets the window.
func (r *Recorder) Flush() {
	total := r.total.Swap(0)
	errors := r.errors.Swap(0)

	r.mu.Lock()
	durations := r.durations
	r.durations = nil
	r.mu.Unlock()

	if total == 0 {
		return
	}

	errorRate := float64(errors) / float64(total)
	UpdateErrorRate(errorRate)
	UpdateAvailability(1 - errorRate)

	if len(durations) == 0 {
		return
	}
	sort.Float64s(durations)
	UpdateLatencyP95(percentile(durations, 0.95))
	UpdateLatencyP99(percentile(durations, 0.99))
}

// Run flushes the recorder on the given interval until ctx stops it.
func (r *Recorder) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Flush()
		case <-stop:
			return
		}
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
