package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SlidingWindowAlgorithm counts request timestamps within a trailing window,
// avoiding the boundary burst a fixed window allows. It prefers an
// AtomicRateLimitStore's CheckAndAddRequest to close the TOCTOU window a
// separate count-then-add pair would leave open under concurrent requests
// for the same key, and falls back to count-then-add for stores that don't
// support it.
//
// It also guards against the clock moving backwards (NTP step, manual
// change): it tracks the last timestamp handed out per key and refuses to
// go earlier than that, so a clock step can't be used to bypass the limit.
type SlidingWindowAlgorithm struct {
	clock Clock

	// limiterType labels this algorithm's decisions and metrics (e.g. "ip").
	// Unlike the single hardcoded label the teacher package used, every
	// decision this algorithm returns carries the caller's actual type.
	limiterType string

	mu             sync.RWMutex
	lastTimestamps map[string]time.Time

	windowDuration time.Duration
}

// NewSlidingWindowAlgorithm creates a sliding window algorithm labeling its
// decisions with limiterType. clock defaults to SystemClock when nil.
func NewSlidingWindowAlgorithm(clock Clock, limiterType string) *SlidingWindowAlgorithm {
	if clock == nil {
		clock = &SystemClock{}
	}
	return &SlidingWindowAlgorithm{
		clock:          clock,
		limiterType:    limiterType,
		lastTimestamps: make(map[string]time.Time),
	}
}

func (a *SlidingWindowAlgorithm) IsAllowed(
	ctx context.Context,
	key string,
	store RateLimitStore,
	limit int,
	window time.Duration,
) (*RateLimitDecision, error) {
	a.windowDuration = window

	now := a.getValidTimestamp(key)
	cutoff := now.Add(-window)
	resetAt := now.Add(window)

	if atomicStore, ok := store.(AtomicRateLimitStore); ok {
		return a.isAllowedAtomic(ctx, key, atomicStore, limit, cutoff, now, resetAt)
	}
	return a.isAllowedNonAtomic(ctx, key, store, limit, cutoff, now, resetAt)
}

func (a *SlidingWindowAlgorithm) isAllowedAtomic(
	ctx context.Context,
	key string,
	store AtomicRateLimitStore,
	limit int,
	cutoff, now, resetAt time.Time,
) (*RateLimitDecision, error) {
	allowed, count, err := store.CheckAndAddRequest(ctx, key, now, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("check and add request: %w", err)
	}
	if allowed {
		return NewAllowedDecision(key, a.limiterType, limit, limit-count, resetAt), nil
	}
	decision := NewDeniedDecision(key, a.limiterType, limit, resetAt)
	decision.RetryAfter = resetAt.Sub(now)
	return decision, nil
}

// isAllowedNonAtomic falls back to a count-then-add pair for stores that
// don't implement AtomicRateLimitStore. It has a TOCTOU window under
// concurrent requests for the same key; InMemoryRateLimitStore avoids it.
func (a *SlidingWindowAlgorithm) isAllowedNonAtomic(
	ctx context.Context,
	key string,
	store RateLimitStore,
	limit int,
	cutoff, now, resetAt time.Time,
) (*RateLimitDecision, error) {
	count, err := store.GetRequestCount(ctx, key, cutoff)
	if err != nil {
		return nil, fmt.Errorf("get request count: %w", err)
	}
	if count < limit {
		if err := store.AddRequest(ctx, key, now); err != nil {
			return nil, fmt.Errorf("add request: %w", err)
		}
		return NewAllowedDecision(key, a.limiterType, limit, limit-count-1, resetAt), nil
	}
	decision := NewDeniedDecision(key, a.limiterType, limit, resetAt)
	decision.RetryAfter = resetAt.Sub(now)
	return decision, nil
}

// GetWindowDuration returns the window passed to the most recent IsAllowed call.
func (a *SlidingWindowAlgorithm) GetWindowDuration() time.Duration {
	return a.windowDuration
}

// getValidTimestamp returns clock.Now(), or the last timestamp handed out
// for key if the clock has gone backwards since.
func (a *SlidingWindowAlgorithm) getValidTimestamp(key string) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if lastSeen, exists := a.lastTimestamps[key]; exists && now.Before(lastSeen) {
		slog.Warn("rate limiter: clock skew detected, using last valid timestamp",
			slog.String("key", key), slog.Time("now", now), slog.Time("last_seen", lastSeen),
			slog.Duration("skew", lastSeen.Sub(now)))
		return lastSeen
	}
	a.lastTimestamps[key] = now
	return now
}

// CleanupExpiredTimestamps drops clock-skew tracking entries older than
// maxAge, returning the number removed.
func (a *SlidingWindowAlgorithm) CleanupExpiredTimestamps(maxAge time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := a.clock.Now().Add(-maxAge)
	removed := 0
	for key, timestamp := range a.lastTimestamps {
		if timestamp.Before(cutoff) {
			delete(a.lastTimestamps, key)
			removed++
		}
	}
	return removed
}

// GetTrackedKeysCount returns the number of keys tracked for clock skew protection.
func (a *SlidingWindowAlgorithm) GetTrackedKeysCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.lastTimestamps)
}
