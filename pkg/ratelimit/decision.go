package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitDecision is the verdict and metadata produced by a rate limit
// check, shaped so an HTTP handler can turn it directly into response
// headers (Retry-After, X-RateLimit-*).
type RateLimitDecision struct {
	Key         string
	Allowed     bool
	Limit       int
	Remaining   int
	ResetAt     time.Time
	RetryAfter  time.Duration
	LimiterType string
}

func (d *RateLimitDecision) String() string {
	if d.Allowed {
		return fmt.Sprintf("RateLimitDecision{Allowed: true, Key: %s, Type: %s, Remaining: %d/%d, ResetAt: %s}",
			d.Key, d.LimiterType, d.Remaining, d.Limit, d.ResetAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("RateLimitDecision{Allowed: false, Key: %s, Type: %s, Limit: %d, RetryAfter: %s, ResetAt: %s}",
		d.Key, d.LimiterType, d.Limit, d.RetryAfter, d.ResetAt.Format(time.RFC3339))
}

func (d *RateLimitDecision) IsAllowed() bool   { return d.Allowed }
func (d *RateLimitDecision) IsDenied() bool    { return !d.Allowed }
func (d *RateLimitDecision) HasRemaining() bool { return d.Remaining > 0 }

// ResetAtUnix is ResetAt as a Unix timestamp, for an X-RateLimit-Reset header.
func (d *RateLimitDecision) ResetAtUnix() int64 { return d.ResetAt.Unix() }

// RetryAfterSeconds is RetryAfter rounded to whole seconds, for a
// Retry-After header. Never negative.
func (d *RateLimitDecision) RetryAfterSeconds() int64 {
	seconds := int64(d.RetryAfter.Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// NewAllowedDecision builds a RateLimitDecision with Allowed=true.
func NewAllowedDecision(key, limiterType string, limit, remaining int, resetAt time.Time) *RateLimitDecision {
	retryAfter := time.Until(resetAt)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &RateLimitDecision{
		Key: key, Allowed: true, Limit: limit, Remaining: remaining,
		ResetAt: resetAt, RetryAfter: retryAfter, LimiterType: limiterType,
	}
}

// NewDeniedDecision builds a RateLimitDecision with Allowed=false and
// Remaining=0.
func NewDeniedDecision(key, limiterType string, limit int, resetAt time.Time) *RateLimitDecision {
	retryAfter := time.Until(resetAt)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &RateLimitDecision{
		Key: key, Allowed: false, Limit: limit, Remaining: 0,
		ResetAt: resetAt, RetryAfter: retryAfter, LimiterType: limiterType,
	}
}
