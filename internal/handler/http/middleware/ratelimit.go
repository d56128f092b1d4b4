package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"flowrunner/internal/handler/http/pathutil"
	"flowrunner/pkg/ratelimit"
)

// RateLimiter is an HTTP middleware enforcing a sliding window request
// limit per client IP. It delegates the accounting to pkg/ratelimit's
// SlidingWindowAlgorithm over an InMemoryRateLimitStore, which gives it
// two things a raw map-and-mutex counter doesn't: an atomic check-and-add
// (no two concurrent requests from the same IP can both slip through at
// the limit boundary) and Prometheus visibility into denials, check
// latency, and LRU eviction pressure.
type RateLimiter struct {
	limit       int
	window      time.Duration
	ipExtractor IPExtractor

	store     *ratelimit.InMemoryRateLimitStore
	algorithm *ratelimit.SlidingWindowAlgorithm
	metrics   ratelimit.RateLimitMetrics

	lastEvictions int
}

// limiterType labels every decision and metric this middleware produces.
const limiterType = "ip"

// NewRateLimiter creates a new RateLimiter with the specified parameters.
//
// Parameters:
//   - limit: Maximum number of requests per IP within the time window
//   - window: Time period for rate limiting (e.g., 1 * time.Minute)
//   - ipExtractor: IP extraction strategy (RemoteAddrExtractor or TrustedProxyExtractor)
func NewRateLimiter(limit int, window time.Duration, ipExtractor IPExtractor) *RateLimiter {
	return &RateLimiter{
		limit:       limit,
		window:      window,
		ipExtractor: ipExtractor,
		store:       ratelimit.NewInMemoryRateLimitStore(ratelimit.DefaultInMemoryStoreConfig()),
		algorithm:   ratelimit.NewSlidingWindowAlgorithm(nil, limiterType),
		metrics:     ratelimit.NewPrometheusMetrics(),
	}
}

// Middleware returns an HTTP middleware handler that enforces rate limiting.
// It extracts the client IP using the configured IPExtractor and checks if
// the request count is within the allowed limit for the time window.
//
// Behavior:
//   - If the IP is within the rate limit, the request proceeds to the next handler
//   - If the IP exceeds the rate limit, returns 429 Too Many Requests with Retry-After
//   - If IP extraction fails, logs a warning and uses RemoteAddr as fallback
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.ipExtractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: IP extraction failed, using RemoteAddr fallback",
				slog.String("error", err.Error()), slog.String("remote_addr", r.RemoteAddr))
			ip, err = extractIPFromAddr(r.RemoteAddr)
			if err != nil {
				slog.Error("rate limiter: RemoteAddr extraction failed",
					slog.String("error", err.Error()), slog.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		endpoint := pathutil.NormalizePath(r.URL.Path)

		start := time.Now()
		decision, err := rl.algorithm.IsAllowed(r.Context(), ip, rl.store, rl.limit, rl.window)
		rl.metrics.RecordCheckDuration(limiterType, time.Since(start))
		if err != nil {
			// The in-memory store never itself fails; a non-nil error here
			// would mean a future, fallible backend misbehaved. Fail open
			// rather than block traffic on a rate limiter malfunction.
			slog.Error("rate limiter: check failed, allowing request", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		if !decision.Allowed {
			rl.metrics.RecordDenied(limiterType, endpoint)
			slog.Warn("rate limit exceeded",
				slog.String("ip", ip), slog.String("endpoint", endpoint),
				slog.Int("limit", rl.limit), slog.Duration("window", rl.window))
			w.Header().Set("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds(), 10))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		rl.metrics.RecordAllowed(limiterType, endpoint)
		next.ServeHTTP(w, r)
	})
}

// CleanupExpired drops timestamps outside the current window from both the
// store and the algorithm's clock-skew tracker, and refreshes the active
// key and eviction gauges. Should be called periodically (e.g., every 10
// minutes) so memory doesn't grow with the lifetime number of distinct IPs
// seen.
//
// Example usage with a ticker:
//
//	go func() {
//	    ticker := time.NewTicker(10 * time.Minute)
//	    defer ticker.Stop()
//	    for range ticker.C {
//	        rateLimiter.CleanupExpired()
//	    }
//	}()
func (rl *RateLimiter) CleanupExpired() {
	ctx := context.Background()
	cutoff := time.Now().Add(-rl.window)

	if err := rl.store.Cleanup(ctx, cutoff); err != nil {
		slog.Error("rate limiter: store cleanup failed", slog.String("error", err.Error()))
		return
	}
	removed := rl.algorithm.CleanupExpiredTimestamps(rl.window)

	if count, err := rl.store.KeyCount(ctx); err == nil {
		rl.metrics.SetActiveKeys(limiterType, count)
	}
	if total := rl.store.Evictions(); total > rl.lastEvictions {
		rl.metrics.RecordEviction(limiterType, total-rl.lastEvictions)
		rl.lastEvictions = total
	}

	slog.Debug("rate limiter: cleanup completed", slog.Int("clock_skew_entries_removed", removed))
}
