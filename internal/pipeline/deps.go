package pipeline

import (
	"net/http"

	"golang.org/x/time/rate"
)

// NodeDeps supplies the shared collaborators nodes need at build time, so
// Build doesn't reach for package-level globals. FetchLimiter is shared by
// every Feed and Retrieve node built from the same NodeDeps, capping the
// flow engine's total outbound request rate regardless of how many flows
// or entries are fetching concurrently.
type NodeDeps interface {
	HTTPClient() *http.Client
	FetchLimiter() *rate.Limiter
}

type defaultDeps struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewNodeDeps returns the default NodeDeps: a shared HTTP client and an
// unlimited fetch rate. Use NewNodeDepsWithLimiter to cap outbound fetches.
func NewNodeDeps(client *http.Client) NodeDeps {
	return NewNodeDepsWithLimiter(client, rate.NewLimiter(rate.Inf, 0))
}

// NewNodeDepsWithLimiter is NewNodeDeps plus an explicit shared outbound
// fetch rate limit, applied before every Feed and Retrieve node request.
func NewNodeDepsWithLimiter(client *http.Client, limiter *rate.Limiter) NodeDeps {
	if client == nil {
		client = http.DefaultClient
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return defaultDeps{client: client, limiter: limiter}
}

func (d defaultDeps) HTTPClient() *http.Client    { return d.client }
func (d defaultDeps) FetchLimiter() *rate.Limiter { return d.limiter }
