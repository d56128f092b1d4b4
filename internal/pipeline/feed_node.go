package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"flowrunner/internal/feed"
	"flowrunner/internal/resilience/circuitbreaker"
	"flowrunner/internal/resilience/retry"

	"golang.org/x/time/rate"
)

// FeedNode is the engine's pull source: it GETs a URL and parses the body
// as RSS or Atom. A source node; it has no input slots.
type FeedNode struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	cb      *circuitbreaker.CircuitBreaker
	retry   retry.Config
	output  *IO
}

// NewFeedNode builds a Feed node for the given URL using client for
// outbound requests, throttled through limiter (nil means unlimited).
func NewFeedNode(url string, client *http.Client, limiter *rate.Limiter) *FeedNode {
	return &FeedNode{
		url:     url,
		client:  client,
		limiter: limiter,
		cb:      circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retry:   retry.FeedFetchConfig(),
		output:  NewIO(DataKindFeed),
	}
}

func (n *FeedNode) Inputs() []*IO            { return nil }
func (n *FeedNode) Outputs() []*IO           { return []*IO{n.output} }
func (n *FeedNode) InputTypes() []DataKind   { return nil }
func (n *FeedNode) OutputTypes() []DataKind  { return []DataKind{DataKindFeed} }
func (n *FeedNode) SetInput(i int, io *IO)   {}
func (n *FeedNode) SetOutput(i int, io *IO)  { n.output = io }

// Dirty reports true whenever the output is empty: a source node produces
// on demand.
func (n *FeedNode) Dirty() bool { return n.output.IsEmpty() }

func (n *FeedNode) Run(ctx context.Context) error {
	var parsed *feed.Feed
	err := retry.WithBackoff(ctx, n.retry, func() error {
		result, cbErr := n.cb.Execute(func() (interface{}, error) {
			return n.doFetch(ctx)
		})
		if cbErr != nil {
			return cbErr
		}
		parsed = result.(*feed.Feed)
		return nil
	})
	if err != nil {
		return &FetchError{URL: n.url, Err: err}
	}
	return n.output.Accept(FeedData(parsed))
}

func (n *FeedNode) doFetch(ctx context.Context) (interface{}, error) {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url, nil)
	if err != nil {
		return nil, &BuildError{Msg: "build request: " + err.Error()}
	}
	req.Header.Set("User-Agent", "flowrunner/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("GET %s", n.url)}
	}

	f, err := feed.Parse(resp.Body)
	if err != nil {
		return nil, &BuildError{Msg: "parse feed: " + err.Error()}
	}
	return f, nil
}
