package pipeline

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"flowrunner/internal/feed"
	"flowrunner/internal/resilience/circuitbreaker"
	"flowrunner/internal/resilience/retry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// RetrieveNode enriches each entry's content by fetching its alternate link
// and extracting the elements matching a CSS selector, in document order.
// At most min(len(entries), 6) fetches run concurrently; any single fetch
// failure fails the whole run (fail-fast), discarding partial results.
type RetrieveNode struct {
	selector string
	client   *http.Client
	limiter  *rate.Limiter
	cfg      FetchConfig
	cb       *circuitbreaker.CircuitBreaker
	retry    retry.Config
	input    *IO
	output   *IO
}

// NewRetrieveNode builds a Retrieve node selecting elements matching
// selector (a CSS selector string), throttling its per-entry fetches
// through limiter (nil means unlimited).
func NewRetrieveNode(selector string, limiter *rate.Limiter) *RetrieveNode {
	cfg := DefaultFetchConfig()
	return &RetrieveNode{
		selector: selector,
		cfg:      cfg,
		client:   newFetchClient(cfg),
		limiter:  limiter,
		cb:       circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retry:    retry.FeedFetchConfig(),
		input:    NewIO(DataKindFeed),
		output:   NewIO(DataKindFeed),
	}
}

func (n *RetrieveNode) Inputs() []*IO          { return []*IO{n.input} }
func (n *RetrieveNode) Outputs() []*IO         { return []*IO{n.output} }
func (n *RetrieveNode) InputTypes() []DataKind  { return []DataKind{DataKindFeed} }
func (n *RetrieveNode) OutputTypes() []DataKind { return []DataKind{DataKindFeed} }
func (n *RetrieveNode) SetInput(i int, io *IO)  { n.input = io }
func (n *RetrieveNode) SetOutput(i int, io *IO) { n.output = io }

func (n *RetrieveNode) Dirty() bool { return n.input.IsDirty() }

func (n *RetrieveNode) Run(ctx context.Context) error {
	d, ok := n.input.Get()
	if !ok || d.Feed == nil {
		return &InternalError{Msg: "retrieve node run without input"}
	}

	entries := d.Feed.Entries
	limit := len(entries)
	if limit > 6 {
		limit = 6
	}
	if limit == 0 {
		return n.output.Accept(FeedData(d.Feed.Clone()))
	}

	results := make([]feed.Entry, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			enriched, err := n.enrich(gctx, e)
			if err != nil {
				return err
			}
			results[i] = enriched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := d.Feed.Clone()
	out.Entries = results
	return n.output.Accept(FeedData(out))
}

func (n *RetrieveNode) enrich(ctx context.Context, e feed.Entry) (feed.Entry, error) {
	link, ok := e.Alternate()
	if !ok {
		return e, nil
	}

	var body []byte
	err := retry.WithBackoff(ctx, n.retry, func() error {
		result, cbErr := n.cb.Execute(func() (interface{}, error) {
			return fetchURL(ctx, n.client, n.limiter, n.cfg, link.Href)
		})
		if cbErr != nil {
			return cbErr
		}
		body = result.([]byte)
		return nil
	})
	if err != nil {
		return feed.Entry{}, &FetchError{URL: link.Href, Err: err}
	}

	value, err := n.extract(link.Href, body)
	if err != nil {
		return feed.Entry{}, &FetchError{URL: link.Href, Err: err}
	}

	e.Content = &feed.Content{Value: value, Type: "html"}
	return e, nil
}

// extract selects elements matching n.selector and concatenates their inner
// HTML in document order. When the selector matches nothing, it falls back
// to Readability full-text extraction rather than leaving content empty.
func (n *RetrieveNode) extract(sourceURL string, body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	sel := doc.Find(n.selector)
	if sel.Length() > 0 {
		var parts []string
		sel.Each(func(_ int, s *goquery.Selection) {
			if html, err := s.Html(); err == nil {
				parts = append(parts, html)
			}
		})
		return strings.Join(parts, ""), nil
	}

	parsed, _ := url.Parse(sourceURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", err
	}
	if article.Content != "" {
		return article.Content, nil
	}
	return article.TextContent, nil
}
