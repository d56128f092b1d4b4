package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"flowrunner/internal/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveNode_FanOutPreservesOrderAndCapsConcurrency(t *testing.T) {
	var inFlight, maxInFlight int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			old := atomic.LoadInt32(&maxInFlight)
			if cur <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, cur) {
				break
			}
		}
		idx := r.URL.Query().Get("i")
		fmt.Fprintf(w, `<html><body><div class="e">X_%s</div></body></html>`, idx)
	}))
	defer srv.Close()

	f := &feed.Feed{}
	for i := 0; i < 10; i++ {
		f.Entries = append(f.Entries, feed.Entry{
			ID:    fmt.Sprintf("%d", i),
			Title: fmt.Sprintf("entry-%d", i),
			Links: []feed.Link{{Href: fmt.Sprintf("%s/?i=%d", srv.URL, i), Rel: "alternate"}},
		})
	}

	node := NewRetrieveNode(".e", nil)
	node.client = srv.Client()
	in := NewIO(DataKindFeed)
	out := NewIO(DataKindFeed)
	node.SetInput(0, in)
	node.SetOutput(0, out)
	require.NoError(t, in.Accept(FeedData(f)))

	require.NoError(t, node.Run(context.Background()))

	d, ok := out.Get()
	require.True(t, ok)
	require.Len(t, d.Feed.Entries, 10)
	for i, e := range d.Feed.Entries {
		assert.Equal(t, fmt.Sprintf("X_%d", i), e.Content.Value)
	}
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxInFlight)), 6)
}

func TestRetrieveNode_EntryWithoutAlternatePassesThrough(t *testing.T) {
	f := &feed.Feed{Entries: []feed.Entry{{ID: "1", Title: "no-link"}}}

	node := NewRetrieveNode(".e", nil)
	in := NewIO(DataKindFeed)
	out := NewIO(DataKindFeed)
	node.SetInput(0, in)
	node.SetOutput(0, out)
	require.NoError(t, in.Accept(FeedData(f)))

	require.NoError(t, node.Run(context.Background()))

	d, ok := out.Get()
	require.True(t, ok)
	assert.Nil(t, d.Feed.Entries[0].Content)
}

func TestRetrieveNode_FailFastOnAnyFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("i") == "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `<html><body><div class="e">ok</div></body></html>`)
	}))
	defer srv.Close()

	f := &feed.Feed{Entries: []feed.Entry{
		{ID: "0", Links: []feed.Link{{Href: srv.URL + "/?i=0", Rel: "alternate"}}},
		{ID: "1", Links: []feed.Link{{Href: srv.URL + "/?i=1", Rel: "alternate"}}},
	}}

	node := NewRetrieveNode(".e", nil)
	node.client = srv.Client()
	node.retry.MaxAttempts = 1
	in := NewIO(DataKindFeed)
	out := NewIO(DataKindFeed)
	node.SetInput(0, in)
	node.SetOutput(0, out)
	require.NoError(t, in.Accept(FeedData(f)))

	err := node.Run(context.Background())
	require.Error(t, err)
	assert.True(t, out.IsEmpty())
}
