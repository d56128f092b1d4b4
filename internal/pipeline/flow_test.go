package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssFeed(entries ...string) string {
	items := ""
	for i, summary := range entries {
		items += fmt.Sprintf(`<item><title>entry-%d</title><description>%s</description><link>https://example.com/%d</link></item>`, i, summary, i)
	}
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>` + items + `</channel></rss>`
}

func TestFlow_CacheHit(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		fmt.Fprint(w, rssFeed("A"))
	}))
	defer srv.Close()

	tree := &Tree{
		Type: TypeCache,
		TTL:  3600,
		Child: &Tree{Type: TypeFeed, URL: srv.URL},
	}
	flow, err := Build(tree, NewNodeDeps(srv.Client()))
	require.NoError(t, err)

	d1, err := flow.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d1)
	assert.Equal(t, "entry-0", d1.Feed.Entries[0].Title)

	d2, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d1.Feed.Entries[0].Title, d2.Feed.Entries[0].Title)

	assert.EqualValues(t, 1, atomic.LoadInt32(&fetches))
}

func TestFlow_CacheExpiry(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		fmt.Fprint(w, rssFeed("A"))
	}))
	defer srv.Close()

	tree := &Tree{
		Type: TypeCache,
		TTL:  1,
		Child: &Tree{Type: TypeFeed, URL: srv.URL},
	}
	flow, err := Build(tree, NewNodeDeps(srv.Client()))
	require.NoError(t, err)

	_, err = flow.Run(context.Background())
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	_, err = flow.Run(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&fetches))
}

func TestFlow_FilterContainsInverted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed("keep", "BELOW IS A SNEAK PEEK drop", "keep2"))
	}))
	defer srv.Close()

	tree := &Tree{
		Type:   TypeFilter,
		Field:  "Summary",
		Invert: true,
		Kind:   &Kind{Type: KindContains, Value: "BELOW IS A SNEAK PEEK"},
		Child:  &Tree{Type: TypeFeed, URL: srv.URL},
	}
	flow, err := Build(tree, NewNodeDeps(srv.Client()))
	require.NoError(t, err)

	d, err := flow.Run(context.Background())
	require.NoError(t, err)

	var summaries []string
	for _, e := range d.Feed.Entries {
		summaries = append(summaries, e.Summary)
	}
	assert.Equal(t, []string{"keep", "keep2"}, summaries)
}

func TestFlow_FilterPartitionsEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed("alpha", "beta", "alphabet"))
	}))
	defer srv.Close()

	kept := &Tree{
		Type: TypeFilter, Field: "Summary", Invert: false,
		Kind: &Kind{Type: KindContains, Value: "alpha"},
		Child: &Tree{Type: TypeFeed, URL: srv.URL},
	}
	dropped := &Tree{
		Type: TypeFilter, Field: "Summary", Invert: true,
		Kind: &Kind{Type: KindContains, Value: "alpha"},
		Child: &Tree{Type: TypeFeed, URL: srv.URL},
	}

	keptFlow, err := Build(kept, NewNodeDeps(srv.Client()))
	require.NoError(t, err)
	droppedFlow, err := Build(dropped, NewNodeDeps(srv.Client()))
	require.NoError(t, err)

	dk, err := keptFlow.Run(context.Background())
	require.NoError(t, err)
	dd, err := droppedFlow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, len(dk.Feed.Entries)+len(dd.Feed.Entries))

	seen := map[string]bool{}
	for _, e := range dk.Feed.Entries {
		seen[e.Summary] = true
	}
	for _, e := range dd.Feed.Entries {
		assert.False(t, seen[e.Summary], "entry %q present in both partitions", e.Summary)
	}
}

func TestFlow_SlotsEmptyAfterRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed("A", "B"))
	}))
	defer srv.Close()

	tree := &Tree{
		Type: TypeSanitise, Field: "Title",
		Child: &Tree{
			Type: TypeFilter, Field: "Title",
			Kind:  &Kind{Type: KindContains, Value: "entry"},
			Child: &Tree{Type: TypeFeed, URL: srv.URL},
		},
	}
	flow, err := Build(tree, NewNodeDeps(srv.Client()))
	require.NoError(t, err)

	_, err = flow.Run(context.Background())
	require.NoError(t, err)

	for _, n := range flow.nodes {
		for _, in := range n.Inputs() {
			assert.False(t, in.IsDirty(), "input slot left dirty after successful run")
		}
	}
}
