package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTree_RoundTrip(t *testing.T) {
	original := &Tree{
		Type:  TypeSanitise,
		Field: "Content",
		Child: &Tree{
			Type:    TypeRetrieve,
			Content: ".article-body",
			Child: &Tree{
				Type:   TypeFilter,
				Field:  "Summary",
				Invert: true,
				Kind:   &Kind{Type: KindContains, Value: "SNEAK PEEK"},
				Child: &Tree{
					Type: TypeCache,
					TTL:  3600,
					Child: &Tree{
						Type: TypeFeed,
						URL:  "https://example.com/feed.xml",
					},
				},
			},
		},
	}

	data, err := original.Marshal()
	require.NoError(t, err)

	roundTripped, err := ParseTree(data)
	require.NoError(t, err)

	assert.Equal(t, original, roundTripped)
}

func TestParseTree_WasmRoundTripsButDoesNotBuild(t *testing.T) {
	tree := &Tree{Type: TypeWasm, Wat: []byte("(module)")}

	data, err := tree.Marshal()
	require.NoError(t, err)

	parsed, err := ParseTree(data)
	require.NoError(t, err)
	assert.Equal(t, tree, parsed)

	_, err = Build(parsed, NewNodeDeps(nil))
	require.Error(t, err)
	var buildErr *BuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestBuild_TypeMismatchRejected(t *testing.T) {
	// Retrieve produces Feed; wiring it directly under a WebSub leaf (also
	// Feed-producing) is fine, but a Filter expecting Feed fed from nothing
	// with a missing child must fail at build time.
	tree := &Tree{Type: TypeFilter, Field: "Title", Kind: &Kind{Type: KindContains, Value: "x"}}

	_, err := Build(tree, NewNodeDeps(nil))
	require.Error(t, err)
}

func TestBuild_MissingChildRejected(t *testing.T) {
	tree := &Tree{Type: TypeCache, TTL: 60}
	_, err := Build(tree, NewNodeDeps(nil))
	require.Error(t, err)
}

func TestBuild_FlattenedNodeCount(t *testing.T) {
	tree := &Tree{
		Type:  TypeFilter,
		Field: "Title",
		Kind:  &Kind{Type: KindContains, Value: "x"},
		Child: &Tree{Type: TypeFeed, URL: "https://example.com/feed.xml"},
	}

	flow, err := Build(tree, NewNodeDeps(nil))
	require.NoError(t, err)
	assert.Len(t, flow.nodes, 2)
}

func TestBuild_WebSubLeafExposesInput(t *testing.T) {
	tree := &Tree{
		Type:  TypeFilter,
		Field: "Title",
		Kind:  &Kind{Type: KindContains, Value: "x"},
		Child: &Tree{Type: TypeWebSub},
	}

	flow, err := Build(tree, NewNodeDeps(nil))
	require.NoError(t, err)

	in := flow.InputOfKind(DataKindWebSub)
	require.NotNil(t, in)
	assert.True(t, in.IsEmpty())

	// a Feed-leaf flow has no WebSub input
	feedTree := &Tree{Type: TypeFeed, URL: "https://example.com/feed.xml"}
	feedFlow, err := Build(feedTree, NewNodeDeps(nil))
	require.NoError(t, err)
	assert.Nil(t, feedFlow.InputOfKind(DataKindWebSub))
}
