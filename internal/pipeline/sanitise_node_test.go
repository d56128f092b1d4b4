package pipeline

import (
	"context"
	"testing"

	"flowrunner/internal/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSanitise(t *testing.T, field, value string) string {
	t.Helper()
	node := NewSanitiseNode(field)
	in := NewIO(DataKindFeed)
	out := NewIO(DataKindFeed)
	node.SetInput(0, in)
	node.SetOutput(0, out)

	f := &feed.Feed{Entries: []feed.Entry{{}}}
	f.Entries[0].SetField(field, value)
	require.NoError(t, in.Accept(FeedData(f)))
	require.NoError(t, node.Run(context.Background()))

	d, ok := out.Get()
	require.True(t, ok)
	return d.Feed.Entries[0].Field(field)
}

func TestSanitiseNode_Idempotent(t *testing.T) {
	dirty := `<div onclick="steal()" style="color:red"><script>evil()</script>hello <b>world</b></div>`

	once := runSanitise(t, "Content", dirty)
	twice := runSanitise(t, "Content", once)

	assert.Equal(t, once, twice)
}

func TestSanitiseNode_StripsScriptsAndEventHandlers(t *testing.T) {
	dirty := `<div onclick="steal()"><script>evil()</script>safe text</div>`
	clean := runSanitise(t, "Content", dirty)

	assert.NotContains(t, clean, "script")
	assert.NotContains(t, clean, "onclick")
	assert.Contains(t, clean, "safe text")
}

func TestSanitiseNode_TitleFieldStaysPlainText(t *testing.T) {
	clean := runSanitise(t, "Title", "<b>bold</b> title")
	assert.Equal(t, "<b>bold</b> title", clean)
}
