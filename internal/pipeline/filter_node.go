package pipeline

import (
	"context"

	"flowrunner/internal/feed"
)

// FilterNode retains entries matching (or, if Invert, not matching) a
// predicate over one named field, preserving entry order.
type FilterNode struct {
	field  string
	kind   Kind
	invert bool
	input  *IO
	output *IO
}

// NewFilterNode builds a Filter node. kind must already be compiled via
// Kind.compile (done by the tree builder).
func NewFilterNode(field string, kind Kind, invert bool) *FilterNode {
	return &FilterNode{
		field:  field,
		kind:   kind,
		invert: invert,
		input:  NewIO(DataKindFeed),
		output: NewIO(DataKindFeed),
	}
}

func (n *FilterNode) Inputs() []*IO          { return []*IO{n.input} }
func (n *FilterNode) Outputs() []*IO         { return []*IO{n.output} }
func (n *FilterNode) InputTypes() []DataKind  { return []DataKind{DataKindFeed} }
func (n *FilterNode) OutputTypes() []DataKind { return []DataKind{DataKindFeed} }
func (n *FilterNode) SetInput(i int, io *IO)  { n.input = io }
func (n *FilterNode) SetOutput(i int, io *IO) { n.output = io }

func (n *FilterNode) Dirty() bool { return n.input.IsDirty() }

func (n *FilterNode) Run(ctx context.Context) error {
	d, ok := n.input.Get()
	if !ok || d.Feed == nil {
		return &InternalError{Msg: "filter node run without input"}
	}

	out := d.Feed.Clone()
	kept := make([]feed.Entry, 0, len(d.Feed.Entries))
	for _, e := range d.Feed.Entries {
		text := e.Field(n.field)
		match := n.kind.Match(text)
		if n.invert {
			match = !match
		}
		if match {
			kept = append(kept, e)
		}
	}
	out.Entries = kept

	return n.output.Accept(FeedData(out))
}
