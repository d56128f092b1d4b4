package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"flowrunner/internal/feed"
)

// WebSubNode is the engine's push source: its input slot is never wired to
// a producer by the builder. It is the "flow's first input slot whose kind
// is WebSub" the WebSub receiver locates and writes the pushed body into.
type WebSubNode struct {
	input  *IO
	output *IO
}

// NewWebSubNode builds a WebSub leaf node.
func NewWebSubNode() *WebSubNode {
	return &WebSubNode{
		input:  NewIO(DataKindWebSub),
		output: NewIO(DataKindFeed),
	}
}

func (n *WebSubNode) Inputs() []*IO          { return []*IO{n.input} }
func (n *WebSubNode) Outputs() []*IO         { return []*IO{n.output} }
func (n *WebSubNode) InputTypes() []DataKind  { return []DataKind{DataKindWebSub} }
func (n *WebSubNode) OutputTypes() []DataKind { return []DataKind{DataKindFeed} }
func (n *WebSubNode) SetInput(i int, io *IO)  { n.input = io }
func (n *WebSubNode) SetOutput(i int, io *IO) { n.output = io }

func (n *WebSubNode) Dirty() bool { return n.input.IsDirty() }

func (n *WebSubNode) Run(ctx context.Context) error {
	d, ok := n.input.Get()
	if !ok {
		return &InternalError{Msg: "websub node run without input"}
	}
	f, err := feed.Parse(bytes.NewReader(d.WebSub))
	if err != nil {
		return fmt.Errorf("parse websub push body: %w", err)
	}
	return n.output.Accept(FeedData(f))
}
