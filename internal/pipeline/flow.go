package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Flow is a built, runnable pipeline: an ordered node list wired by shared
// IO slots, plus the terminal slot of the final node.
type Flow struct {
	UUID  uuid.UUID
	Name  string
	nodes []Node

	mu     sync.Mutex // per-flow exclusive lock; serializes same-flow runs
	output *IO
}

func newFlow(nodes []Node, output *IO) *Flow {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Flow{UUID: id, nodes: nodes, output: output}
}

// Inputs returns the flow's externally addressable input slots: the leaf
// node's own input slots, which are never wired to a producer. For a
// Feed-leaf flow this is empty; for a WebSub-leaf flow it is the single
// WebSub-kind slot the receiver writes pushed bodies into.
func (f *Flow) Inputs() []*IO {
	if len(f.nodes) == 0 {
		return nil
	}
	return f.nodes[0].Inputs()
}

// InputOfKind returns the flow's first input slot of the given kind, or
// nil if none exists.
func (f *Flow) InputOfKind(kind DataKind) *IO {
	for _, in := range f.Inputs() {
		if in.Kind() == kind {
			return in
		}
	}
	return nil
}

// Run acquires the flow's exclusive lock, runs every dirty node in build
// order, clears consumed input slots, and returns the terminal value.
func (f *Flow) Run(ctx context.Context) (*Data, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.nodes {
		if n.Dirty() {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			if err := n.Run(ctx); err != nil {
				return nil, err
			}
		}
		for _, in := range n.Inputs() {
			if in.IsDirty() {
				in.Clear()
			}
		}
	}

	v, ok := f.output.Get()
	if !ok {
		return nil, nil
	}
	return &v, nil
}
