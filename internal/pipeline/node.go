package pipeline

import "context"

// Node is a unit of transformation with zero or more typed input slots and
// exactly one typed output slot. Implementations are not internally locked:
// the flow runner's per-flow exclusive lock is the only synchronization a
// node may rely on.
type Node interface {
	// Run executes the node, reading its input slot(s) and writing its
	// output slot. Called only when Dirty reports true.
	Run(ctx context.Context) error

	// Dirty reports whether the node needs to run before its output can be
	// trusted. Source nodes (no inputs) are dirty when their output is
	// empty; transform nodes are dirty when their input is dirty. Cache
	// overrides this to always report dirty (see cache_node.go).
	Dirty() bool

	// Inputs returns the node's input slots, in declaration order.
	Inputs() []*IO
	// Outputs returns the node's output slots; always exactly one element.
	Outputs() []*IO

	// InputTypes and OutputTypes describe slot kinds for type-chain
	// checking at build time, independent of whether a slot has been wired
	// yet.
	InputTypes() []DataKind
	OutputTypes() []DataKind

	// SetInput and SetOutput wire a slot allocated by the builder into the
	// node at the given index.
	SetInput(i int, io *IO)
	SetOutput(i int, io *IO)
}
