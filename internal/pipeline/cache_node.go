package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheNode wraps a fully-flattened subtree (its childNodes) and exposes a
// TTL- and single-flight-guarded view of its output. It does not sit inline
// in the outer flattened list the way other nodes do: it owns and drives
// its child chain directly, so a cache hit never invokes the wrapped
// subtree at all. See SPEC_FULL.md §4.B for why this must be a build-time
// wrapping rather than a runner-level special case.
type CacheNode struct {
	ttl         time.Duration
	childNodes  []Node
	childOutput *IO

	group singleflight.Group

	mu         sync.Mutex
	lastValue  *Data
	insertedAt time.Time

	output *IO
}

// NewCacheNode wraps childNodes (already flattened, leaf-first) behind a
// ttl freshness window. childOutput is the final child node's output slot.
func NewCacheNode(ttl time.Duration, childNodes []Node, childOutput *IO) *CacheNode {
	return &CacheNode{
		ttl:         ttl,
		childNodes:  childNodes,
		childOutput: childOutput,
		output:      NewIO(childOutput.Kind()),
	}
}

func (n *CacheNode) Inputs() []*IO          { return nil }
func (n *CacheNode) Outputs() []*IO         { return []*IO{n.output} }
func (n *CacheNode) InputTypes() []DataKind  { return nil }
func (n *CacheNode) OutputTypes() []DataKind { return []DataKind{n.output.Kind()} }
func (n *CacheNode) SetInput(i int, io *IO)  {}
func (n *CacheNode) SetOutput(i int, io *IO) { n.output = io }

// Dirty always reports true: Cache always runs so its TTL check executes;
// whether that run invokes the wrapped child is an internal decision, not
// one the outer runner should make by inspecting this node's output slot.
func (n *CacheNode) Dirty() bool { return true }

func (n *CacheNode) Run(ctx context.Context) error {
	v, err, _ := n.group.Do("run", func() (interface{}, error) {
		n.mu.Lock()
		if n.lastValue != nil && time.Since(n.insertedAt) < n.ttl {
			cached := *n.lastValue
			n.mu.Unlock()
			return cached, nil
		}
		n.mu.Unlock()

		for _, child := range n.childNodes {
			if child.Dirty() {
				if err := child.Run(ctx); err != nil {
					return nil, err
				}
			}
			for _, in := range child.Inputs() {
				if in.IsDirty() {
					in.Clear()
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cv, ok := n.childOutput.Get()
		if !ok {
			return nil, &InternalError{Msg: "cache: child produced no output"}
		}

		n.mu.Lock()
		val := cv
		n.lastValue = &val
		n.insertedAt = time.Now()
		n.mu.Unlock()
		return cv, nil
	})
	if err != nil {
		return err
	}
	// Cache owns its output slot exclusively (nothing else ever writes it),
	// so unlike a normal producer it must reset clean -> empty itself before
	// each Accept: nothing downstream clears it via Inputs() when Cache is
	// the flow's terminal node.
	if !n.output.IsEmpty() {
		n.output.Clear()
	}
	return n.output.Accept(v.(Data))
}
