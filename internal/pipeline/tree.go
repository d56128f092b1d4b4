package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tree is the canonical wire form: a recursive tagged value discriminated
// by Type. Non-leaf variants carry Child; the leaves are Feed and WebSub.
// A Wasm variant round-trips through (un)marshaling but Build always
// rejects it — "optional, may be omitted" is implemented as "parsed but
// never executed."
type Tree struct {
	Type string `json:"type"`

	// Feed
	URL string `json:"url,omitempty"`

	// Filter
	Field  string `json:"field,omitempty"`
	Kind   *Kind  `json:"kind,omitempty"`
	Invert bool   `json:"invert,omitempty"`

	// Retrieve
	Content string `json:"content,omitempty"`

	// Cache
	TTL int64 `json:"ttl,omitempty"` // whole seconds

	// Wasm (accepted, never built)
	Wat []byte `json:"wat,omitempty"`

	// Filter, Retrieve, Sanitise, Cache all have a child
	Child *Tree `json:"child,omitempty"`
}

const (
	TypeFeed     = "Feed"
	TypeWebSub   = "WebSub"
	TypeFilter   = "Filter"
	TypeRetrieve = "Retrieve"
	TypeSanitise = "Sanitise"
	TypeCache    = "Cache"
	TypeWasm     = "Wasm"
)

// ParseTree deserializes the wire form into a Tree.
func ParseTree(data []byte) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &BuildError{Msg: "malformed tree: " + err.Error()}
	}
	return &t, nil
}

// Marshal serializes the tree back to its wire form.
func (t *Tree) Marshal() ([]byte, error) {
	return json.Marshal(t)
}

func (t *Tree) requireChild() (*Tree, error) {
	if t.Child == nil {
		return nil, &BuildError{Msg: t.Type + " node requires a child"}
	}
	return t.Child, nil
}

// Build flattens t into a runnable Flow.
func Build(t *Tree, deps NodeDeps) (*Flow, error) {
	nodes, err := buildSubtree(t, deps)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, &BuildError{Msg: "empty tree"}
	}

	for i := 0; i < len(nodes)-1; i++ {
		producer, consumer := nodes[i], nodes[i+1]
		pOut, cIn := producer.OutputTypes(), consumer.InputTypes()
		if len(pOut) == 0 || len(cIn) == 0 {
			return nil, &BuildError{Msg: "node missing required input or output slot"}
		}
		if pOut[0] != cIn[0] {
			return nil, &BuildError{Msg: fmt.Sprintf("type mismatch: %s produces %s, %s expects %s",
				typeName(producer), pOut[0], typeName(consumer), cIn[0])}
		}
		slot := NewIO(pOut[0])
		producer.SetOutput(0, slot)
		consumer.SetInput(0, slot)
	}

	last := nodes[len(nodes)-1]
	terminal := NewIO(last.OutputTypes()[0])
	last.SetOutput(0, terminal)

	return newFlow(nodes, terminal), nil
}

func typeName(n Node) string {
	return fmt.Sprintf("%T", n)
}

// buildSubtree recursively flattens t leaf-first. Every variant except
// Cache contributes its own flattened child list followed by itself; Cache
// absorbs its child subtree internally and contributes only itself.
func buildSubtree(t *Tree, deps NodeDeps) ([]Node, error) {
	switch t.Type {
	case TypeFeed:
		if t.URL == "" {
			return nil, &BuildError{Msg: "feed node requires url"}
		}
		return []Node{NewFeedNode(t.URL, deps.HTTPClient(), deps.FetchLimiter())}, nil

	case TypeWebSub:
		return []Node{NewWebSubNode()}, nil

	case TypeFilter:
		child, err := t.requireChild()
		if err != nil {
			return nil, err
		}
		childNodes, err := buildSubtree(child, deps)
		if err != nil {
			return nil, err
		}
		if t.Kind == nil {
			return nil, &BuildError{Msg: "filter node requires kind"}
		}
		kind := *t.Kind
		if err := kind.compile(); err != nil {
			return nil, err
		}
		if t.Field == "" {
			return nil, &BuildError{Msg: "filter node requires field"}
		}
		node := NewFilterNode(t.Field, kind, t.Invert)
		return append(childNodes, node), nil

	case TypeRetrieve:
		child, err := t.requireChild()
		if err != nil {
			return nil, err
		}
		childNodes, err := buildSubtree(child, deps)
		if err != nil {
			return nil, err
		}
		if t.Content == "" {
			return nil, &BuildError{Msg: "retrieve node requires content selector"}
		}
		node := NewRetrieveNode(t.Content, deps.FetchLimiter())
		return append(childNodes, node), nil

	case TypeSanitise:
		child, err := t.requireChild()
		if err != nil {
			return nil, err
		}
		childNodes, err := buildSubtree(child, deps)
		if err != nil {
			return nil, err
		}
		if t.Field == "" {
			return nil, &BuildError{Msg: "sanitise node requires field"}
		}
		node := NewSanitiseNode(t.Field)
		return append(childNodes, node), nil

	case TypeCache:
		child, err := t.requireChild()
		if err != nil {
			return nil, err
		}
		childNodes, err := buildSubtree(child, deps)
		if err != nil {
			return nil, err
		}
		if len(childNodes) == 0 {
			return nil, &BuildError{Msg: "cache node has empty child subtree"}
		}
		if t.TTL <= 0 {
			return nil, &BuildError{Msg: "cache node requires a positive ttl"}
		}
		if err := wireSubtree(childNodes); err != nil {
			return nil, err
		}
		childOutput := childNodes[len(childNodes)-1].Outputs()[0]
		node := NewCacheNode(secondsToDuration(t.TTL), childNodes, childOutput)
		return []Node{node}, nil

	case TypeWasm:
		return nil, &BuildError{Msg: "wasm node not supported"}

	default:
		return nil, &BuildError{Msg: "unknown node type " + t.Type}
	}
}

// wireSubtree wires a child node list's internal slots, the same pairwise
// allocation Build performs for the outer list. Used once a Cache node's
// child subtree is fully flattened.
func wireSubtree(nodes []Node) error {
	for i := 0; i < len(nodes)-1; i++ {
		producer, consumer := nodes[i], nodes[i+1]
		pOut, cIn := producer.OutputTypes(), consumer.InputTypes()
		if len(pOut) == 0 || len(cIn) == 0 {
			return &BuildError{Msg: "node missing required input or output slot"}
		}
		if pOut[0] != cIn[0] {
			return &BuildError{Msg: fmt.Sprintf("type mismatch inside cache subtree: %s vs %s", pOut[0], cIn[0])}
		}
		slot := NewIO(pOut[0])
		producer.SetOutput(0, slot)
		consumer.SetInput(0, slot)
	}
	// terminal slot for the subtree, read by the cache node as childOutput
	last := nodes[len(nodes)-1]
	last.SetOutput(0, NewIO(last.OutputTypes()[0]))
	return nil
}

func secondsToDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}
