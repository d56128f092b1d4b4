package pipeline

import "sync"

type slotState int

const (
	stateEmpty slotState = iota
	stateDirty
	stateClean
)

// IO is a shared, mutable, typed cell carrying a value between two adjacent
// nodes. It is the only mutable shared state in a built flow. The runner's
// per-flow lock serializes all access within a flow, so IO's own mutex only
// guards against defensive misuse (concurrent Get from two goroutines during
// one run), not against the node graph itself.
type IO struct {
	mu    sync.Mutex
	kind  DataKind
	state slotState
	value Data
}

// NewIO creates an empty slot of the given kind.
func NewIO(kind DataKind) *IO {
	return &IO{kind: kind, state: stateEmpty}
}

// Kind returns the slot's DataKind.
func (s *IO) Kind() DataKind { return s.kind }

// IsDirty reports whether the slot holds an unconsumed value.
func (s *IO) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateDirty
}

// IsEmpty reports whether the slot has never been written, or was cleared.
func (s *IO) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateEmpty
}

// Accept writes v into the slot, transitioning empty -> dirty. It rejects a
// double-write (dirty or clean state) and a kind mismatch.
func (s *IO) Accept(v Data) error {
	if v.Kind != s.kind {
		return &TypeError{Want: s.kind, Got: v.Kind}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateEmpty {
		return &InternalError{Msg: "slot accept: already holds a value"}
	}
	s.value = v
	s.state = stateDirty
	return nil
}

// Get reads the slot's value. dirty -> clean, returning the value; clean
// returns the same cached value again; empty returns ok=false.
func (s *IO) Get() (Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateDirty:
		s.state = stateClean
		return s.value, true
	case stateClean:
		return s.value, true
	default:
		return Data{}, false
	}
}

// Clear resets the slot to empty from any state.
func (s *IO) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateEmpty
	s.value = Data{}
}
