// Package flow implements the server's in-memory flow registry: the live,
// built Flow instances the HTTP handlers dispatch against, backed by
// repository.FlowRepository for durable storage of the node tree that
// built each one.
package flow

import (
	"context"
	"fmt"
	"sync"

	"flowrunner/internal/pipeline"
	"flowrunner/internal/repository"
)

// Registry is the server's single sync.RWMutex-guarded map of built, live
// flows, keyed by name. Reads happen on every GET and WebSub dispatch;
// writes only on PUT/DELETE.
type Registry struct {
	repo repository.FlowRepository
	deps pipeline.NodeDeps

	mu    sync.RWMutex
	flows map[string]*pipeline.Flow
}

// NewRegistry constructs an empty registry bound to repo for persistence
// and deps for node construction (the shared HTTP client, etc).
func NewRegistry(repo repository.FlowRepository, deps pipeline.NodeDeps) *Registry {
	return &Registry{repo: repo, deps: deps, flows: make(map[string]*pipeline.Flow)}
}

// Load builds every persisted flow and populates the in-memory map. Call
// once at startup, before the registry serves traffic.
func (r *Registry) Load(ctx context.Context) error {
	stored, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sf := range stored {
		f, err := r.build(sf.Content)
		if err != nil {
			return fmt.Errorf("Load: flow %q: %w", sf.Name, err)
		}
		r.flows[sf.Name] = f
	}
	return nil
}

func (r *Registry) build(content string) (*pipeline.Flow, error) {
	tree, err := pipeline.ParseTree([]byte(content))
	if err != nil {
		return nil, err
	}
	return pipeline.Build(tree, r.deps)
}

// Get returns the live flow registered under name, if any.
func (r *Registry) Get(name string) (*pipeline.Flow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flows[name]
	return f, ok
}

// Flow implements websub.FlowLookup.
func (r *Registry) Flow(name string) (*pipeline.Flow, bool) {
	return r.Get(name)
}

// List returns every registered flow's name alongside its serialized tree.
func (r *Registry) List(ctx context.Context) ([]*repository.StoredFlow, error) {
	return r.repo.List(ctx)
}

// GetStored returns the persisted row (name + serialized tree) for name,
// or nil if no such flow exists.
func (r *Registry) GetStored(ctx context.Context, name string) (*repository.StoredFlow, error) {
	return r.repo.Get(ctx, name)
}

// Put builds content into a Flow, then creates or updates both the
// in-memory registry entry and the persisted row. Returns created=true
// when this is a brand-new name (caller maps that to 201 vs 204).
func (r *Registry) Put(ctx context.Context, name string, content []byte) (created bool, err error) {
	tree, err := pipeline.ParseTree(content)
	if err != nil {
		return false, err
	}
	built, err := pipeline.Build(tree, r.deps)
	if err != nil {
		return false, err
	}

	existing, err := r.repo.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("Put: %w", err)
	}

	sf := &repository.StoredFlow{UUID: built.UUID, Name: name, Content: string(content)}
	if existing == nil {
		if err := r.repo.Create(ctx, sf); err != nil {
			return false, fmt.Errorf("Put: %w", err)
		}
		created = true
	} else {
		sf.UUID = existing.UUID
		if err := r.repo.Update(ctx, sf); err != nil {
			return false, fmt.Errorf("Put: %w", err)
		}
	}

	r.mu.Lock()
	r.flows[name] = built
	r.mu.Unlock()
	return created, nil
}

// Delete removes name from both the registry and the persisted table.
// Idempotent: deleting an absent name is not an error.
func (r *Registry) Delete(ctx context.Context, name string) error {
	if err := r.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	r.mu.Lock()
	delete(r.flows, name)
	r.mu.Unlock()
	return nil
}
