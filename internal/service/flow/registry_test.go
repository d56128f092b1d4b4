package flow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowrunner/internal/pipeline"
	"flowrunner/internal/repository"
)

// fakeFlowRepo is an in-memory repository.FlowRepository for registry tests.
type fakeFlowRepo struct {
	mu    sync.Mutex
	flows map[string]*repository.StoredFlow
}

func newFakeFlowRepo() *fakeFlowRepo {
	return &fakeFlowRepo{flows: make(map[string]*repository.StoredFlow)}
}

func (f *fakeFlowRepo) Get(_ context.Context, name string) (*repository.StoredFlow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sf, ok := f.flows[name]
	if !ok {
		return nil, nil
	}
	cp := *sf
	return &cp, nil
}

func (f *fakeFlowRepo) List(_ context.Context) ([]*repository.StoredFlow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*repository.StoredFlow, 0, len(f.flows))
	for _, sf := range f.flows {
		cp := *sf
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeFlowRepo) Create(_ context.Context, flow *repository.StoredFlow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flows[flow.Name] = flow
	return nil
}

func (f *fakeFlowRepo) Update(_ context.Context, flow *repository.StoredFlow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flows[flow.Name] = flow
	return nil
}

func (f *fakeFlowRepo) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.flows, name)
	return nil
}

const feedTreeJSON = `{"type":"feed","url":"https://example.com/feed.xml"}`

func TestRegistry_PutCreatesThenUpdates(t *testing.T) {
	repo := newFakeFlowRepo()
	reg := NewRegistry(repo, pipeline.NewNodeDeps(nil))

	created, err := reg.Put(context.Background(), "news", []byte(feedTreeJSON))
	require.NoError(t, err)
	assert.True(t, created)

	_, ok := reg.Get("news")
	assert.True(t, ok)

	created, err = reg.Put(context.Background(), "news", []byte(feedTreeJSON))
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRegistry_PutRejectsInvalidTree(t *testing.T) {
	repo := newFakeFlowRepo()
	reg := NewRegistry(repo, pipeline.NewNodeDeps(nil))

	_, err := reg.Put(context.Background(), "bad", []byte(`{"type":"cache","ttl":60}`))
	assert.Error(t, err)

	_, ok := reg.Get("bad")
	assert.False(t, ok)
}

func TestRegistry_Load(t *testing.T) {
	repo := newFakeFlowRepo()
	require.NoError(t, repo.Create(context.Background(), &repository.StoredFlow{
		Name: "preloaded", Content: feedTreeJSON,
	}))

	reg := NewRegistry(repo, pipeline.NewNodeDeps(nil))
	require.NoError(t, reg.Load(context.Background()))

	f, ok := reg.Get("preloaded")
	assert.True(t, ok)
	assert.NotNil(t, f)

	f, ok = reg.Flow("preloaded")
	assert.True(t, ok)
	assert.NotNil(t, f)
}

func TestRegistry_Delete(t *testing.T) {
	repo := newFakeFlowRepo()
	reg := NewRegistry(repo, pipeline.NewNodeDeps(nil))

	_, err := reg.Put(context.Background(), "gone", []byte(feedTreeJSON))
	require.NoError(t, err)

	require.NoError(t, reg.Delete(context.Background(), "gone"))
	_, ok := reg.Get("gone")
	assert.False(t, ok)

	// deleting an already-absent flow is not an error
	require.NoError(t, reg.Delete(context.Background(), "gone"))
}

func TestRegistry_GetStoredAndList(t *testing.T) {
	repo := newFakeFlowRepo()
	reg := NewRegistry(repo, pipeline.NewNodeDeps(nil))

	_, err := reg.Put(context.Background(), "news", []byte(feedTreeJSON))
	require.NoError(t, err)

	sf, err := reg.GetStored(context.Background(), "news")
	require.NoError(t, err)
	require.NotNil(t, sf)
	assert.Equal(t, "news", sf.Name)

	list, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
