package flow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowrunner/internal/pipeline"
	"flowrunner/internal/repository"
)

type fakeRegistry struct {
	stored    map[string]*repository.StoredFlow
	listErr   error
	putErr    error
	deleteErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{stored: make(map[string]*repository.StoredFlow)}
}

func (f *fakeRegistry) Get(name string) (*pipeline.Flow, bool) { return nil, false }

func (f *fakeRegistry) List(ctx context.Context) ([]*repository.StoredFlow, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*repository.StoredFlow, 0, len(f.stored))
	for _, sf := range f.stored {
		out = append(out, sf)
	}
	return out, nil
}

func (f *fakeRegistry) GetStored(ctx context.Context, name string) (*repository.StoredFlow, error) {
	return f.stored[name], nil
}

func (f *fakeRegistry) Put(ctx context.Context, name string, content []byte) (bool, error) {
	if f.putErr != nil {
		return false, f.putErr
	}
	_, existed := f.stored[name]
	f.stored[name] = &repository.StoredFlow{Name: name, Content: string(content)}
	return !existed, nil
}

func (f *fakeRegistry) Delete(ctx context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.stored, name)
	return nil
}

func newRequestWithPathValue(method, target, name string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.SetPathValue("name", name)
	return req
}

func TestHandler_GetNotFound(t *testing.T) {
	h := &Handler{Registry: newFakeRegistry()}
	req := newRequestWithPathValue(http.MethodGet, "/api/flow/missing", "missing", "")
	rr := httptest.NewRecorder()

	h.Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_PutCreateThenUpdate(t *testing.T) {
	reg := newFakeRegistry()
	h := &Handler{Registry: reg}

	body := `{"type":"feed","url":"https://example.com/feed.xml"}`
	req := newRequestWithPathValue(http.MethodPut, "/api/flow/news", "news", body)
	rr := httptest.NewRecorder()
	h.Put(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = newRequestWithPathValue(http.MethodPut, "/api/flow/news", "news", body)
	rr = httptest.NewRecorder()
	h.Put(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHandler_DeleteIsIdempotent(t *testing.T) {
	reg := newFakeRegistry()
	h := &Handler{Registry: reg}

	req := newRequestWithPathValue(http.MethodDelete, "/api/flow/news", "news", "")
	rr := httptest.NewRecorder()
	h.Delete(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = newRequestWithPathValue(http.MethodDelete, "/api/flow/news", "news", "")
	rr = httptest.NewRecorder()
	h.Delete(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHandler_List(t *testing.T) {
	reg := newFakeRegistry()
	reg.stored["news"] = &repository.StoredFlow{Name: "news", Content: `{"type":"feed","url":"https://example.com/feed.xml"}`}
	h := &Handler{Registry: reg}

	req := httptest.NewRequest(http.MethodGet, "/api/flow", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "news")
}
