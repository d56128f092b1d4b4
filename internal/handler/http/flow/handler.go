// Package flow exposes the flow CRUD and Atom-serving HTTP surface:
// GET/PUT/DELETE /api/flow[/:name] and GET /flow/:name.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"flowrunner/internal/feed"
	"flowrunner/internal/handler/http/respond"
	"flowrunner/internal/pipeline"
	"flowrunner/internal/repository"
)

// Registry is the narrow contract the handler needs from
// service/flow.Registry.
type Registry interface {
	Get(name string) (*pipeline.Flow, bool)
	List(ctx context.Context) ([]*repository.StoredFlow, error)
	GetStored(ctx context.Context, name string) (*repository.StoredFlow, error)
	Put(ctx context.Context, name string, content []byte) (created bool, err error)
	Delete(ctx context.Context, name string) error
}

// Handler serves the /api/flow and /flow/:name endpoints.
type Handler struct {
	Registry Registry
}

type listEntry struct {
	Name string          `json:"name"`
	Flow json.RawMessage `json:"flow"`
}

// List handles GET /api/flow.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	stored, err := h.Registry.List(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	entries := make([]listEntry, len(stored))
	for i, sf := range stored {
		entries[i] = listEntry{Name: sf.Name, Flow: json.RawMessage(sf.Content)}
	}
	respond.JSON(w, http.StatusOK, entries)
}

// Get handles GET /api/flow/:name.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	sf, err := h.Registry.GetStored(r.Context(), name)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if sf == nil {
		respond.Error(w, http.StatusNotFound, &pipeline.NotFoundError{Subject: "flow " + name})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sf.Content))
}

// Put handles PUT /api/flow/:name. The body is the serialized node tree;
// 201 on create, 204 on update, 400 if the tree fails to build.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.Registry.Put(r.Context(), name, body)
	if err != nil {
		var buildErr *pipeline.BuildError
		if errors.As(err, &buildErr) {
			respond.Error(w, http.StatusBadRequest, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	if created {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/flow/:name. Idempotent: always 204.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.Registry.Delete(r.Context(), name); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Run handles GET /flow/:name: runs the flow and serves its terminal
// output as an Atom document. 404 if the flow is unknown, 500 on a run
// failure (FetchError, InternalError, etc).
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	f, ok := h.Registry.Get(name)
	if !ok {
		respond.Error(w, http.StatusNotFound, &pipeline.NotFoundError{Subject: "flow " + name})
		return
	}

	data, err := f.Run(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if data == nil || data.Feed == nil {
		respond.SafeError(w, http.StatusInternalServerError,
			&pipeline.InternalError{Msg: "flow produced no output"})
		return
	}

	doc, err := feed.EncodeAtom(data.Feed)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
