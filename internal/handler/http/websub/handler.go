// Package websub exposes the WebSub subscribe-request endpoint
// (POST /api/flow/:name/subscribe) and delegates the hub-facing push and
// verify endpoints to internal/websub.Receiver.
package websub

import (
	"encoding/json"
	"net/http"

	"flowrunner/internal/handler/http/respond"
)

type subscribeRequest struct {
	Topic  string `json:"topic"`
	Hub    string `json:"hub"`
	Secret string `json:"secret"`
}

// Handler wraps *service/websub.Service to accept new subscribe requests.
// The hub-facing endpoints (POST/GET /websub/:uuid) are served directly by
// *internal/websub.Receiver; this handler only covers the
// subscribe-request supplemental path from §4.H.
type Handler struct {
	Subscribe func(r *http.Request, flow, topic, hub, secret string) error
}

// Create handles POST /api/flow/:name/subscribe.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	flowName := r.PathValue("name")

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Topic == "" || req.Hub == "" || req.Secret == "" {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "topic, hub, and secret are required"})
		return
	}

	if err := h.Subscribe(r, flowName, req.Topic, req.Hub, req.Secret); err != nil {
		respond.SafeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
