package websub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"flowrunner/internal/pipeline"

	"github.com/google/uuid"
)

// SubscriptionStore is the narrow persistence contract the receiver needs.
// The concrete implementation lives in internal/infra/adapter/persistence.
type SubscriptionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrSubscriptionNotFound is returned by SubscriptionStore.Get for an
// unknown UUID.
var ErrSubscriptionNotFound = errors.New("websub: subscription not found")

// FlowLookup resolves a subscription's flow by name to a runnable Flow.
type FlowLookup interface {
	Flow(name string) (*pipeline.Flow, bool)
}

// Receiver implements the §4.G push endpoint and the §4.H verification
// endpoint against a SubscriptionStore and FlowLookup.
type Receiver struct {
	Subs     SubscriptionStore
	Flows    FlowLookup
	Verifier Verifier
	Logger   *slog.Logger

	// Now defaults to time.Now when nil; overridden in tests.
	Now func() time.Time
}

func (h *Receiver) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Receiver) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Push handles POST /websub/:uuid: a signed push notification carrying a
// new feed body for the subscription's flow.
func (h *Receiver) Push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		// An unparseable UUID is indistinguishable from an unknown one:
		// respond 200 to avoid leaking subscription presence either way.
		w.WriteHeader(http.StatusOK)
		return
	}

	sub, err := h.Subs.Get(ctx, id)
	if errors.Is(err, ErrSubscriptionNotFound) {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		h.logger().Error("websub push: subscription lookup failed", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	header := r.Header.Get("X-Hub-Signature")
	ok, verr := h.Verifier.Verify(header, body, sub.Secret)
	if verr != nil {
		// Malformed header, unknown algorithm, and a disabled sha1 all fail
		// the same way a wrong signature does: 403, never revealing which.
		authErr := &pipeline.AuthError{Subject: "websub signature"}
		h.logger().Warn("websub push: signature rejected", slog.String("uuid", id.String()), slog.Any("error", verr))
		w.WriteHeader(pipeline.StatusCode(authErr))
		return
	}
	if !ok {
		authErr := &pipeline.AuthError{Subject: "websub signature"}
		h.logger().Warn("websub push: signature mismatch", slog.String("uuid", id.String()))
		w.WriteHeader(pipeline.StatusCode(authErr))
		return
	}

	flow, found := h.Flows.Flow(sub.Flow)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	in := flow.InputOfKind(pipeline.DataKindWebSub)
	if in == nil {
		// No WebSub-kind input slot on this flow: nothing to deliver into.
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := in.Accept(pipeline.WebSubData(body)); err != nil {
		h.logger().Error("websub push: input slot rejected push body", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if _, err := flow.Run(ctx); err != nil {
		h.logger().Error("websub push: flow run failed", slog.String("flow", sub.Flow), slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Verify handles GET /websub/:uuid: the hub's verification-callback
// request, per the §4.H transition table.
func (h *Receiver) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	sub, err := h.Subs.Get(ctx, id)
	if errors.Is(err, ErrSubscriptionNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger().Error("websub verify: subscription lookup failed", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	var leaseSeconds int64
	if ls := q.Get("hub.lease_seconds"); ls != "" {
		leaseSeconds, _ = strconv.ParseInt(ls, 10, 64)
	}
	cb := VerifyCallback{
		Mode:         Mode(q.Get("hub.mode")),
		Topic:        q.Get("hub.topic"),
		Challenge:    q.Get("hub.challenge"),
		LeaseSeconds: leaseSeconds,
	}

	result, err := Verify(sub, cb, h.now())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if result.Delete {
		if err := h.Subs.Delete(ctx, id); err != nil {
			h.logger().Error("websub verify: delete failed", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	} else {
		if err := h.Subs.Update(ctx, sub); err != nil {
			h.logger().Error("websub verify: update failed", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Challenge))
}
