package websub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// SubscribeRequester issues the outbound hub subscription/unsubscription
// request. It is not part of the verification state machine spec.md
// scopes, but is the path that sets Subscribed ahead of the hub's
// callback (see statemachine.go doc comment).
type SubscribeRequester struct {
	Client       *http.Client
	CallbackBase string // base URL the hub will POST/GET back to, e.g. "https://example.com/websub"
}

func (r SubscribeRequester) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

// Subscribe POSTs a subscribe request to sub.Hub for sub.Topic and sets
// sub.Subscribed optimistically before any hub confirmation arrives.
func (r SubscribeRequester) Subscribe(ctx context.Context, sub *Subscription, leaseSeconds int64) error {
	form := url.Values{
		"hub.mode":          {"subscribe"},
		"hub.topic":         {sub.Topic},
		"hub.callback":      {fmt.Sprintf("%s/%s", r.CallbackBase, sub.UUID.String())},
		"hub.secret":        {sub.Secret},
		"hub.lease_seconds": {strconv.FormatInt(leaseSeconds, 10)},
	}
	if err := r.post(ctx, sub.Hub, form); err != nil {
		return err
	}
	sub.Subscribed = true
	return nil
}

// Unsubscribe POSTs an unsubscribe request and sets sub.Subscribed to
// false optimistically, mirroring Subscribe.
func (r SubscribeRequester) Unsubscribe(ctx context.Context, sub *Subscription) error {
	form := url.Values{
		"hub.mode":     {"unsubscribe"},
		"hub.topic":    {sub.Topic},
		"hub.callback": {fmt.Sprintf("%s/%s", r.CallbackBase, sub.UUID.String())},
	}
	if err := r.post(ctx, sub.Hub, form); err != nil {
		return err
	}
	sub.Subscribed = false
	return nil
}

func (r SubscribeRequester) post(ctx context.Context, hub string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hub, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = form.Encode()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("websub: hub %s rejected subscription request: status %d", hub, resp.StatusCode)
	}
	return nil
}

// NewSubscription builds a fresh Subscription for a subscribe request,
// generating a time-ordered UUID the way Flow does.
func NewSubscription(flow, topic, hub, secret string) *Subscription {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Subscription{
		UUID:   id,
		Flow:   flow,
		Topic:  topic,
		Hub:    hub,
		Secret: secret,
	}
}
