// Package websub implements the WebSub push-subscription subsystem: the
// subscription lifecycle, HMAC signature verification of pushed payloads,
// and the hub verification-callback state machine.
package websub

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the persistent record of one flow's WebSub subscription
// to an upstream hub/topic pair.
type Subscription struct {
	UUID       uuid.UUID
	Flow       string
	Topic      string
	Hub        string
	Secret     string
	Subscribed bool
	LeaseEnd   time.Time
}

// State is the subscription's position in the hub verification lifecycle.
// It is derived from Subscribed, never stored directly: Pending states are
// indistinguishable from their settled counterpart until a verification
// callback arrives, since the subscribe/unsubscribe request path (outside
// this package) is what flips Subscribed ahead of the hub's confirmation.
type State int

const (
	StatePendingSubscribe State = iota
	StateActive
	StatePendingUnsubscribe
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StatePendingSubscribe:
		return "pending_subscribe"
	case StateActive:
		return "active"
	case StatePendingUnsubscribe:
		return "pending_unsubscribe"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Mode is the hub verification callback's hub.mode parameter.
type Mode string

const (
	ModeSubscribe   Mode = "subscribe"
	ModeUnsubscribe Mode = "unsubscribe"
)
