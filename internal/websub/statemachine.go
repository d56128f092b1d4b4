package websub

import (
	"errors"
	"time"
)

// ErrNoChange signals that the incoming verification callback matched no
// transition in the table (wrong mode for the current state, or a topic
// mismatch); the caller must respond 400 without mutating the record.
var ErrNoChange = errors.New("websub: verification callback does not match a valid transition")

// VerifyCallback is the hub's verification-callback request, parsed.
type VerifyCallback struct {
	Mode         Mode
	Topic        string
	Challenge    string
	LeaseSeconds int64
}

// VerifyResult describes how Verify wants the caller to respond and mutate
// the stored record. Delete is true only for a confirmed unsubscribe.
type VerifyResult struct {
	Challenge string
	Delete    bool
}

// Verify applies the hub verification-callback transition table (spec
// §4.H) to sub for the given callback. now is injected for testability.
// sub is mutated in place on a confirmed subscribe (LeaseEnd is advanced);
// on a confirmed unsubscribe the caller deletes the record per
// result.Delete rather than Verify doing it, since deletion is a
// repository concern.
func Verify(sub *Subscription, cb VerifyCallback, now time.Time) (VerifyResult, error) {
	topicMatch := sub.Topic == cb.Topic

	switch cb.Mode {
	case ModeSubscribe:
		if !sub.Subscribed || !topicMatch {
			return VerifyResult{}, ErrNoChange
		}
		sub.LeaseEnd = now.Add(time.Duration(cb.LeaseSeconds) * time.Second)
		return VerifyResult{Challenge: cb.Challenge}, nil

	case ModeUnsubscribe:
		if sub.Subscribed || !topicMatch {
			return VerifyResult{}, ErrNoChange
		}
		return VerifyResult{Challenge: cb.Challenge, Delete: true}, nil

	default:
		return VerifyResult{}, ErrNoChange
	}
}
