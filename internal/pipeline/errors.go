// Package pipeline implements the flow execution engine: the node graph,
// its serialized wire form, the dirty-tracking IO slot protocol, and the
// runner that drives a built flow.
package pipeline

import (
	"errors"
	"fmt"
)

// BuildError reports a malformed serialized tree, a type mismatch between
// adjacent nodes, a missing required child, or a fetch request that could
// never be constructed (bad URL, disallowed scheme, SSRF-blocked host).
// Surfaced as 400 on PUT; never retried and never counted against a
// circuit breaker, since retrying the same malformed input changes nothing.
type BuildError struct {
	Msg string
}

func (e *BuildError) Error() string { return "build: " + e.Msg }

// Retryable satisfies retry.Classifier.
func (e *BuildError) Retryable() bool { return false }

// Transient satisfies circuitbreaker.Classifier.
func (e *BuildError) Transient() bool { return false }

// FetchError reports an HTTP failure, timeout, non-2xx status, or malformed
// body encountered by a node's Run. Fatal to that run; surfaced as 500 from
// GET /flow/:name.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// TypeError reports a slot receiving a value of the wrong DataKind. A
// programming error, not a user input error: fail-fast.
type TypeError struct {
	Want, Got DataKind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

// NotFoundError reports an unknown flow name or subscription UUID.
// Surfaced as 404.
type NotFoundError struct {
	Subject string
}

func (e *NotFoundError) Error() string { return e.Subject + " not found" }

// InternalError reports an unreachable-code path or invariant violation.
// Surfaced as 500 with an opaque message.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal: " + e.Msg }

// AuthError reports a WebSub content-distribution notification whose
// X-Hub-Signature (or X-Hub-Signature-256) failed HMAC verification against
// the subscription's secret, or carried no signature at all when one was
// required. Surfaced as 403; never retried.
type AuthError struct {
	Subject string
}

func (e *AuthError) Error() string { return "auth: " + e.Subject }

// Retryable satisfies retry.Classifier: a bad signature won't verify on
// retry.
func (e *AuthError) Retryable() bool { return false }

// Transient satisfies circuitbreaker.Classifier.
func (e *AuthError) Transient() bool { return false }

// PersistenceError reports a store I/O failure: a flow or subscription
// repository call that failed against Postgres. Surfaced as 500.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// StatusCode maps a typed pipeline error to the HTTP status it's documented
// to surface as. Unrecognized errors (including nil) map to 500; callers
// that need a different default for nil should check that case themselves.
func StatusCode(err error) int {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return 400
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return 403
	}
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return 404
	}
	return 500
}
