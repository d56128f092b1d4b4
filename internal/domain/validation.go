// Package domain holds error types shared across the service and handler
// layers that aren't specific to the pipeline engine itself.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a requested flow or subscription does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a field that failed input validation, e.g. an
// empty flow name or a malformed hub URL on a subscribe request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}
