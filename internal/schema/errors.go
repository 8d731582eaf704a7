// Package schema defines the shape of the session document and of every
// structured object requested from a backend, and enforces both.
package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrViolation is returned when the session document fails validation.
	ErrViolation = errors.New("schema violation")
	// ErrBackendViolation is returned when a backend object does not match
	// the schema it was requested with.
	ErrBackendViolation = errors.New("backend schema violation")
)

// Error locates a violation inside the validated value.
type Error struct {
	Path   string
	Reason string
	kind   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: field=%s reason=%s", e.kind, e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.kind }

func violation(path, format string, args ...any) *Error {
	return &Error{Path: path, Reason: fmt.Sprintf(format, args...), kind: ErrViolation}
}
