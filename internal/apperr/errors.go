package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-checkable error category.
type Kind int

const (
	// KindUnknown covers unexpected failures (store errors and the like)
	KindUnknown Kind = iota
	// KindUnauthorized covers bad credentials and invalid, expired or
	// replayed tokens
	KindUnauthorized
	// KindForbidden covers ownership and publication-state violations
	KindForbidden
	// KindNotFound covers missing users, posts and relationship targets
	KindNotFound
	// KindConflict covers duplicate registrations and expired edit windows
	KindConflict
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error carries an error kind plus a human-readable reason. The reason is
// safe to surface to clients; internal detail stays in the wrapped cause.
type Error struct {
	Kind   Kind
	Reason string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// E creates a new error of the given kind
func E(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Unauthorized creates a KindUnauthorized error
func Unauthorized(reason string) *Error { return E(KindUnauthorized, reason) }

// Forbidden creates a KindForbidden error
func Forbidden(reason string) *Error { return E(KindForbidden, reason) }

// NotFound creates a KindNotFound error
func NotFound(reason string) *Error { return E(KindNotFound, reason) }

// Conflict creates a KindConflict error
func Conflict(reason string) *Error { return E(KindConflict, reason) }

// KindOf extracts the kind from an error chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf extracts the client-safe reason from an error chain
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal error"
}
