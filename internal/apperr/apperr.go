// Package apperr defines the error taxonomy shared by all services.
// Handlers map Kind to an HTTP status; services never import net/http.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping and logging.
type Kind int

const (
	// KindValidation — missing or malformed input.
	KindValidation Kind = iota
	// KindInvalidOperation — the request is well-formed but the operation is
	// not allowed in the current state (e.g. would drive stock negative).
	KindInvalidOperation
	// KindNotFound — unknown entity id or out-of-tenant access.
	KindNotFound
	// KindConflict — uniqueness or concurrent-state conflict.
	KindConflict
	// KindPersistence — underlying store failure.
	KindPersistence
)

// Error carries a kind plus a human-readable message safe to surface to clients.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidOperation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a store error. The client sees only msg; err stays in logs.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, cause: err}
}

// KindOf extracts the Kind from err, defaulting to KindPersistence for
// anything outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
