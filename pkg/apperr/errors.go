// Package apperr defines the error-kind taxonomy shared across the
// daemon so that HTTP handlers, the worker pool, and the webhook
// engine can map any failure to a canonical outcome without each
// caller re-deriving a status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a coarse error classification, not a concrete error type.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindUnauthorized
	KindNotFound
	KindConflict
	KindBackend
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBackend:
		return "backend"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Status maps a Kind to the canonical HTTP status used at the API
// boundary.
func (k Kind) Status() int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBackend:
		return http.StatusInternalServerError
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error wraps an underlying cause with a Kind for classification at
// call boundaries, without discarding the original error for logging.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err, defaulting to KindUnknown if err
// is not (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

var (
	ErrNotFound     = New(KindNotFound, "not found")
	ErrInvalid      = New(KindInvalid, "invalid input")
	ErrConflict     = New(KindConflict, "conflict")
	ErrUnauthorized = New(KindUnauthorized, "unauthorized")
)
