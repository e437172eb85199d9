// Package domainerrors provides coded errors that services return and the
// HTTP layer translates. Stores never import this package; they return
// sentinel errors and services attach codes.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the class of failure. The string value is what appears in
// HTTP error envelopes.
type Code string

const (
	// CodeBadRequest covers malformed or invalid input, rejected before any
	// side effect.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound signals a missing entity.
	CodeNotFound Code = "not_found"
	// CodeInvalidState signals an operation attempted from a lifecycle status
	// that does not permit it.
	CodeInvalidState Code = "invalid_state"
	// CodeConflict signals a uniqueness or duplicate violation, e.g. a second
	// completed payment for the same invoice.
	CodeConflict Code = "conflict"
	// CodeUnavailable signals a required external collaborator could not be
	// reached within its deadline.
	CodeUnavailable Code = "unavailable"
	// CodeTimeout signals the operation's own deadline expired.
	CodeTimeout Code = "timeout"
	// CodeInternal is the fallback for unexpected failures. Details are never
	// exposed to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Construct with New or Wrap.
type Error struct {
	code Code
	msg  string
	err  error
}

func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{code: code, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Code() Code { return e.code }

// Message returns the client-safe description.
func (e *Error) Message() string { return e.msg }

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
