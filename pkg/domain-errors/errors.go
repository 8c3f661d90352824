// Package domainerrors defines the coded error taxonomy shared by services
// and the HTTP transport. Services return these; the transport layer is the
// single place that converts them into response envelopes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure for transport mapping and metrics labels.
type Code string

const (
	// CodeInvalidInput marks malformed or missing caller input.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotRegistered marks operations against an identity with no record.
	CodeNotRegistered Code = "not_registered"
	// CodeUnauthorized marks missing or invalid admin credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeProvider marks a failure in the external crypto collaborator.
	CodeProvider Code = "provider_failure"
	// CodeInternal marks any unexpected failure caught at the dispatch boundary.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Message is safe to surface to callers.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a caller-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted caller-facing message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a coded error. The cause is kept for logs and
// errors.Is/As chains but never rendered into the response envelope.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// anything that is not a coded domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
