// Package domerrors defines coded errors shared across service and transport
// layers. Services return these so handlers can map failures to HTTP responses
// without inspecting free-form error strings.
package domerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping.
type Code string

const (
	// CodeValidation marks input that failed field-level validation. These are
	// recovered locally and rendered inline, never as notifications.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks requests that could not be parsed at all.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks lookups for records the panel does not know about.
	CodeNotFound Code = "not_found"
	// CodeConflict marks operations rejected because of concurrent state,
	// such as a submit while another submit is still in flight.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks transport failures against the remote record
	// store. All non-2xx responses and network errors collapse into this.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks defects. The message is logged, never surfaced.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code to an underlying error, preserving its chain.
func Wrap(code Code, message string, err error) error {
	return fmt.Errorf("%w: %w", &Error{Code: code, Message: message}, err)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal so uncoded
// failures are treated as defects rather than leaked to users.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the domain message of err, or fallback when err carries
// none. Used where a user-facing notification needs text.
func MessageOf(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
