// Package domainerrors defines the typed error taxonomy surfaced by component
// operations. Stores return sentinel errors; services translate them into one
// of these codes before the transport layer maps them onto HTTP statuses.
package domainerrors

import "fmt"

// Code identifies an error category. The string value is the wire-level error
// code written into JSON error envelopes.
type Code string

const (
	// CodeValidation covers missing or malformed caller input.
	CodeValidation Code = "validation_error"
	// CodeBadRequest covers requests that cannot be parsed at all.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized covers missing or invalid identity context.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers authenticated callers lacking the required role.
	CodeForbidden Code = "forbidden"
	// CodeNotFound covers references to absent entities.
	CodeNotFound Code = "not_found"
	// CodeConflict covers uniqueness violations such as a duplicate phone number.
	CodeConflict Code = "conflict"
	// CodeInternal covers persistence and other infrastructure failures. The
	// message is logged but never echoed to untrusted callers.
	CodeInternal Code = "internal_error"
)

// Error carries a code and a human-readable message. It optionally wraps an
// underlying cause for logging; the cause never crosses the transport boundary.
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

// Is matches on code only, so errors.Is comparisons ignore message wording.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New builds a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a domain error that records an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate from this package.
func CodeOf(err error) Code {
	for err != nil {
		if de, ok := err.(*Error); ok {
			return de.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return CodeInternal
}

// MessageOf extracts the message from err, or empty for foreign errors.
func MessageOf(err error) string {
	for err != nil {
		if de, ok := err.(*Error); ok {
			return de.Message
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ""
}
