package capture

import (
	"errors"
	"fmt"
)

// Application error codes. These map the capture error taxonomy onto
// machine-readable codes the caller can branch on.
const (
	EINVALID     = "invalid"     // wrong input shape or unparsable input
	ENOTFOUND    = "not_found"   // no usable content / unknown provider
	ETIMEOUT     = "timeout"     // network call exceeded its deadline
	EUNAVAILABLE = "unavailable" // required external capability missing
	EUNSUPPORTED = "unsupported" // requested target/format not available
	EINTERNAL    = "internal"    // network failure or unexpected condition
)

// Error represents an application error with a machine-readable code and
// a human-readable message.
type Error struct {
	// Code is one of the E* constants above.
	Code string

	// Message is a descriptive, user-facing message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("capture error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper to construct an *Error with formatting.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL; nil returns "".
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors return a generic message; nil returns "".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
