package booking

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned by a SessionStore when the user has no active conversation.
var ErrNoSession = errors.New("no active booking session")

const (
	CodeUnexpectedInput = "unexpected_input"
	CodeUnknownLocation = "unknown_location"
	CodeUnknownDate     = "unknown_date"
	CodeDateUnavailable = "date_unavailable"
	CodeUnknownTime     = "unknown_time"
	CodeInvalidPeople   = "invalid_people"
	CodeInvalidPayload  = "invalid_payload"
)

// ValidationError is an input that the current conversation step does not accept.
// The engine answers it with a re-prompt; it never reaches the caller of Handle.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newValidationError(code, msg string) error {
	return &ValidationError{
		Code:    code,
		Message: msg,
	}
}

// storeFailedError marks a confirmation whose booking could not be written. The user is
// re-prompted, so Handle does not surface it.
type storeFailedError struct {
	err error
}

func (e *storeFailedError) Error() string {
	return "store booking: " + e.err.Error()
}

func (e *storeFailedError) Unwrap() error {
	return e.err
}
