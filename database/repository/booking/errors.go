package bookingRepo

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateBooking is returned when the (user, location, date, time) tuple is already booked.
	ErrDuplicateBooking = errors.New("booking already exists for this user, location, date and time")
	// ErrIncompleteDraft is returned when a draft is missing a field required for persistence.
	ErrIncompleteDraft = errors.New("draft is incomplete")

	errUnparsable = errors.New("bookings file is not valid JSON")
)

// PersistenceError wraps a failure to read or write durable storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("booking store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
