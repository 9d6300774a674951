package bookingRepo

import (
	"context"

	"tourbot/models"
)

// BookingRepository is the durable collection of bookings.
//
// Implementations own id assignment and guarantee that no two bookings share the
// (user, location, date, time) tuple.
type BookingRepository interface {
	// AppendIfAbsent checks for a duplicate tuple and appends the draft as a new booking
	// inside a single critical section. It returns ErrDuplicateBooking when the tuple exists.
	// It is the only way to add a booking.
	AppendIfAbsent(ctx context.Context, draft models.Draft) (*models.Booking, error)
	// ListAll returns a snapshot of every booking in insertion order.
	ListAll(ctx context.Context) ([]models.Booking, error)
	// ListByDate returns bookings whose date equals date exactly.
	ListByDate(ctx context.Context, date string) ([]models.Booking, error)
	// Exists reports whether a booking holds the given tuple.
	Exists(ctx context.Context, userID int64, location, date, clock string) (bool, error)
	// UpdateStatus sets the status of booking id and reports whether it was found.
	UpdateStatus(ctx context.Context, id int, status models.BookingStatus) (bool, error)
	// DeleteByID removes booking id and reports whether it was found.
	DeleteByID(ctx context.Context, id int) (bool, error)
	// DeleteAll empties the collection.
	DeleteAll(ctx context.Context) error
}
