package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BookingStatus is the lifecycle mark operators put on a booking.
// Any free-form value is accepted; the constants are the ones the bot itself assigns or recognises.
type BookingStatus string

const (
	StatusNew       BookingStatus = "new"
	StatusConfirmed BookingStatus = "confirmed"
)

// Booking represents a persisted reservation.
type Booking struct {
	ID        int           `bson:"id" json:"id"`                 // Store-assigned, monotonically increasing, never reused
	Location  string        `bson:"location" json:"location"`     // Excursion name from the schedule
	Date      string        `bson:"date" json:"date"`             // "DD.MM.YYYY"
	Time      string        `bson:"time" json:"time"`             // "HH:MM"
	People    int           `bson:"people" json:"people"`         // Party size
	UserID    int64         `bson:"user_id" json:"user_id"`       // Requesting user
	Username  string        `bson:"username" json:"username"`     // Optional handle, without "@"
	FirstName string        `bson:"first_name" json:"first_name"` // Optional display name
	ChatID    int64         `bson:"chat_id" json:"chat_id"`       // Chat the booking came from
	CreatedAt time.Time     `bson:"timestamp" json:"timestamp"`   // Store-assigned creation instant
	Status    BookingStatus `bson:"status" json:"status"`
}

// SameSlot reports whether b holds the duplicate tuple (user, location, date, time).
func (b Booking) SameSlot(userID int64, location, date, clock string) bool {
	return b.UserID == userID && b.Location == location && b.Date == date && b.Time == clock
}

// legacyTimestampLayouts covers naive ISO timestamps written without a zone offset.
var legacyTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON accepts the party size as a number or as digits in a string, and the
// timestamp either as RFC 3339 or as a naive ISO value.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	aux := struct {
		*plain
		People    json.RawMessage `json:"people"`
		CreatedAt string          `json:"timestamp"`
	}{plain: (*plain)(b)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	people, err := parsePeople(aux.People)
	if err != nil {
		return fmt.Errorf("booking %d: %w", b.ID, err)
	}
	b.People = people

	b.CreatedAt = time.Time{}
	if aux.CreatedAt != "" {
		ts, err := parseTimestamp(aux.CreatedAt)
		if err != nil {
			return fmt.Errorf("booking %d: %w", b.ID, err)
		}
		b.CreatedAt = ts
	}
	return nil
}

func parsePeople(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid people value %s", raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid people value %q", s)
	}
	return n, nil
}

func parseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts, nil
	}
	for _, layout := range legacyTimestampLayouts {
		if ts, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
}
