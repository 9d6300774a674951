package models

import "time"

// UserIdentity identifies who is booking and where replies go.
type UserIdentity struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	ChatID    int64  `json:"chatId"`
}

// Draft is an in-progress booking owned by a single conversation.
// Fields are filled strictly in order: Location, Date, Time, People.
type Draft struct {
	Location string       `json:"location,omitempty"`
	Date     string       `json:"date,omitempty"`
	Time     string       `json:"time,omitempty"`
	People   int          `json:"people,omitempty"`
	User     UserIdentity `json:"user"`
}

// Complete reports whether every field required for persistence has been collected.
func (d Draft) Complete() bool {
	return d.Location != "" && d.Date != "" && d.Time != "" && d.People > 0
}

// ToBooking copies the draft into a new booking record with the store-assigned fields.
func (d Draft) ToBooking(id int, createdAt time.Time) Booking {
	return Booking{
		ID:        id,
		Location:  d.Location,
		Date:      d.Date,
		Time:      d.Time,
		People:    d.People,
		UserID:    d.User.UserID,
		Username:  d.User.Username,
		FirstName: d.User.FirstName,
		ChatID:    d.User.ChatID,
		CreatedAt: createdAt,
		Status:    StatusNew,
	}
}
