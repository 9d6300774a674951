package notification

import (
	"fmt"
	"strings"

	"tourbot/models"
)

// UserLabel renders who made a booking: "@handle (Name)", falling back to whichever part is known.
func UserLabel(b models.Booking) string {
	switch {
	case b.Username != "" && b.FirstName != "":
		return fmt.Sprintf("@%s (%s)", b.Username, b.FirstName)
	case b.Username != "":
		return "@" + b.Username
	case b.FirstName != "":
		return b.FirstName
	}
	return fmt.Sprintf("id %d", b.UserID)
}

// BookingDetails is the multi-line description shared by the user confirmation and the
// operator message.
func BookingDetails(b models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID: #%d\n", b.ID)
	fmt.Fprintf(&sb, "Локация: %s\n", b.Location)
	fmt.Fprintf(&sb, "Дата: %s\n", b.Date)
	fmt.Fprintf(&sb, "Время: %s\n", b.Time)
	fmt.Fprintf(&sb, "Количество человек: %d\n", b.People)
	fmt.Fprintf(&sb, "Пользователь: %s", UserLabel(b))
	return sb.String()
}

func OperatorMessage(b models.Booking) string {
	return fmt.Sprintf("🚗 НОВОЕ БРОНИРОВАНИЕ ДЖИП-ТУРА #%d\n\n%s", b.ID, BookingDetails(b))
}
