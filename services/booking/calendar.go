package booking

import (
	"fmt"
	"time"

	"tourbot/models"
)

// DateWindow is how many calendar days, today included, are offered for booking.
const DateWindow = 14

// DateOption is one selectable calendar day.
type DateOption struct {
	Date  string `json:"date"`  // DD.MM.YYYY
	Label string `json:"label"` // what the user sees
}

// DateOptions lists the next days calendar days starting today. Today is left out when every
// slot in times has already passed relative to now.
func DateOptions(times []string, now time.Time, days int) []DateOption {
	today := startOfDay(now)
	options := make([]DateOption, 0, days)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i)
		if i == 0 && len(upcomingSlots(times, day, now)) == 0 {
			continue
		}
		date := day.Format(models.DateLayout)
		var label string
		switch i {
		case 0:
			label = fmt.Sprintf("Сегодня (%s)", date)
		case 1:
			label = fmt.Sprintf("Завтра (%s)", date)
		default:
			label = fmt.Sprintf("%s %s", ruWeekdays[day.Weekday()], date)
		}
		options = append(options, DateOption{Date: date, Label: label})
	}
	return options
}

// AvailableTimes returns the slots of times still bookable on date: all of them for a future
// day, only those strictly after now for today, none for a past day.
func AvailableTimes(times []string, date string, now time.Time) ([]string, error) {
	day, err := time.ParseInLocation(models.DateLayout, date, now.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	today := startOfDay(now)
	switch {
	case day.Before(today):
		return []string{}, nil
	case day.Equal(today):
		return upcomingSlots(times, day, now), nil
	}
	out := make([]string, len(times))
	copy(out, times)
	return out, nil
}

func upcomingSlots(times []string, day, now time.Time) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		hour, minute, err := models.ParseClock(t)
		if err != nil {
			continue
		}
		slot := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
		if slot.After(now) {
			out = append(out, t)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
