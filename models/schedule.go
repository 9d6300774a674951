package models

import (
	"fmt"
	"strconv"
)

const (
	// DateLayout is the calendar-day format used in drafts, bookings and button payloads.
	DateLayout = "02.01.2006"
	// ClockLayout is the time-of-day format of schedule slots.
	ClockLayout = "15:04"
)

// Location is one excursion and its daily departure times.
type Location struct {
	Name  string   `mapstructure:"name" json:"name" yaml:"name"`
	Times []string `mapstructure:"times" json:"times" yaml:"times"`
}

// Schedule maps excursion names to their time slots. It is read-only once built.
type Schedule struct {
	locations []Location
	byName    map[string][]string
}

// NewSchedule validates locs and builds a schedule preserving their order.
func NewSchedule(locs []Location) (*Schedule, error) {
	if len(locs) == 0 {
		return nil, fmt.Errorf("schedule: no locations configured")
	}
	s := &Schedule{
		locations: make([]Location, 0, len(locs)),
		byName:    make(map[string][]string, len(locs)),
	}
	for _, loc := range locs {
		if loc.Name == "" {
			return nil, fmt.Errorf("schedule: location with empty name")
		}
		if _, dup := s.byName[loc.Name]; dup {
			return nil, fmt.Errorf("schedule: duplicate location %q", loc.Name)
		}
		if len(loc.Times) == 0 {
			return nil, fmt.Errorf("schedule: location %q has no time slots", loc.Name)
		}
		times := make([]string, len(loc.Times))
		for i, t := range loc.Times {
			if _, _, err := ParseClock(t); err != nil {
				return nil, fmt.Errorf("schedule: location %q: %w", loc.Name, err)
			}
			times[i] = t
		}
		s.locations = append(s.locations, Location{Name: loc.Name, Times: times})
		s.byName[loc.Name] = times
	}
	return s, nil
}

// Names returns the location names in display order.
func (s *Schedule) Names() []string {
	names := make([]string, len(s.locations))
	for i, loc := range s.locations {
		names[i] = loc.Name
	}
	return names
}

// Has reports whether name is a configured location (exact match).
func (s *Schedule) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Times returns a copy of the slots for name.
func (s *Schedule) Times(name string) ([]string, bool) {
	times, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(times))
	copy(out, times)
	return out, true
}

// ParseClock parses a strict 24-hour "HH:MM" value.
func ParseClock(v string) (hour, minute int, err error) {
	if len(v) != 5 || v[2] != ':' || !IsDigits(v[:2]) || !IsDigits(v[3:]) {
		return 0, 0, fmt.Errorf("invalid time slot %q: want HH:MM", v)
	}
	hour, errH := strconv.Atoi(v[:2])
	minute, errM := strconv.Atoi(v[3:])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time slot %q: want HH:MM", v)
	}
	return hour, minute, nil
}

// IsDigits reports whether v is non-empty and made of ASCII digits only.
func IsDigits(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}
