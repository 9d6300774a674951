package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedule(t *testing.T) {
	s, err := NewSchedule([]Location{
		{Name: "Белая Скала", Times: []string{"08:00", "14:00"}},
		{Name: "Вершины Феодосии", Times: []string{"09:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Белая Скала", "Вершины Феодосии"}, s.Names())
	assert.True(t, s.Has("Белая Скала"))
	assert.False(t, s.Has("белая скала"))

	times, ok := s.Times("Белая Скала")
	require.True(t, ok)
	times[0] = "23:59"
	again, _ := s.Times("Белая Скала")
	assert.Equal(t, "08:00", again[0], "Times must return a copy")
}

func TestNewSchedule_Invalid(t *testing.T) {
	cases := map[string][]Location{
		"empty":          nil,
		"no name":        {{Times: []string{"08:00"}}},
		"duplicate":      {{Name: "A", Times: []string{"08:00"}}, {Name: "A", Times: []string{"09:00"}}},
		"no slots":       {{Name: "A"}},
		"hour too large": {{Name: "A", Times: []string{"24:00"}}},
		"single digit":   {{Name: "A", Times: []string{"8:00"}}},
		"signed":         {{Name: "A", Times: []string{"+8:00"}}},
	}
	for name, locs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewSchedule(locs)
			assert.Error(t, err)
		})
	}
}

func TestBooking_UnmarshalLegacyRecord(t *testing.T) {
	raw := `{
		"location": "Белая Скала",
		"date": "20.07.2025",
		"time": "08:00",
		"people": "2",
		"user_id": 111,
		"username": null,
		"first_name": "Иван",
		"chat_id": 111,
		"id": 1,
		"timestamp": "2025-07-18T10:15:30.123456",
		"status": "new"
	}`

	var b Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, 2, b.People)
	assert.Equal(t, "", b.Username)
	assert.Equal(t, StatusNew, b.Status)
	assert.Equal(t, 2025, b.CreatedAt.Year())
	assert.Equal(t, 15, b.CreatedAt.Minute())
}

func TestBooking_JSONKeepsFieldNames(t *testing.T) {
	created := time.Date(2025, 7, 18, 10, 0, 0, 0, time.UTC)
	b := Draft{
		Location: "Белая Скала",
		Date:     "20.07.2025",
		Time:     "08:00",
		People:   3,
		User:     UserIdentity{UserID: 111, Username: "ivan", FirstName: "Иван", ChatID: 111},
	}.ToBooking(7, created)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "location", "date", "time", "people", "user_id", "username", "first_name", "chat_id", "timestamp", "status"} {
		assert.Contains(t, fields, key)
	}

	var back Booking
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b.ID, back.ID)
	assert.True(t, created.Equal(back.CreatedAt))
	assert.Equal(t, StatusNew, back.Status)
}

func TestBooking_UnmarshalRejectsGarbagePeople(t *testing.T) {
	var b Booking
	assert.Error(t, json.Unmarshal([]byte(`{"id": 3, "people": "many"}`), &b))
}
