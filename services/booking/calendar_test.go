package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.July, day, hour, minute, 0, 0, msk)
}

func TestDateOptions_TodayExcludedOnceSlotsPassed(t *testing.T) {
	slots := []string{"08:00", "14:00"}

	late := DateOptions(slots, at(18, 15, 0), DateWindow)
	require.Len(t, late, DateWindow-1)
	assert.Equal(t, "19.07.2025", late[0].Date)
	assert.Equal(t, "Завтра (19.07.2025)", late[0].Label)

	early := DateOptions(slots, at(18, 7, 0), DateWindow)
	require.Len(t, early, DateWindow)
	assert.Equal(t, DateOption{Date: "18.07.2025", Label: "Сегодня (18.07.2025)"}, early[0])
	assert.Equal(t, "Завтра (19.07.2025)", early[1].Label)
	assert.Equal(t, "Вс 20.07.2025", early[2].Label)
	assert.Equal(t, "31.07.2025", early[DateWindow-1].Date)
}

func TestDateOptions_SlotAtCurrentMinuteHasPassed(t *testing.T) {
	opts := DateOptions([]string{"08:00", "14:00"}, at(18, 14, 0), DateWindow)
	assert.Equal(t, "19.07.2025", opts[0].Date)
}

func TestDateOptions_CrossesMonthBoundary(t *testing.T) {
	opts := DateOptions([]string{"09:00"}, at(25, 8, 0), DateWindow)
	require.Len(t, opts, DateWindow)
	assert.Equal(t, "Пт 01.08.2025", opts[7].Label)
}

func TestAvailableTimes(t *testing.T) {
	slots := []string{"09:00", "13:00", "17:00"}
	now := at(18, 10, 30)

	tests := []struct {
		name string
		date string
		want []string
	}{
		{"today keeps future slots", "18.07.2025", []string{"13:00", "17:00"}},
		{"future day keeps all", "19.07.2025", []string{"09:00", "13:00", "17:00"}},
		{"past day has none", "17.07.2025", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AvailableTimes(slots, tc.date, now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	late, err := AvailableTimes(slots, "18.07.2025", at(18, 17, 0))
	require.NoError(t, err)
	assert.Empty(t, late)

	_, err = AvailableTimes(slots, "2025-07-18", now)
	assert.Error(t, err)
}

func TestPeopleLabel(t *testing.T) {
	assert.Equal(t, "1 человек", PeopleLabel(1))
	assert.Equal(t, "2 человека", PeopleLabel(2))
	assert.Equal(t, "4 человека", PeopleLabel(4))
	assert.Equal(t, "5 человек", PeopleLabel(5))
	assert.Equal(t, "6 человек", PeopleLabel(6))
}
