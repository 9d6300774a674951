package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want Input
	}{
		{"location:Белая Скала", Input{Kind: InputLocation, Value: "Белая Скала"}},
		{"date:20.07.2025", Input{Kind: InputDate, Value: "20.07.2025"}},
		{"time:08:00", Input{Kind: InputTime, Value: "08:00"}},
		{"people:2", Input{Kind: InputPeople, Value: "2"}},
		{"confirm", Input{Kind: InputConfirm}},
		{"cancel", Input{Kind: InputCancel}},
	}
	for _, tc := range tests {
		got, err := ParseCallback(tc.data)
		require.NoError(t, err, tc.data)
		assert.Equal(t, tc.want, got)
	}

	for _, bad := range []string{"", "date:", "seat:4", "confirm_yes", "people"} {
		_, err := ParseCallback(bad)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, bad)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	for _, in := range []Input{
		{Kind: InputDate, Value: "01.08.2025"},
		{Kind: InputTime, Value: "14:00"},
		{Kind: InputConfirm},
		{Kind: InputCancel},
	} {
		got, err := ParseCallback(Payload(in.Kind, in.Value))
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestParseText(t *testing.T) {
	assert.Equal(t, Input{Kind: InputBegin}, ParseText("Забронировать экскурсию"))
	assert.Equal(t, Input{Kind: InputCancel}, ParseText("❌ Отмена"))
	assert.Equal(t, Input{Kind: InputCancel}, ParseText("Отменить"))
	assert.Equal(t, Input{Kind: InputText, Value: "Белая Скала"}, ParseText("  Белая Скала "))
}
