package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudEvent_Envelope(t *testing.T) {
	ce, err := NewCloudEvent("service-booking", "booking.created", map[string]any{"bookingId": "b-1", "totalPrice": 30000})
	require.NoError(t, err)
	ce = ce.WithSubject("b-1")

	assert.Equal(t, "1.0", ce.SpecVersion)
	assert.Equal(t, "application/json", ce.DataContentType)
	assert.NotEmpty(t, ce.ID)
	assert.False(t, ce.Time.IsZero())

	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"specversion":"1.0"`)
	assert.Contains(t, string(raw), `"subject":"b-1"`)

	parsed, err := ParseCloudEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ce.ID, parsed.ID)

	var data struct {
		BookingID  string `json:"bookingId"`
		TotalPrice int64  `json:"totalPrice"`
	}
	require.NoError(t, parsed.ParseData(&data))
	assert.Equal(t, "b-1", data.BookingID)
	assert.Equal(t, int64(30000), data.TotalPrice)
}

func TestParseCloudEvent_Rejects(t *testing.T) {
	_, err := ParseCloudEvent([]byte("nope"))
	assert.Error(t, err)

	_, err = ParseCloudEvent([]byte(`{"specversion":"1.0","id":"x"}`))
	assert.ErrorContains(t, err, "missing type")
}

func TestWithSubject_DoesNotMutateOriginal(t *testing.T) {
	ce, err := NewCloudEvent("s", "t", nil)
	require.NoError(t, err)
	_ = ce.WithSubject("other")
	assert.Empty(t, ce.Subject)
}
