package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/evently-backend/internal/pkg/apperror"
)

func TestLineKey(t *testing.T) {
	key := LineKey{BookingID: uuid.NewString(), ResourceID: uuid.NewString()}

	t.Run("Parse inverts String", func(t *testing.T) {
		parsed, err := ParseLineKey(key.String())
		require.NoError(t, err)
		assert.Equal(t, key, parsed)
	})

	t.Run("JSON uses the textual form", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Key LineKey `json:"key"`
		}{key})
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"`+key.BookingID+`/`+key.ResourceID+`"}`, string(data))

		var decoded struct {
			Key LineKey `json:"key"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, key, decoded.Key)
	})

	t.Run("Rejects malformed keys", func(t *testing.T) {
		for _, s := range []string{
			"",
			key.BookingID,
			key.BookingID + "-" + key.ResourceID,
			"not-a-uuid/" + key.ResourceID,
			key.BookingID + "/not-a-uuid",
		} {
			_, err := ParseLineKey(s)
			assert.ErrorIs(t, err, ErrInvalidLineKey, "input %q", s)
		}
	})
}

func TestInsufficientAvailability(t *testing.T) {
	err := NewInsufficientAvailability("res", 5, 2)

	assert.ErrorIs(t, err, ErrInsufficientAvailability)
	assert.Equal(t, "only 2 available", err.Error())

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Code)

	var ie *InsufficientAvailabilityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 5, ie.Requested)
}

func TestBookingItem(t *testing.T) {
	b := &Booking{Items: []LineItem{{ResourceID: "a", Quantity: 1}, {ResourceID: "b", Quantity: 2}}}

	it, ok := b.Item("b")
	require.True(t, ok)
	assert.Equal(t, 2, it.Quantity)

	_, ok = b.Item("c")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, b.ResourceIDs())
}
