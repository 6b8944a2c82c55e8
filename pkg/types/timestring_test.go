package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeString_Validate(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59"}
	for _, s := range valid {
		assert.NoError(t, TimeString(s).Validate(), s)
	}

	invalid := []string{"", "9:30", "24:00", "12:60", "12-30", "ab:cd", "12:345"}
	for _, s := range invalid {
		assert.ErrorIs(t, TimeString(s).Validate(), ErrInvalidTimeFormat, s)
	}
}

func TestTimeString_Minutes(t *testing.T) {
	m, err := TimeString("09:30").Minutes()
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	m, err = TimeString("00:00").Minutes()
	require.NoError(t, err)
	assert.Equal(t, 0, m)
}

func TestTimeString_EndOfDayMinutes(t *testing.T) {
	// "00:00" в позиции времени закрытия означает конец суток
	m, err := TimeString("00:00").EndOfDayMinutes()
	require.NoError(t, err)
	assert.Equal(t, MinutesPerDay, m)

	m, err = TimeString("22:30").EndOfDayMinutes()
	require.NoError(t, err)
	assert.Equal(t, 1350, m)
}

func TestTimeString_AddMinutes(t *testing.T) {
	ts, err := TimeString("09:30").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:00"), ts)

	// Ровно конец суток сворачивается в "00:00"
	ts, err = TimeString("23:30").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("00:00"), ts)

	_, err = TimeString("23:30").AddMinutes(60)
	assert.ErrorIs(t, err, ErrTimeOutOfRange)

	_, err = TimeString("00:30").AddMinutes(-60)
	assert.ErrorIs(t, err, ErrTimeOutOfRange)
}

func TestTimeString_OnDate(t *testing.T) {
	date := time.Date(2026, time.September, 1, 15, 45, 12, 0, time.UTC)

	moment, err := TimeString("09:30").OnDate(date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.September, 1, 9, 30, 0, 0, time.UTC), moment)
}

func TestTimeString_Scan(t *testing.T) {
	t.Run("postgres time with seconds", func(t *testing.T) {
		var ts TimeString
		require.NoError(t, ts.Scan("09:30:00"))
		assert.Equal(t, TimeString("09:30"), ts)
	})

	t.Run("bytes", func(t *testing.T) {
		var ts TimeString
		require.NoError(t, ts.Scan([]byte("18:00")))
		assert.Equal(t, TimeString("18:00"), ts)
	})

	t.Run("nil", func(t *testing.T) {
		var ts TimeString
		require.NoError(t, ts.Scan(nil))
		assert.True(t, ts.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var ts TimeString
		assert.ErrorIs(t, ts.Scan(42), ErrInvalidTimeFormat)
	})
}

func TestNewTimeStringFromMinutes(t *testing.T) {
	ts, err := NewTimeStringFromMinutes(570)
	require.NoError(t, err)
	assert.Equal(t, TimeString("09:30"), ts)

	_, err = NewTimeStringFromMinutes(MinutesPerDay)
	assert.ErrorIs(t, err, ErrTimeOutOfRange)

	_, err = NewTimeStringFromMinutes(-1)
	assert.ErrorIs(t, err, ErrTimeOutOfRange)
}
