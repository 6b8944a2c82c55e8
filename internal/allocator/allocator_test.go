package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/pkg/ptr"
)

var testDay = time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func openDay(open, close string) clubservice.DaySchedule {
	return clubservice.DaySchedule{
		IsOpen:    true,
		OpenTime:  ptr.Ptr(open),
		CloseTime: ptr.Ptr(close),
	}
}

func booking(id int64, start, end time.Time, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:       id,
		ClubID:   1,
		CourtID:  1,
		StartsAt: start,
		EndsAt:   end,
		Status:   status,
	}
}

func TestNewDay_InvalidSchedule(t *testing.T) {
	t.Run("open after close", func(t *testing.T) {
		_, err := NewDay(testDay, openDay("18:00", "09:00"), nil)
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("malformed open time", func(t *testing.T) {
		_, err := NewDay(testDay, openDay("9am", "18:00"), nil)
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("midnight close means end of day", func(t *testing.T) {
		day, err := NewDay(testDay, openDay("06:00", "00:00"), nil)
		require.NoError(t, err)

		free, err := day.IsRangeFree(at(23, 0), at(24, 0))
		require.NoError(t, err)
		assert.True(t, free)
	})
}

func TestIsRangeFree(t *testing.T) {
	bookings := []*domain.Booking{
		booking(1, at(10, 0), at(11, 0), domain.StatusScheduled),
	}

	day, err := NewDay(testDay, openDay("06:00", "00:00"), bookings)
	require.NoError(t, err)

	t.Run("overlapping range is busy", func(t *testing.T) {
		free, err := day.IsRangeFree(at(10, 30), at(11, 0))
		require.NoError(t, err)
		assert.False(t, free)
	})

	t.Run("adjacent range is free", func(t *testing.T) {
		free, err := day.IsRangeFree(at(11, 0), at(12, 0))
		require.NoError(t, err)
		assert.True(t, free)
	})

	t.Run("range before opening is busy", func(t *testing.T) {
		free, err := day.IsRangeFree(at(5, 0), at(6, 0))
		require.NoError(t, err)
		assert.False(t, free)
	})

	t.Run("misaligned start is a validation error", func(t *testing.T) {
		_, err := day.IsRangeFree(at(10, 15), at(11, 0))
		assert.ErrorIs(t, err, ErrMisalignedRange)
	})

	t.Run("inverted range is a validation error", func(t *testing.T) {
		_, err := day.IsRangeFree(at(11, 0), at(10, 0))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("canceled booking releases the slot", func(t *testing.T) {
		canceled := []*domain.Booking{
			booking(2, at(10, 0), at(11, 0), domain.StatusCanceled),
		}
		day, err := NewDay(testDay, openDay("06:00", "00:00"), canceled)
		require.NoError(t, err)

		free, err := day.IsRangeFree(at(10, 0), at(11, 0))
		require.NoError(t, err)
		assert.True(t, free)
	})

	t.Run("absent booking keeps the slot", func(t *testing.T) {
		absent := []*domain.Booking{
			booking(3, at(10, 0), at(11, 0), domain.StatusAbsent),
		}
		day, err := NewDay(testDay, openDay("06:00", "00:00"), absent)
		require.NoError(t, err)

		free, err := day.IsRangeFree(at(10, 0), at(11, 0))
		require.NoError(t, err)
		assert.False(t, free)
	})

	t.Run("closed day - everything busy", func(t *testing.T) {
		day, err := NewDay(testDay, clubservice.DaySchedule{IsOpen: false}, nil)
		require.NoError(t, err)

		free, err := day.IsRangeFree(at(10, 0), at(11, 0))
		require.NoError(t, err)
		assert.False(t, free)
	})
}

func TestMaxFreeEndFrom(t *testing.T) {
	bookings := []*domain.Booking{
		booking(1, at(10, 0), at(11, 0), domain.StatusScheduled),
		booking(2, at(13, 0), at(14, 0), domain.StatusConfirmed),
	}

	day, err := NewDay(testDay, openDay("06:00", "00:00"), bookings)
	require.NoError(t, err)

	t.Run("extends until next booking", func(t *testing.T) {
		end, ok, err := day.MaxFreeEndFrom(at(11, 0))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, at(13, 0), end)
	})

	t.Run("extends until closing", func(t *testing.T) {
		end, ok, err := day.MaxFreeEndFrom(at(14, 0))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, at(24, 0), end)
	})

	t.Run("busy start - not available", func(t *testing.T) {
		_, ok, err := day.MaxFreeEndFrom(at(10, 30))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("misaligned start is an error", func(t *testing.T) {
		_, _, err := day.MaxFreeEndFrom(at(10, 45))
		assert.ErrorIs(t, err, ErrMisalignedRange)
	})
}

func TestFreeIntervals(t *testing.T) {
	t.Run("holes between bookings, trimmed by working hours", func(t *testing.T) {
		bookings := []*domain.Booking{
			booking(1, at(10, 0), at(11, 0), domain.StatusScheduled),
			booking(2, at(13, 0), at(14, 30), domain.StatusInProgress),
		}

		day, err := NewDay(testDay, openDay("09:00", "18:00"), bookings)
		require.NoError(t, err)

		intervals := day.FreeIntervals()
		require.Len(t, intervals, 3)

		assert.Equal(t, domain.TimeRange{Start: at(9, 0), End: at(10, 0)}, intervals[0])
		assert.Equal(t, domain.TimeRange{Start: at(11, 0), End: at(13, 0)}, intervals[1])
		assert.Equal(t, domain.TimeRange{Start: at(14, 30), End: at(18, 0)}, intervals[2])
	})

	t.Run("no bookings - whole working day", func(t *testing.T) {
		day, err := NewDay(testDay, openDay("09:00", "18:00"), nil)
		require.NoError(t, err)

		intervals := day.FreeIntervals()
		require.Len(t, intervals, 1)
		assert.Equal(t, domain.TimeRange{Start: at(9, 0), End: at(18, 0)}, intervals[0])
	})

	t.Run("fully booked day - no intervals", func(t *testing.T) {
		bookings := []*domain.Booking{
			booking(1, at(9, 0), at(18, 0), domain.StatusScheduled),
		}

		day, err := NewDay(testDay, openDay("09:00", "18:00"), bookings)
		require.NoError(t, err)

		assert.Empty(t, day.FreeIntervals())
	})

	t.Run("closed day - no intervals", func(t *testing.T) {
		day, err := NewDay(testDay, clubservice.DaySchedule{IsOpen: false}, nil)
		require.NoError(t, err)

		assert.Empty(t, day.FreeIntervals())
	})

	t.Run("booking crossing the closing edge cuts interval at close", func(t *testing.T) {
		bookings := []*domain.Booking{
			booking(1, at(17, 0), at(19, 0), domain.StatusScheduled),
		}

		day, err := NewDay(testDay, openDay("09:00", "18:00"), bookings)
		require.NoError(t, err)

		intervals := day.FreeIntervals()
		require.Len(t, intervals, 1)
		assert.Equal(t, domain.TimeRange{Start: at(9, 0), End: at(17, 0)}, intervals[0])
	})
}

func TestDayScheduleFor(t *testing.T) {
	week := clubservice.WeekSchedule{
		Monday: openDay("09:00", "18:00"),
		Sunday: clubservice.DaySchedule{IsOpen: false},
	}

	monday := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC)

	assert.True(t, DayScheduleFor(week, monday).IsOpen)
	assert.False(t, DayScheduleFor(week, sunday).IsOpen)
}
