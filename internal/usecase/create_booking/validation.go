package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.ClubID <= 0 {
		return fmt.Errorf("%w: clubID must be positive", ErrInvalidInput)
	}

	if req.CourtID <= 0 {
		return fmt.Errorf("%w: courtID must be positive", ErrInvalidInput)
	}

	if req.StartsAt.IsZero() || req.EndsAt.IsZero() {
		return fmt.Errorf("%w: startsAt and endsAt are required", ErrInvalidInput)
	}

	if !req.StartsAt.Before(req.EndsAt) {
		return fmt.Errorf("%w: startsAt must be before endsAt", ErrInvalidTimeSlot)
	}

	if err := validateAlignment(req.StartsAt); err != nil {
		return err
	}
	if err := validateAlignment(req.EndsAt); err != nil {
		return err
	}

	// Бронирование не может пересекать границу суток: сетка занятости
	// строится на один день
	if !sameDay(req.StartsAt, req.EndsAt) && !endsAtMidnight(req.StartsAt, req.EndsAt) {
		return fmt.Errorf("%w: booking must not cross the day boundary", ErrInvalidTimeSlot)
	}

	if len(req.Participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrInvalidInput)
	}

	for _, p := range req.Participants {
		if p.ClientID <= 0 {
			return fmt.Errorf("%w: participant client id must be positive", ErrInvalidInput)
		}
	}

	return nil
}

// validateAlignment проверяет выравнивание момента по сетке слотов
func validateAlignment(t time.Time) error {
	if t.Second() != 0 || t.Nanosecond() != 0 || t.Minute()%domain.SlotUnitMinutes != 0 {
		return fmt.Errorf("%w: %s is not aligned to %d-minute grid",
			ErrInvalidTimeSlot, t.Format(time.RFC3339), domain.SlotUnitMinutes)
	}
	return nil
}

// sameDay проверяет, что два момента относятся к одним суткам
func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// endsAtMidnight допускает конец ровно в полночь следующего дня
// (закрытие "00:00" = 24:00)
func endsAtMidnight(start, end time.Time) bool {
	next := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()).AddDate(0, 0, 1)
	return end.Equal(next)
}
