package domain

import "time"

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	StatusScheduled  BookingStatus = "scheduled"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusFinished   BookingStatus = "finished"
	StatusCanceled   BookingStatus = "canceled"
	StatusAbsent     BookingStatus = "absent"
)

// Booking represents a court reservation in the system
type Booking struct {
	ID       int64
	ClubID   int64
	CourtID  int64
	StartsAt time.Time // выровнен по границе слота (30 минут)
	EndsAt   time.Time
	Status   BookingStatus
	Modality string // вид спорта (padel, tennis, ...)

	// AutoDisabled отключает автоматические переходы статуса для этого
	// бронирования. Выставляется при ручных изменениях статуса пользователем.
	AutoDisabled bool

	CanceledBy         *int64
	CanceledAt         *time.Time
	CancellationReason *string
	Notes              *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still occupies its slot
// (canceled bookings release the slot, absent ones keep it for history)
func (b *Booking) IsActive() bool {
	return b.Status != StatusCanceled
}

// IsTerminal returns true if the booking reached a terminal status
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCanceled || b.Status == StatusAbsent
}

// IsAutomatable returns true if the scheduler may advance this booking
func (b *Booking) IsAutomatable() bool {
	if b.AutoDisabled || b.IsTerminal() {
		return false
	}
	return b.Status == StatusScheduled || b.Status == StatusConfirmed || b.Status == StatusInProgress
}

// CanBeCanceled returns true if a user may cancel the booking
func (b *Booking) CanBeCanceled() bool {
	return !b.IsTerminal() && b.Status != StatusFinished
}

// Overlaps returns true if the [StartsAt, EndsAt) ranges of two bookings
// intersect. Touching boundaries do not count as an overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	return b.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(b.EndsAt)
}

// StatusUpdate опциональные поля, записываемые вместе со сменой статуса
type StatusUpdate struct {
	AutoDisabled       *bool
	CanceledBy         *int64
	CanceledAt         *time.Time
	CancellationReason *string
}

// BookingsFilter фильтр для получения бронирований
type BookingsFilter struct {
	ClubID          int64      // Обязательный параметр
	CourtID         *int64     // Фильтр по корту (опционально)
	From            *time.Time // Начало периода (опционально)
	To              *time.Time // Конец периода (опционально)
	Status          *BookingStatus
	IncludeInactive bool // Включать ли отменённые бронирования
}
