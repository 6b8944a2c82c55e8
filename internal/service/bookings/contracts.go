package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, update domain.StatusUpdate) error
}

// ParticipantRepository интерфейс репозитория участников
type ParticipantRepository interface {
	ListActiveByBookingIDs(ctx context.Context, bookingIDs []int64) ([]*domain.Participant, error)
}

// ClubServiceClient интерфейс клиента ClubService
type ClubServiceClient interface {
	GetClub(ctx context.Context, clubID int64) (*clubservice.Club, error)
}

// SnapshotCache кэш снапшотов списка бронирований на день.
// Используется только как ускоритель первой отрисовки: живая выборка
// всегда авторитетна.
type SnapshotCache interface {
	Store(ctx context.Context, clubID int64, day time.Time, bookings []*domain.Booking)
	Load(ctx context.Context, clubID int64, day time.Time) ([]*domain.Booking, error)
}

// AutomationGuard защитные окна автоматизации для ручных смен статуса
type AutomationGuard interface {
	MarkManualOverride(bookingID int64)
	ClearManualOverride(bookingID int64)
	MarkLocalWrite(bookingID int64)
}

// SchedulerNotifier уведомляет планировщик об изменении данных
type SchedulerNotifier interface {
	NotifyChange()
}

// Clock интерфейс скорректированных часов
type Clock interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
