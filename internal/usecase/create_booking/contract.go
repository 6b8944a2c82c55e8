package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
}

// ParticipantRepository интерфейс репозитория участников
type ParticipantRepository interface {
	Insert(ctx context.Context, p *domain.Participant) (*domain.Participant, error)
}

// ClubServiceClient интерфейс клиента ClubService
type ClubServiceClient interface {
	GetClub(ctx context.Context, clubID int64) (*clubservice.Club, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// AutomationGuard отмечает локальные записи для защиты от устаревших чтений
type AutomationGuard interface {
	MarkLocalWrite(bookingID int64)
}

// SchedulerNotifier уведомляет планировщик о новом бронировании
type SchedulerNotifier interface {
	NotifyChange()
}

// Clock интерфейс скорректированных часов (для тестирования)
type Clock interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
