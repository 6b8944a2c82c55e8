package participants

import (
	"context"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

// ParticipantRepository интерфейс репозитория участников
type ParticipantRepository interface {
	ListActiveByBookingIDs(ctx context.Context, bookingIDs []int64) ([]*domain.Participant, error)
	Insert(ctx context.Context, p *domain.Participant) (*domain.Participant, error)
	Update(ctx context.Context, p *domain.Participant) error
	SoftDelete(ctx context.Context, ids []int64) error
}

// ClubServiceClient интерфейс клиента ClubService
type ClubServiceClient interface {
	GetClub(ctx context.Context, clubID int64) (*clubservice.Club, error)
}

// EditGuard сессии редактирования и защитные окна.
// Открытая сессия откладывает фоновые обновления состояния планировщика.
type EditGuard interface {
	BeginEdit(bookingID int64) string
	EndEdit(token string)
	MarkLocalWrite(bookingID int64)
}

// SchedulerNotifier уведомляет планировщик об изменении данных
type SchedulerNotifier interface {
	NotifyChange()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
