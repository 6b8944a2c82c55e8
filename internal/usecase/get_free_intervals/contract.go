package get_free_intervals

import (
	"context"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
}

// ClubServiceClient интерфейс клиента ClubService
type ClubServiceClient interface {
	GetClub(ctx context.Context, clubID int64) (*clubservice.Club, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
