package mark_absent

import (
	"context"

	"github.com/m04kA/SMC-CourtBookingService/internal/service/bookings/models"
)

type BookingService interface {
	MarkAbsent(ctx context.Context, id int64, req *models.MarkAbsentRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
