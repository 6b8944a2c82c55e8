package save_participants

import (
	"context"

	"github.com/m04kA/SMC-CourtBookingService/internal/service/participants/models"
)

type ParticipantService interface {
	Save(ctx context.Context, bookingID int64, req *models.SaveParticipantsRequest) (*models.SaveParticipantsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
