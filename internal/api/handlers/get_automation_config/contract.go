package get_automation_config

import (
	"context"

	"github.com/m04kA/SMC-CourtBookingService/internal/service/automation/models"
)

type AutomationService interface {
	GetByClub(ctx context.Context, clubID, userID int64) (*models.ConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
