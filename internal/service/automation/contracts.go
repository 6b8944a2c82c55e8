package automation

import (
	"context"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
)

// ConfigRepository интерфейс репозитория конфигурации автоматизации
type ConfigRepository interface {
	GetByClub(ctx context.Context, clubID int64) (*domain.AutomationConfig, error)
	Upsert(ctx context.Context, config *domain.AutomationConfig) (*domain.AutomationConfig, error)
}

// ClubServiceClient интерфейс клиента ClubService
type ClubServiceClient interface {
	GetClub(ctx context.Context, clubID int64) (*clubservice.Club, error)
}

// SchedulerNotifier уведомляет планировщик об изменении конфигурации
type SchedulerNotifier interface {
	NotifyChange()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
