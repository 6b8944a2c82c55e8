package scheduler

import (
	"context"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

// BookingStore интерфейс хранилища бронирований
type BookingStore interface {
	// ListAutomatable получает кандидатов для автоматических переходов,
	// начинающихся до горизонта until
	ListAutomatable(ctx context.Context, until time.Time) ([]*domain.Booking, error)

	// UpdateStatus записывает новый статус бронирования
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, update domain.StatusUpdate) error
}

// ConfigSource источник конфигурации автоматизации по клубам
type ConfigSource interface {
	GetByClub(ctx context.Context, clubID int64) (*domain.AutomationConfig, error)
}

// Clock интерфейс скорректированных часов (реализуется clocksync.Clock,
// в тестах - ручными часами)
type Clock interface {
	Now() time.Time
}

// Observer интерфейс для метрик автоматизации
type Observer interface {
	ObserveTransition(from, to string)
	ObserveSkipped(reason string)
	ObservePass(duration time.Duration)
	ObserveWriteError()
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// nopObserver используется, когда метрики выключены
type nopObserver struct{}

func (nopObserver) ObserveTransition(_, _ string)     {}
func (nopObserver) ObserveSkipped(_ string)           {}
func (nopObserver) ObservePass(_ time.Duration)       {}
func (nopObserver) ObserveWriteError()                {}
