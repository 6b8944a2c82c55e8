package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	automationRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/automation"
)

// manualClock часы с ручным управлением для тестов
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeStore in-memory реализация BookingStore
type fakeStore struct {
	mu       sync.Mutex
	bookings map[int64]*domain.Booking

	// failWrites записи для этих бронирований завершаются ошибкой
	failWrites map[int64]bool

	// emptyFirstList первый ListAutomatable возвращает пустой список
	emptyFirstList bool
	listCalls      int
}

func newFakeStore(bookings ...*domain.Booking) *fakeStore {
	s := &fakeStore{
		bookings:   make(map[int64]*domain.Booking),
		failWrites: make(map[int64]bool),
	}
	for _, b := range bookings {
		clone := *b
		s.bookings[b.ID] = &clone
	}
	return s
}

func (s *fakeStore) ListAutomatable(_ context.Context, until time.Time) ([]*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.emptyFirstList && s.listCalls == 1 {
		return nil, nil
	}

	list := make([]*domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if !b.IsAutomatable() || b.StartsAt.After(until) {
			continue
		}
		clone := *b
		list = append(list, &clone)
	}
	return list, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus, _ domain.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites[id] {
		return errors.New("write failed")
	}

	b, ok := s.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	b.Status = status
	return nil
}

func (s *fakeStore) statusOf(id int64) domain.BookingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id].Status
}

// fakeConfigs источник конфигурации: записей нет, все клубы на дефолтах
type fakeConfigs struct {
	configs map[int64]*domain.AutomationConfig
}

func (f *fakeConfigs) GetByClub(_ context.Context, clubID int64) (*domain.AutomationConfig, error) {
	if f.configs != nil {
		if cfg, ok := f.configs[clubID]; ok {
			return cfg, nil
		}
	}
	return nil, automationRepo.ErrConfigNotFound
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func testBooking(id int64, start, end time.Time, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:       id,
		ClubID:   1,
		CourtID:  1,
		StartsAt: start,
		EndsAt:   end,
		Status:   status,
	}
}

func newTestScheduler(store *fakeStore, clock Clock, configs ConfigSource) *Scheduler {
	if configs == nil {
		configs = &fakeConfigs{}
	}
	guard := NewGuard(clock, DefaultGuardWindows())
	opts := DefaultOptions()
	opts.EmptyRetryDelay = time.Millisecond
	return New(store, configs, guard, clock, nil, nopLogger{}, opts)
}

func TestRunPass_ConfirmAtLeadThreshold(t *testing.T) {
	start := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("before threshold - stays scheduled", func(t *testing.T) {
		// Порог подтверждения по умолчанию: за 120 минут до начала
		clock := newManualClock(start.Add(-121 * time.Minute))
		store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
		s := newTestScheduler(store, clock, nil)

		s.refresh(context.Background())
		s.RunPass(context.Background())

		assert.Equal(t, domain.StatusScheduled, store.statusOf(1))
	})

	t.Run("at threshold - confirmed", func(t *testing.T) {
		clock := newManualClock(start.Add(-120 * time.Minute))
		store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
		s := newTestScheduler(store, clock, nil)

		s.refresh(context.Background())
		s.RunPass(context.Background())

		assert.Equal(t, domain.StatusConfirmed, store.statusOf(1))
	})

	t.Run("custom lead from club config", func(t *testing.T) {
		clock := newManualClock(start.Add(-45 * time.Minute))
		store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
		configs := &fakeConfigs{configs: map[int64]*domain.AutomationConfig{
			1: {
				ClubID:                 1,
				AutoConfirmEnabled:     true,
				AutoConfirmLeadMinutes: 30,
				AutoStartEnabled:       true,
				AutoFinishEnabled:      true,
			},
		}}
		s := newTestScheduler(store, clock, configs)

		s.refresh(context.Background())
		s.RunPass(context.Background())

		// До порога в 30 минут ещё 15 минут
		assert.Equal(t, domain.StatusScheduled, store.statusOf(1))

		clock.Advance(15 * time.Minute)
		s.RunPass(context.Background())
		assert.Equal(t, domain.StatusConfirmed, store.statusOf(1))
	})
}

func TestRunPass_SkipConfirmCatchUp(t *testing.T) {
	// Бронирование 09:00-10:00 всё ещё scheduled в 09:05 (устройство спало):
	// переход сразу в in_progress, минуя confirmed
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	clock := newManualClock(start.Add(5 * time.Minute))
	store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
	s := newTestScheduler(store, clock, nil)

	s.refresh(context.Background())
	s.RunPass(context.Background())

	assert.Equal(t, domain.StatusInProgress, store.statusOf(1))
}

func TestRunPass_CatchUpFinish(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// Время ушло за конец бронирования: из scheduled сразу в finished
	clock := newManualClock(end.Add(time.Minute))
	store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
	s := newTestScheduler(store, clock, nil)

	s.refresh(context.Background())
	s.RunPass(context.Background())

	assert.Equal(t, domain.StatusFinished, store.statusOf(1))

	// finished перестаёт быть кандидатом
	assert.Empty(t, s.candidates())
}

func TestRunPass_AutoDisabledSkipped(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	b := testBooking(1, start, end, domain.StatusScheduled)
	b.AutoDisabled = true

	clock := newManualClock(start.Add(5 * time.Minute))
	store := newFakeStore(b)
	s := newTestScheduler(store, clock, nil)

	s.refresh(context.Background())
	s.RunPass(context.Background())

	assert.Equal(t, domain.StatusScheduled, store.statusOf(1))
}

func TestRunPass_ManualOverrideSuppresses(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	clock := newManualClock(start.Add(5 * time.Minute))
	store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
	s := newTestScheduler(store, clock, nil)

	s.refresh(context.Background())
	s.Guard().MarkManualOverride(1)

	s.RunPass(context.Background())
	assert.Equal(t, domain.StatusScheduled, store.statusOf(1))

	// Подавление истекает через ManualOverrideTTL (2 часа)
	clock.Advance(2 * time.Hour)
	s.RunPass(context.Background())
	assert.Equal(t, domain.StatusFinished, store.statusOf(1))
}

func TestRunPass_FailedWriteDoesNotStopPass(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	store := newFakeStore(
		testBooking(1, start, end, domain.StatusScheduled),
		testBooking(2, start, end, domain.StatusScheduled),
	)
	store.failWrites[1] = true

	clock := newManualClock(start.Add(5 * time.Minute))
	s := newTestScheduler(store, clock, nil)

	s.refresh(context.Background())
	s.RunPass(context.Background())

	// Неудачная запись оставляет бронирование в прежнем статусе,
	// остальные продвигаются
	assert.Equal(t, domain.StatusScheduled, store.statusOf(1))
	assert.Equal(t, domain.StatusInProgress, store.statusOf(2))

	// На следующем проходе после восстановления записи переход добирается
	store.mu.Lock()
	store.failWrites[1] = false
	store.mu.Unlock()

	s.RunPass(context.Background())
	assert.Equal(t, domain.StatusInProgress, store.statusOf(1))
}

func TestRunPass_NonReentrant(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	clock := newManualClock(start.Add(5 * time.Minute))
	store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
	s := newTestScheduler(store, clock, nil)

	s.refresh(context.Background())

	// Имитируем активный проход: повторный вызов должен быть no-op
	require.True(t, s.running.CompareAndSwap(false, true))
	s.RunPass(context.Background())
	assert.Equal(t, domain.StatusScheduled, store.statusOf(1))
	s.running.Store(false)

	s.RunPass(context.Background())
	assert.Equal(t, domain.StatusInProgress, store.statusOf(1))
}

func TestRefresh_RetryOnEmptyFirstResponse(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
	store.emptyFirstList = true

	clock := newManualClock(start.Add(-time.Hour))
	s := newTestScheduler(store, clock, nil)

	// Пустой первый ответ перечитывается один раз
	s.refresh(context.Background())

	assert.Len(t, s.candidates(), 1)

	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestRefresh_CanceledContextSkipsRetryWait(t *testing.T) {
	store := newFakeStore()
	store.emptyFirstList = true

	clock := newManualClock(time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC))
	s := newTestScheduler(store, clock, nil)
	s.opts.EmptyRetryDelay = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Отменённый контекст не должен ждать паузу перед повтором
	started := time.Now()
	s.refresh(ctx)

	assert.Less(t, time.Since(started), time.Second)

	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestRefresh_RecentLocalWriteWins(t *testing.T) {
	start := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	clock := newManualClock(start.Add(-time.Hour))
	store := newFakeStore(testBooking(1, start, end, domain.StatusScheduled))
	s := newTestScheduler(store, clock, nil)

	s.refresh(context.Background())

	// Локальная запись нового статуса внутри защитного окна
	s.Guard().MarkLocalWrite(1)
	s.applyLocalStatus(1, domain.StatusConfirmed)

	// Стор всё ещё отдаёт устаревший scheduled - локальный статус побеждает
	s.refresh(context.Background())

	candidates := s.candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.StatusConfirmed, candidates[0].Status)

	// За пределами окна значение из стора принимается как истина
	clock.Advance(5 * time.Second)
	s.refresh(context.Background())

	candidates = s.candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.StatusScheduled, candidates[0].Status)
}

func TestNextTriggerAt(t *testing.T) {
	start := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	cfg := domain.DefaultAutomationConfig(1)

	t.Run("scheduled - confirm threshold is nearest", func(t *testing.T) {
		b := testBooking(1, start, end, domain.StatusScheduled)
		now := start.Add(-3 * time.Hour)

		at, ok := nextTriggerAt(b, cfg, now)
		require.True(t, ok)
		assert.Equal(t, start.Add(-120*time.Minute), at)
	})

	t.Run("confirmed - start is nearest", func(t *testing.T) {
		b := testBooking(1, start, end, domain.StatusConfirmed)
		now := start.Add(-time.Hour)

		at, ok := nextTriggerAt(b, cfg, now)
		require.True(t, ok)
		assert.Equal(t, start, at)
	})

	t.Run("in progress - end is nearest", func(t *testing.T) {
		b := testBooking(1, start, end, domain.StatusInProgress)
		now := start.Add(30 * time.Minute)

		at, ok := nextTriggerAt(b, cfg, now)
		require.True(t, ok)
		assert.Equal(t, end, at)
	})

	t.Run("terminal - no trigger", func(t *testing.T) {
		b := testBooking(1, start, end, domain.StatusCanceled)
		_, ok := nextTriggerAt(b, cfg, start)
		assert.False(t, ok)
	})
}

func TestNotifyChange_NonBlocking(t *testing.T) {
	store := newFakeStore()
	clock := newManualClock(time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC))
	s := newTestScheduler(store, clock, nil)

	// Повторные уведомления схлопываются, вызов никогда не блокируется
	for i := 0; i < 10; i++ {
		s.NotifyChange()
	}
}
