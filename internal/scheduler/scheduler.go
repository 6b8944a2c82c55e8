// Package scheduler продвигает статусы бронирований по мере течения времени:
// scheduled → confirmed → in_progress → finished. Вместо поллинга с
// фиксированным интервалом взводится один таймер на ближайший триггер;
// низкочастотный страховочный тик и грубая сверка добирают пропущенные
// переходы после сна устройства или потери таймера.
package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	automationRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/automation"
)

// Options настройки планировщика
type Options struct {
	// SafetyTick интервал страховочного тика
	SafetyTick time.Duration

	// SweepInterval интервал грубой сверки (полная перезагрузка кандидатов)
	SweepInterval time.Duration

	// TriggerBuffer буфер, добавляемый к задержке до ближайшего триггера
	TriggerBuffer time.Duration

	// MaxTriggerDelay потолок задержки таймера ближайшего триггера
	MaxTriggerDelay time.Duration

	// Horizon насколько далеко вперёд загружаются кандидаты
	Horizon time.Duration

	// EmptyRetryDelay пауза перед повтором при пустом первом ответе списка
	EmptyRetryDelay time.Duration
}

// DefaultOptions значения по умолчанию
func DefaultOptions() Options {
	return Options{
		SafetyTick:      10 * time.Second,
		SweepInterval:   30 * time.Minute,
		TriggerBuffer:   2 * time.Second,
		MaxTriggerDelay: 10 * time.Minute,
		Horizon:         24 * time.Hour,
		EmptyRetryDelay: time.Second,
	}
}

// Scheduler планировщик автоматических переходов статуса
type Scheduler struct {
	store   BookingStore
	configs ConfigSource
	guard   *Guard
	clock   Clock
	metrics Observer
	log     Logger
	opts    Options

	mu          sync.Mutex
	bookings    map[int64]*domain.Booking
	clubConfigs map[int64]*domain.AutomationConfig

	// running не позволяет проходам автоматизации перекрываться:
	// повторный вызов во время активного прохода - no-op
	running atomic.Bool

	// kick внешний толчок: realtime-событие или локальное изменение
	kick chan struct{}
}

// New создает планировщик. metrics может быть nil.
func New(store BookingStore, configs ConfigSource, guard *Guard, clock Clock, metrics Observer, log Logger, opts Options) *Scheduler {
	if metrics == nil {
		metrics = nopObserver{}
	}

	return &Scheduler{
		store:       store,
		configs:     configs,
		guard:       guard,
		clock:       clock,
		metrics:     metrics,
		log:         log,
		opts:        opts,
		bookings:    make(map[int64]*domain.Booking),
		clubConfigs: make(map[int64]*domain.AutomationConfig),
		kick:        make(chan struct{}, 1),
	}
}

// Guard возвращает общий Guard планировщика
func (s *Scheduler) Guard() *Guard {
	return s.guard
}

// NotifyChange просит планировщик перечитать кандидатов и выполнить проход.
// Неблокирующий: повторные уведомления во время обработки схлопываются.
func (s *Scheduler) NotifyChange() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run запускает цикл планировщика до отмены контекста
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler: started (safety_tick=%s, sweep=%s, max_delay=%s)",
		s.opts.SafetyTick, s.opts.SweepInterval, s.opts.MaxTriggerDelay)

	s.refresh(ctx)
	s.RunPass(ctx)

	safety := time.NewTicker(s.opts.SafetyTick)
	defer safety.Stop()

	sweep := time.NewTicker(s.opts.SweepInterval)
	defer sweep.Stop()

	trigger := time.NewTimer(s.nextDelay())
	defer trigger.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: stopped")
			return

		case <-safety.C:
			s.RunPass(ctx)

		case <-sweep.C:
			s.refresh(ctx)
			s.RunPass(ctx)

		case <-trigger.C:
			s.RunPass(ctx)

		case <-s.kick:
			s.refresh(ctx)
			s.RunPass(ctx)
		}

		// Перевзводим таймер ближайшего триггера после каждой обработки
		if !trigger.Stop() {
			select {
			case <-trigger.C:
			default:
			}
		}
		trigger.Reset(s.nextDelay())
	}
}

// RunPass выполняет один проход автоматизации по всем кандидатам.
// Повторный вызов во время активного прохода - no-op.
func (s *Scheduler) RunPass(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	started := time.Now()
	now := s.clock.Now()

	for _, b := range s.candidates() {
		if b.AutoDisabled {
			s.metrics.ObserveSkipped(SkipReasonAutoDisabled)
			continue
		}

		if reason, suppressed := s.guard.AutomationSuppressed(b.ID); suppressed {
			s.metrics.ObserveSkipped(reason)
			continue
		}

		cfg := s.configFor(ctx, b.ClubID)

		next, ok := nextStatus(b, cfg, now)
		if !ok {
			continue
		}

		// Записи идут последовательно; неудачная запись не прерывает проход -
		// бронирование остаётся в прежнем статусе до следующего цикла
		if err := s.store.UpdateStatus(ctx, b.ID, next, domain.StatusUpdate{}); err != nil {
			s.metrics.ObserveWriteError()
			s.log.Error("scheduler: failed to write status booking=%d %s->%s: %v", b.ID, b.Status, next, err)
			continue
		}

		s.metrics.ObserveTransition(string(b.Status), string(next))
		s.log.Info("scheduler: booking=%d %s -> %s", b.ID, b.Status, next)

		s.guard.MarkLocalWrite(b.ID)
		s.applyLocalStatus(b.ID, next)
	}

	s.metrics.ObservePass(time.Since(started))
}

// refresh перечитывает кандидатов из стора.
// Пустой первый ответ может быть задержкой распространения - повторяем
// один раз через паузу; второй пустой ответ принимается как истина.
func (s *Scheduler) refresh(ctx context.Context) {
	now := s.clock.Now()
	until := now.Add(s.opts.Horizon)

	list, err := s.store.ListAutomatable(ctx, until)
	if err != nil {
		s.log.Error("scheduler: failed to refresh candidates: %v", err)
		return
	}

	if len(list) == 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.EmptyRetryDelay):
		}

		list, err = s.store.ListAutomatable(ctx, until)
		if err != nil {
			s.log.Error("scheduler: failed to refresh candidates on retry: %v", err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make(map[int64]*domain.Booking, len(list))
	for _, b := range list {
		// "Недавняя локальная запись побеждает": статус, изменённый локально
		// внутри защитного окна, не перетирается возможно устаревшим значением
		if local, ok := s.bookings[b.ID]; ok && s.guard.RecentLocalWrite(b.ID) {
			b.Status = local.Status
			b.AutoDisabled = local.AutoDisabled
		}
		fresh[b.ID] = b
	}

	s.bookings = fresh
	s.clubConfigs = make(map[int64]*domain.AutomationConfig)
}

// nextDelay вычисляет задержку до ближайшего будущего триггера среди всех
// кандидатов: минимум + буфер, но не больше потолка
func (s *Scheduler) nextDelay() time.Duration {
	now := s.clock.Now()

	var next time.Time
	for _, b := range s.candidates() {
		if b.AutoDisabled {
			continue
		}

		cfg := s.cachedConfig(b.ClubID)

		if at, ok := nextTriggerAt(b, cfg, now); ok {
			if next.IsZero() || at.Before(next) {
				next = at
			}
		}
	}

	if next.IsZero() {
		return s.opts.MaxTriggerDelay
	}

	delay := next.Sub(now) + s.opts.TriggerBuffer
	if delay < s.opts.TriggerBuffer {
		delay = s.opts.TriggerBuffer
	}
	if delay > s.opts.MaxTriggerDelay {
		delay = s.opts.MaxTriggerDelay
	}

	return delay
}

// candidates возвращает снапшот кандидатов, упорядоченный по времени начала
func (s *Scheduler) candidates() []*domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		list = append(list, b)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].StartsAt.Equal(list[j].StartsAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartsAt.Before(list[j].StartsAt)
	})

	return list
}

// applyLocalStatus обновляет in-memory состояние после успешной записи.
// Бронирования, достигшие finished, перестают быть кандидатами.
func (s *Scheduler) applyLocalStatus(id int64, status domain.BookingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return
	}

	b.Status = status
	if status == domain.StatusFinished || b.IsTerminal() {
		delete(s.bookings, id)
	}
}

// configFor возвращает конфигурацию автоматизации клуба (с кэшем на время
// между refresh). Отсутствующая запись означает конфигурацию по умолчанию.
func (s *Scheduler) configFor(ctx context.Context, clubID int64) *domain.AutomationConfig {
	s.mu.Lock()
	if cfg, ok := s.clubConfigs[clubID]; ok {
		s.mu.Unlock()
		return cfg
	}
	s.mu.Unlock()

	cfg, err := s.configs.GetByClub(ctx, clubID)
	if err != nil {
		if !errors.Is(err, automationRepo.ErrConfigNotFound) {
			s.log.Warn("scheduler: failed to load automation config club=%d, using defaults: %v", clubID, err)
		}
		cfg = domain.DefaultAutomationConfig(clubID)
	}

	s.mu.Lock()
	s.clubConfigs[clubID] = cfg
	s.mu.Unlock()

	return cfg
}

// cachedConfig как configFor, но без похода в стор (для вычисления задержки)
func (s *Scheduler) cachedConfig(clubID int64) *domain.AutomationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg, ok := s.clubConfigs[clubID]; ok {
		return cfg
	}
	return domain.DefaultAutomationConfig(clubID)
}

// nextStatus вычисляет следующий статус кандидата на момент now.
// Порядок проверок: finish, затем start, затем confirm - один проход
// схлопывает несколько пропущенных переходов в корректный итоговый статус.
func nextStatus(b *domain.Booking, cfg *domain.AutomationConfig, now time.Time) (domain.BookingStatus, bool) {
	if !b.IsAutomatable() {
		return "", false
	}

	// Catch-up finish: из любого неконечного статуса сразу в finished
	if cfg.AutoFinishEnabled && !now.Before(b.EndsAt) {
		return domain.StatusFinished, true
	}

	// Старт, включая "skip-confirm catch-up" напрямую из scheduled
	if cfg.AutoStartEnabled && !now.Before(b.StartsAt) &&
		(b.Status == domain.StatusScheduled || b.Status == domain.StatusConfirmed) {
		return domain.StatusInProgress, true
	}

	if cfg.AutoConfirmEnabled && b.Status == domain.StatusScheduled &&
		!now.Before(cfg.ConfirmThreshold(b.StartsAt)) {
		return domain.StatusConfirmed, true
	}

	return "", false
}

// nextTriggerAt возвращает ближайший будущий момент, в который у бронирования
// может произойти автоматический переход
func nextTriggerAt(b *domain.Booking, cfg *domain.AutomationConfig, now time.Time) (time.Time, bool) {
	if !b.IsAutomatable() {
		return time.Time{}, false
	}

	var next time.Time

	consider := func(at time.Time) {
		if at.After(now) && (next.IsZero() || at.Before(next)) {
			next = at
		}
	}

	if cfg.AutoConfirmEnabled && b.Status == domain.StatusScheduled {
		consider(cfg.ConfirmThreshold(b.StartsAt))
	}
	if cfg.AutoStartEnabled && (b.Status == domain.StatusScheduled || b.Status == domain.StatusConfirmed) {
		consider(b.StartsAt)
	}
	if cfg.AutoFinishEnabled {
		consider(b.EndsAt)
	}

	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
