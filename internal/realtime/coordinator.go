// Package realtime превращает поток событий изменений стора в перечитывание
// состояния планировщика. События группируются (debounce), а во время
// активной сессии редактирования откладываются и проигрываются один раз
// после её завершения, чтобы не перетереть незаконченную правку.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/infra/events"
)

// Subscriber источник событий изменений (реализуется events.Subscriber)
type Subscriber interface {
	Subscribe(ctx context.Context, table string, handler func(events.Change))
}

// Refresher получатель уведомлений об изменениях (реализуется scheduler.Scheduler)
type Refresher interface {
	NotifyChange()
}

// EditGate сообщает, идёт ли сейчас сессия редактирования
// (реализуется scheduler.Guard)
type EditGate interface {
	EditInProgress() bool
	RealtimeDebounce() time.Duration
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
}

// Coordinator связывает подписку на события с планировщиком
type Coordinator struct {
	subscriber Subscriber
	refresher  Refresher
	gate       EditGate
	log        Logger

	// tables таблицы, на которые оформляется подписка
	tables []string

	mu       sync.Mutex
	timer    *time.Timer
	deferred bool
}

// NewCoordinator создает координатор realtime-событий
func NewCoordinator(subscriber Subscriber, refresher Refresher, gate EditGate, log Logger) *Coordinator {
	return &Coordinator{
		subscriber: subscriber,
		refresher:  refresher,
		gate:       gate,
		log:        log,
		tables:     []string{"court_bookings", "booking_participants"},
	}
}

// Run подписывается на все таблицы и обрабатывает события до отмены контекста
func (c *Coordinator) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, table := range c.tables {
		wg.Add(1)
		go func(table string) {
			defer wg.Done()
			c.subscriber.Subscribe(ctx, table, c.onChange)
		}(table)
	}

	// Отложенные события проигрываются после завершения сессии редактирования
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.replayLoop(ctx)
	}()

	wg.Wait()
}

// onChange группирует всплеск событий в одно перечитывание
func (c *Coordinator) onChange(change events.Change) {
	c.log.Debug("realtime: change %s.%s club=%d", change.Table, change.Op, change.ClubID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		// Сдвигаем окно: серия событий схлопывается в одно срабатывание
		c.timer.Reset(c.gate.RealtimeDebounce())
		return
	}

	c.timer = time.AfterFunc(c.gate.RealtimeDebounce(), c.fire)
}

// fire вызывается по истечении debounce-окна
func (c *Coordinator) fire() {
	c.mu.Lock()
	c.timer = nil

	if c.gate.EditInProgress() {
		// Не перетираем идущую правку; проиграем один раз после неё
		c.deferred = true
		c.mu.Unlock()
		c.log.Debug("realtime: refresh deferred, edit session in progress")
		return
	}
	c.mu.Unlock()

	c.refresher.NotifyChange()
}

// replayLoop проигрывает отложенное перечитывание, когда сессия
// редактирования завершилась
func (c *Coordinator) replayLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.replayPending()
		}
	}
}

// replayPending проигрывает отложенное перечитывание, если сессия
// редактирования уже завершилась. Возвращает true, если перечитывание ушло.
func (c *Coordinator) replayPending() bool {
	c.mu.Lock()
	pending := c.deferred && !c.gate.EditInProgress()
	if pending {
		c.deferred = false
	}
	c.mu.Unlock()

	if !pending {
		return false
	}

	c.log.Info("realtime: replaying deferred refresh")
	c.refresher.NotifyChange()
	return true
}
