// Package clocksync поддерживает скорректированное "сейчас", устойчивое
// к дрейфу локальных часов. Все сравнения времени в автоматизации статусов
// идут через Clock.Now().
package clocksync

import (
	"context"
	"sync/atomic"
	"time"
)

// ServerTimeSource источник авторитетного серверного времени
type ServerTimeSource interface {
	GetServerTime(ctx context.Context) (time.Time, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Clock часы с коррекцией по серверному времени.
// offset = server_time - local_time; Now() = local_time + offset.
// При недоступности источника используется последний известный offset -
// автоматизация продолжает работать, никогда не блокируется.
type Clock struct {
	source   ServerTimeSource
	interval time.Duration
	log      Logger

	offsetNanos atomic.Int64

	// failStreak считает подряд идущие неудачные попытки синхронизации.
	// Логируем один раз на серию, а не на каждую попытку.
	failStreak atomic.Int64
}

// New создает часы с синхронизацией каждые interval
func New(source ServerTimeSource, interval time.Duration, log Logger) *Clock {
	return &Clock{
		source:   source,
		interval: interval,
		log:      log,
	}
}

// Now возвращает скорректированное текущее время
func (c *Clock) Now() time.Time {
	return time.Now().Add(time.Duration(c.offsetNanos.Load()))
}

// Offset возвращает текущую поправку к локальным часам
func (c *Clock) Offset() time.Duration {
	return time.Duration(c.offsetNanos.Load())
}

// Run запускает цикл синхронизации до отмены контекста.
// Первая синхронизация выполняется сразу.
func (c *Clock) Run(ctx context.Context) {
	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("clocksync: stopped")
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// refresh запрашивает серверное время и обновляет offset
func (c *Clock) refresh(ctx context.Context) {
	requestCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	before := time.Now()
	serverTime, err := c.source.GetServerTime(requestCtx)
	if err != nil {
		// Деградируем на последнем известном offset; логируем раз на серию
		if c.failStreak.Add(1) == 1 {
			c.log.Warn("clocksync: failed to fetch server time, keeping offset %s: %v", c.Offset(), err)
		}
		return
	}

	// Компенсируем время сетевого запроса половиной round-trip
	rtt := time.Since(before)
	local := before.Add(rtt / 2)
	offset := serverTime.Sub(local)

	prevStreak := c.failStreak.Swap(0)
	c.offsetNanos.Store(int64(offset))

	if prevStreak > 0 {
		c.log.Info("clocksync: recovered after %d failed attempts, offset=%s", prevStreak, offset)
	}
}
