package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGuard(clock Clock) *Guard {
	return NewGuard(clock, DefaultGuardWindows())
}

func TestGuard_ManualOverride(t *testing.T) {
	clock := newManualClock(time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC))
	g := newTestGuard(clock)

	assert.False(t, g.ManualOverrideActive(1))

	g.MarkManualOverride(1)
	assert.True(t, g.ManualOverrideActive(1))

	reason, suppressed := g.AutomationSuppressed(1)
	assert.True(t, suppressed)
	assert.Equal(t, SkipReasonManualOverride, reason)

	// Другое бронирование не затронуто
	_, suppressed = g.AutomationSuppressed(2)
	assert.False(t, suppressed)

	t.Run("expires after TTL", func(t *testing.T) {
		clock.Advance(2*time.Hour - time.Second)
		assert.True(t, g.ManualOverrideActive(1))

		clock.Advance(time.Second)
		assert.False(t, g.ManualOverrideActive(1))
	})

	t.Run("cleared explicitly", func(t *testing.T) {
		g.MarkManualOverride(1)
		g.ClearManualOverride(1)
		assert.False(t, g.ManualOverrideActive(1))
	})
}

func TestGuard_RecentLocalWrite(t *testing.T) {
	clock := newManualClock(time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC))
	g := newTestGuard(clock)

	assert.False(t, g.RecentLocalWrite(1))

	g.MarkLocalWrite(1)
	assert.True(t, g.RecentLocalWrite(1))

	// Окно защиты локальной записи: 4 секунды
	clock.Advance(3 * time.Second)
	assert.True(t, g.RecentLocalWrite(1))

	clock.Advance(time.Second)
	assert.False(t, g.RecentLocalWrite(1))

	// Повторная запись открывает окно заново
	g.MarkLocalWrite(1)
	assert.True(t, g.RecentLocalWrite(1))
}

func TestGuard_EditSessions(t *testing.T) {
	clock := newManualClock(time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC))
	g := newTestGuard(clock)

	assert.False(t, g.EditInProgress())

	first := g.BeginEdit(1)
	second := g.BeginEdit(2)
	assert.NotEqual(t, first, second)
	assert.True(t, g.EditInProgress())

	// Пока жива хотя бы одна сессия, редактирование считается активным
	g.EndEdit(first)
	assert.True(t, g.EditInProgress())

	g.EndEdit(second)
	assert.False(t, g.EditInProgress())

	// Закрытие неизвестного токена безопасно
	g.EndEdit("unknown")
	assert.False(t, g.EditInProgress())
}

func TestGuard_RealtimeDebounce(t *testing.T) {
	clock := newManualClock(time.Now())
	g := NewGuard(clock, GuardWindows{RealtimeDebounce: 250 * time.Millisecond})

	assert.Equal(t, 250*time.Millisecond, g.RealtimeDebounce())
}
