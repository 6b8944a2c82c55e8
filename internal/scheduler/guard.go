package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Причины подавления автоматизации (используются в логах и метриках)
const (
	SkipReasonManualOverride = "manual_override"
	SkipReasonAutoDisabled   = "auto_disabled"
)

// GuardWindows именованные защитные окна.
// Все разрозненные таймстемп-проверки сведены в один объект
// и оцениваются в одной точке (Guard), а не по месту использования.
type GuardWindows struct {
	// ManualOverrideTTL время подавления автоматизации после ручной смены статуса
	ManualOverrideTTL time.Duration

	// RecentWriteWindow окно, в котором локальная запись статуса побеждает
	// возможно устаревшее значение из фонового чтения
	RecentWriteWindow time.Duration

	// RealtimeDebounce окно группировки событий изменений из стора
	RealtimeDebounce time.Duration
}

// DefaultGuardWindows значения по умолчанию
func DefaultGuardWindows() GuardWindows {
	return GuardWindows{
		ManualOverrideTTL: 2 * time.Hour,
		RecentWriteWindow: 4 * time.Second,
		RealtimeDebounce:  400 * time.Millisecond,
	}
}

// Guard централизованное состояние защитных окон:
// ручные подавления автоматизации, недавние локальные записи и
// активные сессии редактирования списка участников.
type Guard struct {
	clock   Clock
	windows GuardWindows

	mu           sync.Mutex
	overrides    map[int64]time.Time  // bookingID -> момент создания
	localWrites  map[int64]time.Time  // bookingID -> момент последней локальной записи
	editSessions map[string]int64     // token -> bookingID
}

// NewGuard создает новый Guard
func NewGuard(clock Clock, windows GuardWindows) *Guard {
	return &Guard{
		clock:        clock,
		windows:      windows,
		overrides:    make(map[int64]time.Time),
		localWrites:  make(map[int64]time.Time),
		editSessions: make(map[string]int64),
	}
}

// MarkManualOverride создает ручное подавление автоматизации для бронирования.
// Вызывается при пользовательской смене статуса без явного запроса
// на реактивацию автоматизации.
func (g *Guard) MarkManualOverride(bookingID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.overrides[bookingID] = g.clock.Now()
}

// ClearManualOverride снимает ручное подавление (пользователь подтвердил
// реактивацию автоматизации)
func (g *Guard) ClearManualOverride(bookingID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.overrides, bookingID)
}

// ManualOverrideActive возвращает true, если подавление ещё действует.
// Истёкшие записи удаляются по пути.
func (g *Guard) ManualOverrideActive(bookingID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	createdAt, ok := g.overrides[bookingID]
	if !ok {
		return false
	}

	if g.clock.Now().Sub(createdAt) >= g.windows.ManualOverrideTTL {
		delete(g.overrides, bookingID)
		return false
	}

	return true
}

// AutomationSuppressed единая точка решения "можно ли автоматизировать
// это бронирование сейчас". Возвращает причину подавления.
func (g *Guard) AutomationSuppressed(bookingID int64) (string, bool) {
	if g.ManualOverrideActive(bookingID) {
		return SkipReasonManualOverride, true
	}
	return "", false
}

// MarkLocalWrite отмечает момент локальной записи статуса бронирования
func (g *Guard) MarkLocalWrite(bookingID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.localWrites[bookingID] = g.clock.Now()
}

// RecentLocalWrite возвращает true, если статус бронирования менялся локально
// внутри защитного окна - фоновое чтение не должно его перетирать
func (g *Guard) RecentLocalWrite(bookingID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	writtenAt, ok := g.localWrites[bookingID]
	if !ok {
		return false
	}

	if g.clock.Now().Sub(writtenAt) >= g.windows.RecentWriteWindow {
		delete(g.localWrites, bookingID)
		return false
	}

	return true
}

// BeginEdit открывает сессию редактирования списка участников бронирования.
// Пока есть хотя бы одна активная сессия, фоновые обновления откладываются.
func (g *Guard) BeginEdit(bookingID int64) string {
	token := uuid.NewString()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.editSessions[token] = bookingID

	return token
}

// EndEdit закрывает сессию редактирования
func (g *Guard) EndEdit(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.editSessions, token)
}

// EditInProgress возвращает true, если открыта хотя бы одна сессия редактирования
func (g *Guard) EditInProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.editSessions) > 0
}

// RealtimeDebounce возвращает окно группировки realtime-событий
func (g *Guard) RealtimeDebounce() time.Duration {
	return g.windows.RealtimeDebounce
}
