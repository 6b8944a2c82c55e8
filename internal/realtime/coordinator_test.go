package realtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-CourtBookingService/internal/infra/events"
)

type fakeRefresher struct {
	calls atomic.Int64
}

func (f *fakeRefresher) NotifyChange() {
	f.calls.Add(1)
}

type fakeGate struct {
	mu       sync.Mutex
	editing  bool
	debounce time.Duration
}

func (g *fakeGate) EditInProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.editing
}

func (g *fakeGate) RealtimeDebounce() time.Duration {
	return g.debounce
}

func (g *fakeGate) setEditing(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.editing = v
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}

func change() events.Change {
	return events.Change{Table: "court_bookings", Op: "UPDATE", ClubID: 1}
}

func newTestCoordinator(refresher *fakeRefresher, gate *fakeGate) *Coordinator {
	return NewCoordinator(nil, refresher, gate, nopLogger{})
}

func TestCoordinator_DebounceCollapsesBurst(t *testing.T) {
	refresher := &fakeRefresher{}
	gate := &fakeGate{debounce: 20 * time.Millisecond}
	c := newTestCoordinator(refresher, gate)

	// Всплеск событий внутри окна схлопывается в одно перечитывание
	for i := 0; i < 5; i++ {
		c.onChange(change())
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return refresher.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Окно закрыто, следующее событие открывает новое
	c.onChange(change())
	assert.Eventually(t, func() bool {
		return refresher.calls.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinator_DefersDuringEditSession(t *testing.T) {
	refresher := &fakeRefresher{}
	gate := &fakeGate{debounce: 5 * time.Millisecond, editing: true}
	c := newTestCoordinator(refresher, gate)

	c.onChange(change())

	// Во время сессии редактирования перечитывание откладывается
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), refresher.calls.Load())

	c.mu.Lock()
	deferred := c.deferred
	c.mu.Unlock()
	assert.True(t, deferred)
}

func TestCoordinator_ReplaysDeferredAfterEdit(t *testing.T) {
	refresher := &fakeRefresher{}
	gate := &fakeGate{debounce: 5 * time.Millisecond, editing: true}
	c := newTestCoordinator(refresher, gate)

	c.onChange(change())
	time.Sleep(20 * time.Millisecond)

	// Несколько отложенных всплесков проигрываются одним перечитыванием
	c.onChange(change())
	time.Sleep(20 * time.Millisecond)

	// Пока сессия активна, проигрывать нечего
	assert.False(t, c.replayPending())
	assert.Equal(t, int64(0), refresher.calls.Load())

	gate.setEditing(false)

	assert.True(t, c.replayPending())
	assert.Equal(t, int64(1), refresher.calls.Load())

	// Повторное проигрывание без новых событий - no-op
	assert.False(t, c.replayPending())
	assert.Equal(t, int64(1), refresher.calls.Load())
}
