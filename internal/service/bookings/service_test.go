package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	storage "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/bookings/models"
)

const (
	managerID  = int64(7)
	strangerID = int64(99)
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking

	listErr   error
	listCalls int

	// emptyFirstList первый ListWithFilter возвращает пустой список
	emptyFirstList bool
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[int64]*domain.Booking)}
	for _, b := range bookings {
		clone := *b
		repo.bookings[b.ID] = &clone
	}
	return repo
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, storage.ErrBookingNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) ListWithFilter(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	if r.emptyFirstList && r.listCalls == 1 {
		return nil, nil
	}

	list := make([]*domain.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		if b.ClubID != filter.ClubID {
			continue
		}
		clone := *b
		list = append(list, &clone)
	}
	return list, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus, update domain.StatusUpdate) error {
	b, ok := r.bookings[id]
	if !ok {
		return storage.ErrBookingNotFound
	}
	b.Status = status
	if update.AutoDisabled != nil {
		b.AutoDisabled = *update.AutoDisabled
	}
	b.CanceledBy = update.CanceledBy
	b.CanceledAt = update.CanceledAt
	b.CancellationReason = update.CancellationReason
	return nil
}

type fakeParticipantRepo struct{}

func (fakeParticipantRepo) ListActiveByBookingIDs(_ context.Context, _ []int64) ([]*domain.Participant, error) {
	return nil, nil
}

type fakeClubClient struct{}

func (fakeClubClient) GetClub(_ context.Context, clubID int64) (*clubservice.Club, error) {
	if clubID != 1 {
		return nil, clubservice.ErrClubNotFound
	}
	return &clubservice.Club{ID: clubID, ManagerIDs: []int64{managerID}}, nil
}

type fakeCache struct {
	snapshots map[int64][]*domain.Booking
	stored    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{snapshots: make(map[int64][]*domain.Booking)}
}

func (c *fakeCache) Store(_ context.Context, clubID int64, _ time.Time, bookings []*domain.Booking) {
	c.stored++
	c.snapshots[clubID] = bookings
}

func (c *fakeCache) Load(_ context.Context, clubID int64, _ time.Time) ([]*domain.Booking, error) {
	snapshot, ok := c.snapshots[clubID]
	if !ok {
		return nil, errors.New("snapshot not found")
	}
	return snapshot, nil
}

type fakeGuard struct {
	overrides   map[int64]bool
	localWrites map[int64]int
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{overrides: make(map[int64]bool), localWrites: make(map[int64]int)}
}

func (g *fakeGuard) MarkManualOverride(id int64)  { g.overrides[id] = true }
func (g *fakeGuard) ClearManualOverride(id int64) { delete(g.overrides, id) }
func (g *fakeGuard) MarkLocalWrite(id int64)      { g.localWrites[id]++ }

type fakeNotifier struct {
	calls int
}

func (n *fakeNotifier) NotifyChange() { n.calls++ }

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	service  *Service
	repo     *fakeBookingRepo
	cache    *fakeCache
	guard    *fakeGuard
	notifier *fakeNotifier
}

func newFixture(bookings ...*domain.Booking) *fixture {
	repo := newFakeBookingRepo(bookings...)
	cache := newFakeCache()
	guard := newFakeGuard()
	notifier := &fakeNotifier{}

	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	service := NewService(
		repo,
		fakeParticipantRepo{},
		fakeClubClient{},
		cache,
		guard,
		notifier,
		fixedClock{now: now},
		nopLogger{},
		time.Millisecond,
	)

	return &fixture{service: service, repo: repo, cache: cache, guard: guard, notifier: notifier}
}

func scheduledBooking(id int64) *domain.Booking {
	start := time.Date(2026, time.September, 1, 15, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:       id,
		ClubID:   1,
		CourtID:  1,
		StartsAt: start,
		EndsAt:   start.Add(time.Hour),
		Status:   domain.StatusScheduled,
	}
}

func TestCancel(t *testing.T) {
	t.Run("cancels and disables automation", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))

		resp, err := f.service.Cancel(context.Background(), 1, &models.CancelBookingRequest{
			UserID:             managerID,
			CancellationReason: "клиент попросил перенести",
		})
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusCanceled), resp.Status)
		assert.True(t, f.repo.bookings[1].AutoDisabled)
		require.NotNil(t, f.repo.bookings[1].CanceledBy)
		assert.Equal(t, managerID, *f.repo.bookings[1].CanceledBy)

		// Локальная запись отмечена, планировщик разбужен
		assert.Equal(t, 1, f.guard.localWrites[1])
		assert.Equal(t, 1, f.notifier.calls)
	})

	t.Run("finished booking cannot be cancelled", func(t *testing.T) {
		b := scheduledBooking(1)
		b.Status = domain.StatusFinished
		f := newFixture(b)

		_, err := f.service.Cancel(context.Background(), 1, &models.CancelBookingRequest{UserID: managerID})
		assert.ErrorIs(t, err, ErrCannotCancel)
	})

	t.Run("non-manager is rejected", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))

		_, err := f.service.Cancel(context.Background(), 1, &models.CancelBookingRequest{UserID: strangerID})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.Cancel(context.Background(), 404, &models.CancelBookingRequest{UserID: managerID})
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("manual change suppresses automation", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))

		resp, err := f.service.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
			UserID: managerID,
			Status: string(domain.StatusConfirmed),
		})
		require.NoError(t, err)

		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		assert.True(t, f.guard.overrides[1])
	})

	t.Run("reactivation clears suppression and auto_disabled", func(t *testing.T) {
		b := scheduledBooking(1)
		b.AutoDisabled = true
		f := newFixture(b)
		f.guard.overrides[1] = true

		_, err := f.service.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
			UserID:               managerID,
			Status:               string(domain.StatusScheduled),
			ReactivateAutomation: true,
		})
		require.NoError(t, err)

		assert.False(t, f.guard.overrides[1])
		assert.False(t, f.repo.bookings[1].AutoDisabled)
	})

	t.Run("terminal target disables automation", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))

		_, err := f.service.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
			UserID: managerID,
			Status: string(domain.StatusAbsent),
		})
		require.NoError(t, err)

		assert.True(t, f.repo.bookings[1].AutoDisabled)
		assert.False(t, f.guard.overrides[1])
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))

		_, err := f.service.UpdateStatus(context.Background(), 1, &models.UpdateStatusRequest{
			UserID: managerID,
			Status: "parked",
		})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestGetCourtBookings(t *testing.T) {
	day := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	request := func() *models.GetCourtBookingsRequest {
		from := day
		to := day.AddDate(0, 0, 1)
		return &models.GetCourtBookingsRequest{
			UserID: managerID,
			ClubID: 1,
			From:   &from,
			To:     &to,
		}
	}

	t.Run("retries once on empty first response", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))
		f.repo.emptyFirstList = true

		resp, err := f.service.GetCourtBookings(context.Background(), request())
		require.NoError(t, err)

		assert.Len(t, resp.Bookings, 1)
		assert.False(t, resp.FromCache)
		assert.Equal(t, 2, f.repo.listCalls)
	})

	t.Run("second empty response is accepted as truth", func(t *testing.T) {
		f := newFixture()

		resp, err := f.service.GetCourtBookings(context.Background(), request())
		require.NoError(t, err)

		assert.Empty(t, resp.Bookings)
		assert.Equal(t, 2, f.repo.listCalls)
	})

	t.Run("successful read stores snapshot", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))

		_, err := f.service.GetCourtBookings(context.Background(), request())
		require.NoError(t, err)

		assert.Equal(t, 1, f.cache.stored)
	})

	t.Run("repository error falls back to snapshot", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))
		f.cache.snapshots[1] = []*domain.Booking{scheduledBooking(1)}
		f.repo.listErr = errors.New("connection refused")

		resp, err := f.service.GetCourtBookings(context.Background(), request())
		require.NoError(t, err)

		assert.True(t, resp.FromCache)
		assert.Len(t, resp.Bookings, 1)
	})

	t.Run("repository error without snapshot", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))
		f.repo.listErr = errors.New("connection refused")

		_, err := f.service.GetCourtBookings(context.Background(), request())
		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("non-manager is rejected", func(t *testing.T) {
		f := newFixture(scheduledBooking(1))

		req := request()
		req.UserID = strangerID
		_, err := f.service.GetCourtBookings(context.Background(), req)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}
