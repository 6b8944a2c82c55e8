package participants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	storage "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/participant"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/participants/models"
)

const (
	testBookingID = int64(10)
	managerID     = int64(7)
)

// fakeParticipantRepo in-memory репозиторий, принудительно проверяющий
// уникальность активной пары (booking_id, position) как её проверяет БД
type fakeParticipantRepo struct {
	rows   map[int64]*domain.Participant
	nextID int64

	// conflictPositions позиции, на которые запись всегда отклоняется
	// (имитация строки, удерживаемой вне плана)
	conflictPositions map[int]bool
}

func newFakeParticipantRepo(rows ...*domain.Participant) *fakeParticipantRepo {
	repo := &fakeParticipantRepo{
		rows:              make(map[int64]*domain.Participant),
		nextID:            100,
		conflictPositions: make(map[int]bool),
	}
	for _, row := range rows {
		clone := *row
		repo.rows[row.ID] = &clone
	}
	return repo
}

func (r *fakeParticipantRepo) positionTaken(bookingID int64, position int, exceptID int64) bool {
	if r.conflictPositions[position] {
		return true
	}
	for _, row := range r.rows {
		if row.ID == exceptID || row.IsDeleted() || row.BookingID != bookingID {
			continue
		}
		if row.Position == position {
			return true
		}
	}
	return false
}

func (r *fakeParticipantRepo) ListActiveByBookingIDs(_ context.Context, bookingIDs []int64) ([]*domain.Participant, error) {
	list := make([]*domain.Participant, 0)
	for _, id := range bookingIDs {
		for _, row := range r.rows {
			if row.BookingID == id && !row.IsDeleted() {
				clone := *row
				list = append(list, &clone)
			}
		}
	}
	// Порядок как в репозитории: по позиции
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[j].Position < list[i].Position {
				list[i], list[j] = list[j], list[i]
			}
		}
	}
	return list, nil
}

func (r *fakeParticipantRepo) Insert(_ context.Context, p *domain.Participant) (*domain.Participant, error) {
	if r.positionTaken(p.BookingID, p.Position, 0) {
		return nil, storage.ErrDuplicatePosition
	}

	r.nextID++
	clone := *p
	clone.ID = r.nextID
	r.rows[clone.ID] = &clone
	return &clone, nil
}

func (r *fakeParticipantRepo) Update(_ context.Context, p *domain.Participant) error {
	row, ok := r.rows[p.ID]
	if !ok || row.IsDeleted() {
		return storage.ErrParticipantNotFound
	}

	if r.positionTaken(p.BookingID, p.Position, p.ID) {
		return storage.ErrDuplicatePosition
	}

	clone := *p
	r.rows[p.ID] = &clone
	return nil
}

func (r *fakeParticipantRepo) SoftDelete(_ context.Context, ids []int64) error {
	now := time.Now()
	for _, id := range ids {
		if row, ok := r.rows[id]; ok {
			row.DeletedAt = &now
		}
	}
	return nil
}

func (r *fakeParticipantRepo) activeByPosition(t *testing.T) map[int]*domain.Participant {
	t.Helper()
	byPosition := make(map[int]*domain.Participant)
	for _, row := range r.rows {
		if row.IsDeleted() {
			continue
		}
		require.NotContains(t, byPosition, row.Position, "две активные строки на одной позиции")
		byPosition[row.Position] = row
	}
	return byPosition
}

type fakeBookingRepo struct{}

func (fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return &domain.Booking{ID: id, ClubID: 1, Status: domain.StatusScheduled}, nil
}

type fakeClubClient struct{}

func (fakeClubClient) GetClub(_ context.Context, clubID int64) (*clubservice.Club, error) {
	return &clubservice.Club{ID: clubID, ManagerIDs: []int64{managerID}}, nil
}

type fakeGuard struct {
	begun, ended int
	localWrites  int
}

func (g *fakeGuard) BeginEdit(int64) string { g.begun++; return "token" }
func (g *fakeGuard) EndEdit(string)         { g.ended++ }
func (g *fakeGuard) MarkLocalWrite(int64)   { g.localWrites++ }

type fakeNotifier struct {
	calls int
}

func (n *fakeNotifier) NotifyChange() { n.calls++ }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestService(repo *fakeParticipantRepo) (*Service, *fakeGuard, *fakeNotifier) {
	guard := &fakeGuard{}
	notifier := &fakeNotifier{}
	service := NewService(fakeBookingRepo{}, repo, fakeClubClient{}, guard, notifier, nopLogger{})
	return service, guard, notifier
}

func activeRow(id, clientID int64, position int, name string) *domain.Participant {
	return &domain.Participant{
		ID:               id,
		BookingID:        testBookingID,
		ClientID:         clientID,
		DisplayName:      name,
		Position:         position,
		PaymentStatus:    domain.PaymentPending,
		IsRepresentative: position == 1,
	}
}

func paidRow(id, clientID int64, position int, name string, value float64) *domain.Participant {
	row := activeRow(id, clientID, position, name)
	row.PaymentValue = value
	row.PaymentStatus = domain.PaymentPaid
	return row
}

func saveRequest(refs ...models.ClientRefInput) *models.SaveParticipantsRequest {
	return &models.SaveParticipantsRequest{UserID: managerID, Participants: refs}
}

func TestSave_SwapPreservesOrderAndPayments(t *testing.T) {
	// Чистая перестановка двух строк: каждая позиция по отдельности занята,
	// применение должно пройти целиком, без отклонённых строк
	repo := newFakeParticipantRepo(
		paidRow(1, 100, 1, "Анна", 1500),
		activeRow(2, 200, 2, "Борис"),
	)
	service, guard, notifier := newTestService(repo)

	resp, err := service.Save(context.Background(), testBookingID, saveRequest(
		models.ClientRefInput{ID: 200, Name: "Борис"},
		models.ClientRefInput{ID: 100, Name: "Анна"},
	))
	require.NoError(t, err)

	assert.Zero(t, resp.SkippedRows)
	assert.False(t, resp.NoOp)

	byPosition := repo.activeByPosition(t)
	require.Len(t, byPosition, 2)

	assert.Equal(t, int64(200), byPosition[1].ClientID)
	assert.Equal(t, int64(100), byPosition[2].ClientID)

	// Платёж Анны следует за ней на новую позицию
	assert.Equal(t, domain.PaymentPaid, byPosition[2].PaymentStatus)
	assert.Equal(t, 1500.0, byPosition[2].PaymentValue)

	// Представитель всегда на позиции 1
	assert.True(t, byPosition[1].IsRepresentative)
	assert.False(t, byPosition[2].IsRepresentative)

	assert.Equal(t, 1, guard.begun)
	assert.Equal(t, 1, guard.ended)
	assert.Equal(t, 1, guard.localWrites)
	assert.Equal(t, 1, notifier.calls)
}

func TestSave_RotationAppliesFully(t *testing.T) {
	repo := newFakeParticipantRepo(
		paidRow(1, 100, 1, "Анна", 1000),
		paidRow(2, 200, 2, "Борис", 2000),
		activeRow(3, 300, 3, "Вера"),
	)
	service, _, _ := newTestService(repo)

	// Ротация: каждая строка двигается на занятую позицию
	resp, err := service.Save(context.Background(), testBookingID, saveRequest(
		models.ClientRefInput{ID: 300, Name: "Вера"},
		models.ClientRefInput{ID: 100, Name: "Анна"},
		models.ClientRefInput{ID: 200, Name: "Борис"},
	))
	require.NoError(t, err)
	assert.Zero(t, resp.SkippedRows)

	byPosition := repo.activeByPosition(t)
	require.Len(t, byPosition, 3)

	assert.Equal(t, int64(300), byPosition[1].ClientID)
	assert.Equal(t, int64(100), byPosition[2].ClientID)
	assert.Equal(t, int64(200), byPosition[3].ClientID)

	assert.Equal(t, 1000.0, byPosition[2].PaymentValue)
	assert.Equal(t, 2000.0, byPosition[3].PaymentValue)
}

func TestSave_ReorderWithAddAndRemove(t *testing.T) {
	repo := newFakeParticipantRepo(
		paidRow(1, 100, 1, "Анна", 1500),
		activeRow(2, 200, 2, "Борис"),
	)
	service, _, _ := newTestService(repo)

	// Борис убран, новый клиент встаёт на позицию 1, Анна сдвигается на 2
	resp, err := service.Save(context.Background(), testBookingID, saveRequest(
		models.ClientRefInput{ID: 300, Name: "Вера"},
		models.ClientRefInput{ID: 100, Name: "Анна"},
	))
	require.NoError(t, err)
	assert.Zero(t, resp.SkippedRows)

	byPosition := repo.activeByPosition(t)
	require.Len(t, byPosition, 2)

	assert.Equal(t, int64(300), byPosition[1].ClientID)
	assert.Equal(t, int64(100), byPosition[2].ClientID)
	assert.Equal(t, 1500.0, byPosition[2].PaymentValue)

	// Строка Бориса мягко удалена, не перезаписана
	require.NotNil(t, repo.rows[2].DeletedAt)
}

func TestSave_GenuineConflictSkipsOnlyThatRow(t *testing.T) {
	// Позиция 2 удерживается вне плана (имитация конкурентной записи):
	// конфликтная строка отклоняется, остальные применяются
	repo := newFakeParticipantRepo(
		activeRow(1, 100, 1, "Анна"),
	)
	repo.conflictPositions[2] = true
	service, _, _ := newTestService(repo)

	resp, err := service.Save(context.Background(), testBookingID, saveRequest(
		models.ClientRefInput{ID: 100, Name: "Анна"},
		models.ClientRefInput{ID: 200, Name: "Борис"},
	))
	require.NoError(t, err)

	assert.Equal(t, 1, resp.SkippedRows)

	byPosition := repo.activeByPosition(t)
	assert.Equal(t, int64(100), byPosition[1].ClientID)
	assert.NotContains(t, byPosition, 2)
}

func TestSave_UnchangedSelectionIsNoOp(t *testing.T) {
	repo := newFakeParticipantRepo(
		activeRow(1, 100, 1, "Анна"),
		activeRow(2, 200, 2, "Борис"),
	)
	service, guard, notifier := newTestService(repo)

	resp, err := service.Save(context.Background(), testBookingID, saveRequest(
		models.ClientRefInput{ID: 100, Name: "Анна"},
		models.ClientRefInput{ID: 200, Name: "Борис"},
	))
	require.NoError(t, err)

	assert.True(t, resp.NoOp)
	assert.Zero(t, notifier.calls)
	assert.Zero(t, guard.localWrites)
}

func TestSave_InvalidInput(t *testing.T) {
	service, _, _ := newTestService(newFakeParticipantRepo())

	_, err := service.Save(context.Background(), testBookingID, saveRequest())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.Save(context.Background(), testBookingID, saveRequest(
		models.ClientRefInput{ID: -1, Name: "нет"},
	))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
