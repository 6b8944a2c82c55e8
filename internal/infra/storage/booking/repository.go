package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-CourtBookingService/pkg/psqlbuilder"
)

const bookingColumns = "id, club_id, court_id, starts_at, ends_at, status, modality, " +
	"auto_disabled, canceled_by, canceled_at, cancellation_reason, notes, created_at, updated_at"

// Repository репозиторий для работы с бронированиями кортов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Если в контексте передана активная транзакция (через context.Value), использует её -
// это обязательно при создании с проверкой занятости слота, чтобы исключить гонку.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("court_bookings").
		Columns(
			"club_id",
			"court_id",
			"starts_at",
			"ends_at",
			"status",
			"modality",
			"auto_disabled",
			"notes",
		).
		Values(
			booking.ClubID,
			booking.CourtID,
			booking.StartsAt,
			booking.EndsAt,
			booking.Status,
			booking.Modality,
			booking.AutoDisabled,
			booking.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns).
		From("court_bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// ListWithFilter получает бронирования клуба с гибкой фильтрацией.
// Поддерживает фильтрацию по корту, периоду [From, To), статусу и включению
// отменённых бронирований. Внутри транзакции при фильтре на один день
// добавляет FOR UPDATE - используется usecase создания бронирования.
func (r *Repository) ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns).
		From("court_bookings").
		Where(squirrel.Eq{"club_id": filter.ClubID})

	if filter.CourtID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"court_id": *filter.CourtID})
	}

	// Интервал отбирается по пересечению с [From, To):
	// бронирование попадает в выборку, если оно не закончилось до From
	// и не начинается после To
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.Gt{"ends_at": *filter.From})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"starts_at": *filter.To})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": string(domain.StatusCanceled)})
	}

	selectBuilder = selectBuilder.OrderBy("starts_at ASC, id ASC")

	// Блокировка строк внутри транзакции создания бронирования
	if dbmetrics.IsInTransaction(ctx) && filter.From != nil && filter.To != nil {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListAutomatable получает кандидатов для автоматических переходов статуса:
// бронирования в неконечных статусах с включённой автоматизацией,
// начинающиеся до горизонта until. Нижней границы нет намеренно -
// просроченные переходы должны добираться "catch-up" проходом.
func (r *Repository) ListAutomatable(ctx context.Context, until time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	statuses := make([]string, len(domain.AutomatableStatuses))
	for i, s := range domain.AutomatableStatuses {
		statuses[i] = string(s)
	}

	query, args, err := psqlbuilder.Select(bookingColumns).
		From("court_bookings").
		Where(squirrel.Eq{"status": statuses}).
		Where(squirrel.Eq{"auto_disabled": false}).
		Where(squirrel.Lt{"starts_at": until}).
		OrderBy("starts_at ASC, id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListAutomatable - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListAutomatable - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus обновляет статус бронирования вместе с опциональными полями
// (auto_disabled, метаданные отмены)
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus, update domain.StatusUpdate) error {
	if !domain.IsValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("court_bookings").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if update.AutoDisabled != nil {
		updateBuilder = updateBuilder.Set("auto_disabled", *update.AutoDisabled)
	}
	if update.CanceledBy != nil {
		updateBuilder = updateBuilder.Set("canceled_by", *update.CanceledBy)
	}
	if update.CanceledAt != nil {
		updateBuilder = updateBuilder.Set("canceled_at", *update.CanceledAt)
	}
	if update.CancellationReason != nil {
		updateBuilder = updateBuilder.Set("cancellation_reason", *update.CancellationReason)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// GetServerTime возвращает текущее время сервера БД.
// Используется ClockSync как авторитетный источник времени.
func (r *Repository) GetServerTime(ctx context.Context) (time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var serverTime time.Time
	if err := executor.QueryRowContext(ctx, "SELECT NOW()").Scan(&serverTime); err != nil {
		return time.Time{}, fmt.Errorf("%w: GetServerTime - execute query: %v", ErrExecQuery, err)
	}

	return serverTime, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует одну строку в бронирование
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.ClubID,
		&booking.CourtID,
		&booking.StartsAt,
		&booking.EndsAt,
		&booking.Status,
		&booking.Modality,
		&booking.AutoDisabled,
		&booking.CanceledBy,
		&booking.CanceledAt,
		&booking.CancellationReason,
		&booking.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
