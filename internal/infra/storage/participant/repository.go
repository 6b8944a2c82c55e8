package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-CourtBookingService/pkg/psqlbuilder"
)

// pgUniqueViolation код ошибки PostgreSQL при нарушении уникального ограничения
const pgUniqueViolation = "23505"

const participantColumns = "id, booking_id, client_id, display_name, position, " +
	"payment_value, payment_status, payment_method_id, apply_fee, is_representative, " +
	"deleted_at, created_at, updated_at"

// Repository репозиторий для работы со строками участников бронирований
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория участников
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListActiveByBookingIDs получает активные (не удалённые) строки участников
// для набора бронирований, упорядоченные по бронированию и позиции
func (r *Repository) ListActiveByBookingIDs(ctx context.Context, bookingIDs []int64) ([]*domain.Participant, error) {
	if len(bookingIDs) == 0 {
		return []*domain.Participant{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(participantColumns).
		From("booking_participants").
		Where(squirrel.Eq{"booking_id": bookingIDs}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("booking_id ASC, position ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByBookingIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByBookingIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanParticipants(rows)
}

// Insert создает новую строку участника
func (r *Repository) Insert(ctx context.Context, p *domain.Participant) (*domain.Participant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_participants").
		Columns(
			"booking_id",
			"client_id",
			"display_name",
			"position",
			"payment_value",
			"payment_status",
			"payment_method_id",
			"apply_fee",
			"is_representative",
		).
		Values(
			p.BookingID,
			p.ClientID,
			p.DisplayName,
			p.Position,
			p.PaymentValue,
			p.PaymentStatus,
			p.PaymentMethodID,
			p.ApplyFee,
			p.IsRepresentative,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &createdAt, &updatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: booking_id=%d position=%d", ErrDuplicatePosition, p.BookingID, p.Position)
		}
		return nil, fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return p, nil
}

// Update обновляет существующую строку участника по ID
func (r *Repository) Update(ctx context.Context, p *domain.Participant) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_participants").
		Set("client_id", p.ClientID).
		Set("display_name", p.DisplayName).
		Set("position", p.Position).
		Set("payment_value", p.PaymentValue).
		Set("payment_status", p.PaymentStatus).
		Set("payment_method_id", p.PaymentMethodID).
		Set("apply_fee", p.ApplyFee).
		Set("is_representative", p.IsRepresentative).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: booking_id=%d position=%d", ErrDuplicatePosition, p.BookingID, p.Position)
		}
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

// SoftDelete помечает строки участников удалёнными.
// Физическое удаление не используется - строки сохраняются для аудита.
func (r *Repository) SoftDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_participants").
		Set("deleted_at", squirrel.Expr("NOW()")).
		Set("is_representative", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SoftDelete - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: SoftDelete - execute update: %v", ErrExecQuery, err)
	}

	return nil
}

// scanParticipants сканирует результаты запроса в слайс участников
func scanParticipants(rows *sql.Rows) ([]*domain.Participant, error) {
	participants := make([]*domain.Participant, 0)

	for rows.Next() {
		var p domain.Participant
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&p.ID,
			&p.BookingID,
			&p.ClientID,
			&p.DisplayName,
			&p.Position,
			&p.PaymentValue,
			&p.PaymentStatus,
			&p.PaymentMethodID,
			&p.ApplyFee,
			&p.IsRepresentative,
			&p.DeletedAt,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanParticipants - scan row: %v", ErrScanRow, err)
		}

		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time

		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanParticipants - rows error: %v", ErrScanRow, err)
	}

	return participants, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}
