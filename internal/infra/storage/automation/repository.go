package automation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-CourtBookingService/pkg/psqlbuilder"
)

// DBExecutor интерфейс исполнителя запросов
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий для работы с конфигурацией автоматизации статусов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория конфигурации
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByClub получает конфигурацию автоматизации для клуба
func (r *Repository) GetByClub(ctx context.Context, clubID int64) (*domain.AutomationConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"club_id",
		"auto_confirm_enabled",
		"auto_confirm_lead_minutes",
		"auto_start_enabled",
		"auto_finish_enabled",
		"created_at",
		"updated_at",
	).
		From("club_automation_config").
		Where(squirrel.Eq{"club_id": clubID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByClub - build select query: %v", ErrBuildQuery, err)
	}

	var cfg domain.AutomationConfig
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&cfg.ID,
		&cfg.ClubID,
		&cfg.AutoConfirmEnabled,
		&cfg.AutoConfirmLeadMinutes,
		&cfg.AutoStartEnabled,
		&cfg.AutoFinishEnabled,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByClub - scan config: %v", ErrScanRow, err)
	}

	cfg.CreatedAt = createdAt.Time
	cfg.UpdatedAt = updatedAt.Time

	return &cfg, nil
}

// Upsert создает или обновляет конфигурацию автоматизации клуба
func (r *Repository) Upsert(ctx context.Context, cfg *domain.AutomationConfig) (*domain.AutomationConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("club_automation_config").
		Columns(
			"club_id",
			"auto_confirm_enabled",
			"auto_confirm_lead_minutes",
			"auto_start_enabled",
			"auto_finish_enabled",
		).
		Values(
			cfg.ClubID,
			cfg.AutoConfirmEnabled,
			cfg.AutoConfirmLeadMinutes,
			cfg.AutoStartEnabled,
			cfg.AutoFinishEnabled,
		).
		Suffix("ON CONFLICT (club_id) DO UPDATE SET " +
			"auto_confirm_enabled = EXCLUDED.auto_confirm_enabled, " +
			"auto_confirm_lead_minutes = EXCLUDED.auto_confirm_lead_minutes, " +
			"auto_start_enabled = EXCLUDED.auto_start_enabled, " +
			"auto_finish_enabled = EXCLUDED.auto_finish_enabled, " +
			"updated_at = NOW() " +
			"RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&cfg.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute query: %v", ErrExecQuery, err)
	}

	cfg.CreatedAt = createdAt.Time
	cfg.UpdatedAt = updatedAt.Time

	return cfg, nil
}
