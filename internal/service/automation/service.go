package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	configRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/automation"
	clubClient "github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/automation/models"
)

// Service сервис конфигурации автоматизации статусов
type Service struct {
	configRepo ConfigRepository
	clubClient ClubServiceClient
	notifier   SchedulerNotifier
	logger     Logger
}

// NewService создает новый экземпляр сервиса конфигурации автоматизации
func NewService(
	configRepo ConfigRepository,
	clubClient ClubServiceClient,
	notifier SchedulerNotifier,
	logger Logger,
) *Service {
	return &Service{
		configRepo: configRepo,
		clubClient: clubClient,
		notifier:   notifier,
		logger:     logger,
	}
}

// GetByClub получает конфигурацию автоматизации клуба.
// Если запись не создана, возвращается конфигурация по умолчанию.
func (s *Service) GetByClub(ctx context.Context, clubID, userID int64) (*models.ConfigResponse, error) {
	if err := s.checkManagerAccess(ctx, clubID, userID); err != nil {
		s.logger.Warn("GetByClub: access denied for user=%d to club=%d", userID, clubID)
		return nil, err
	}

	config, err := s.configRepo.GetByClub(ctx, clubID)
	if err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return models.FromDomainConfig(domain.DefaultAutomationConfig(clubID), true), nil
		}
		s.logger.Error("GetByClub: repository error for club=%d: %v", clubID, err)
		return nil, fmt.Errorf("%w: GetByClub - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainConfig(config, false), nil
}

// Update обновляет конфигурацию автоматизации клуба.
// Доступно только менеджерам клуба. Незаполненные поля сохраняют
// текущие значения (либо значения по умолчанию, если записи ещё нет).
func (s *Service) Update(ctx context.Context, req *models.UpdateConfigRequest) (*models.ConfigResponse, error) {
	s.logger.Info("Update: updating automation config for club=%d by user=%d", req.ClubID, req.UserID)

	if req.AutoConfirmLeadMinutes != nil && *req.AutoConfirmLeadMinutes <= 0 {
		return nil, fmt.Errorf("%w: autoConfirmLeadMinutes must be positive", ErrInvalidInput)
	}

	if err := s.checkManagerAccess(ctx, req.ClubID, req.UserID); err != nil {
		s.logger.Warn("Update: access denied for user=%d to club=%d", req.UserID, req.ClubID)
		return nil, err
	}

	current, err := s.configRepo.GetByClub(ctx, req.ClubID)
	if err != nil {
		if !errors.Is(err, configRepo.ErrConfigNotFound) {
			s.logger.Error("Update: repository error for club=%d: %v", req.ClubID, err)
			return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
		}
		current = domain.DefaultAutomationConfig(req.ClubID)
	}

	if req.AutoConfirmEnabled != nil {
		current.AutoConfirmEnabled = *req.AutoConfirmEnabled
	}
	if req.AutoConfirmLeadMinutes != nil {
		current.AutoConfirmLeadMinutes = *req.AutoConfirmLeadMinutes
	}
	if req.AutoStartEnabled != nil {
		current.AutoStartEnabled = *req.AutoStartEnabled
	}
	if req.AutoFinishEnabled != nil {
		current.AutoFinishEnabled = *req.AutoFinishEnabled
	}

	saved, err := s.configRepo.Upsert(ctx, current)
	if err != nil {
		s.logger.Error("Update: failed to save config for club=%d: %v", req.ClubID, err)
		return nil, fmt.Errorf("%w: Update - save config: %v", ErrInternal, err)
	}

	// Планировщик должен пересчитать триггеры с новыми порогами
	s.notifier.NotifyChange()

	s.logger.Info("Update: automation config saved for club=%d", req.ClubID)
	return models.FromDomainConfig(saved, false), nil
}

// checkManagerAccess проверяет, что пользователь является менеджером клуба
func (s *Service) checkManagerAccess(ctx context.Context, clubID, userID int64) error {
	club, err := s.clubClient.GetClub(ctx, clubID)
	if err != nil {
		if errors.Is(err, clubClient.ErrClubNotFound) {
			return ErrClubNotFound
		}
		s.logger.Error("checkManagerAccess: ClubService error for club=%d: %v", clubID, err)
		return fmt.Errorf("%w: checkManagerAccess - ClubService error: %v", ErrInternal, err)
	}

	if !club.IsManager(userID) {
		return ErrAccessDenied
	}

	return nil
}
