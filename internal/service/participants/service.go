package participants

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/booking"
	participantRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/participant"
	clubClient "github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/internal/reconciler"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/participants/models"
)

// Service сервис сохранения списка участников бронирования
type Service struct {
	bookingRepo     BookingRepository
	participantRepo ParticipantRepository
	clubClient      ClubServiceClient
	guard           EditGuard
	notifier        SchedulerNotifier
	logger          Logger
}

// NewService создает новый экземпляр сервиса участников
func NewService(
	bookingRepo BookingRepository,
	participantRepo ParticipantRepository,
	clubClient ClubServiceClient,
	guard EditGuard,
	notifier SchedulerNotifier,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:     bookingRepo,
		participantRepo: participantRepo,
		clubClient:      clubClient,
		guard:           guard,
		notifier:        notifier,
		logger:          logger,
	}
}

// Save сливает итоговый выбор клиентов в сохранённые строки участников.
// Неизменённый выбор - no-op. Конфликт позиции отклоняет только
// конфликтную строку, остальные строки пакета применяются.
func (s *Service) Save(ctx context.Context, bookingID int64, req *models.SaveParticipantsRequest) (*models.SaveParticipantsResponse, error) {
	if len(req.Participants) == 0 {
		return nil, fmt.Errorf("%w: empty participant selection", ErrInvalidInput)
	}
	for _, p := range req.Participants {
		if p.ID <= 0 {
			return nil, fmt.Errorf("%w: participant client id must be positive", ErrInvalidInput)
		}
	}

	booking, err := s.fetchBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.ClubID, req.UserID); err != nil {
		s.logger.Warn("Save: access denied for user=%d to booking id=%d", req.UserID, bookingID)
		return nil, err
	}

	// Сессия редактирования: фоновые обновления откладываются до её конца
	token := s.guard.BeginEdit(bookingID)
	defer s.guard.EndEdit(token)

	old, err := s.participantRepo.ListActiveByBookingIDs(ctx, []int64{bookingID})
	if err != nil {
		s.logger.Error("Save: failed to load participants for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Save - load participants: %v", ErrInternal, err)
	}

	selection := req.ToDomainSelection()

	if !reconciler.SelectionChanged(old, selection) {
		s.logger.Info("Save: selection unchanged for booking id=%d, nothing to do", bookingID)
		return &models.SaveParticipantsResponse{
			Participants: models.FromDomainParticipants(old),
			NoOp:         true,
		}, nil
	}

	plan := reconciler.BuildPlan(bookingID, old, selection)
	skipped, err := s.applyPlan(ctx, bookingID, old, plan)
	if err != nil {
		return nil, err
	}

	s.guard.MarkLocalWrite(bookingID)
	s.notifier.NotifyChange()

	current, err := s.participantRepo.ListActiveByBookingIDs(ctx, []int64{bookingID})
	if err != nil {
		s.logger.Error("Save: failed to reload participants for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Save - reload participants: %v", ErrInternal, err)
	}

	s.logger.Info("Save: booking id=%d participants saved (updates=%d inserts=%d deletes=%d skipped=%d)",
		bookingID, len(plan.Updates), len(plan.Inserts), len(plan.SoftDeleteIDs), skipped)

	return &models.SaveParticipantsResponse{
		Participants: models.FromDomainParticipants(current),
		SkippedRows:  skipped,
	}, nil
}

// applyPlan применяет план построчно. Порядок: мягкие удаления, обновления,
// вставки - освобождённые позиции становятся доступными до их повторного
// использования. Конфликт уникальности позиции изолируется на уровне строки.
//
// Обновления позиций идут в две фазы: перемещаемые строки сначала паркуются
// на временные отрицательные позиции и только потом получают итоговые.
// Иначе чистая перестановка (A и B меняются местами) спотыкается об
// уникальность (booking_id, position) на каждом промежуточном шаге.
func (s *Service) applyPlan(ctx context.Context, bookingID int64, old []*domain.Participant, plan *reconciler.Plan) (int, error) {
	skipped := 0

	if len(plan.SoftDeleteIDs) > 0 {
		if err := s.participantRepo.SoftDelete(ctx, plan.SoftDeleteIDs); err != nil {
			s.logger.Error("applyPlan: soft delete failed for booking id=%d: %v", bookingID, err)
			return 0, fmt.Errorf("%w: applyPlan - soft delete: %v", ErrInternal, err)
		}
	}

	if err := s.parkMovedRows(ctx, bookingID, old, plan.Updates); err != nil {
		return 0, err
	}

	for _, row := range plan.Updates {
		if err := s.participantRepo.Update(ctx, row); err != nil {
			if errors.Is(err, participantRepo.ErrDuplicatePosition) {
				s.logger.Warn("applyPlan: position conflict on update, booking id=%d client=%d position=%d: %v",
					bookingID, row.ClientID, row.Position, err)
				skipped++
				continue
			}
			s.logger.Error("applyPlan: update failed for booking id=%d participant id=%d: %v", bookingID, row.ID, err)
			return skipped, fmt.Errorf("%w: applyPlan - update participant: %v", ErrInternal, err)
		}
	}

	for _, row := range plan.Inserts {
		if _, err := s.participantRepo.Insert(ctx, row); err != nil {
			if errors.Is(err, participantRepo.ErrDuplicatePosition) {
				s.logger.Warn("applyPlan: position conflict on insert, booking id=%d client=%d position=%d: %v",
					bookingID, row.ClientID, row.Position, err)
				skipped++
				continue
			}
			s.logger.Error("applyPlan: insert failed for booking id=%d client=%d: %v", bookingID, row.ClientID, err)
			return skipped, fmt.Errorf("%w: applyPlan - insert participant: %v", ErrInternal, err)
		}
	}

	return skipped, nil
}

// parkMovedRows уводит строки, меняющие позицию, на временные отрицательные
// позиции. Отрицательные значения никогда не выдаются планом, поэтому
// парковка не конфликтует ни между собой, ни с итоговыми позициями.
func (s *Service) parkMovedRows(ctx context.Context, bookingID int64, old []*domain.Participant, updates []*domain.Participant) error {
	oldPositions := make(map[int64]int, len(old))
	for _, row := range old {
		oldPositions[row.ID] = row.Position
	}

	parking := 0
	for _, row := range updates {
		pos, ok := oldPositions[row.ID]
		if !ok || pos == row.Position {
			continue
		}

		parking++
		parked := *row
		parked.Position = -parking

		if err := s.participantRepo.Update(ctx, &parked); err != nil {
			s.logger.Error("parkMovedRows: failed to park participant id=%d for booking id=%d: %v",
				row.ID, bookingID, err)
			return fmt.Errorf("%w: parkMovedRows - park participant: %v", ErrInternal, err)
		}
	}

	return nil
}

// fetchBooking достаёт бронирование, транслируя ошибку not found
func (s *Service) fetchBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("fetchBooking: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("fetchBooking: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: fetchBooking - repository error: %v", ErrInternal, err)
	}

	return booking, nil
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
