package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/booking"
	clubClient "github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-CourtBookingService/pkg/ptr"
)

// Service сервис для работы с бронированиями кортов
type Service struct {
	bookingRepo     BookingRepository
	participantRepo ParticipantRepository
	clubClient      ClubServiceClient
	cache           SnapshotCache
	guard           AutomationGuard
	notifier        SchedulerNotifier
	clock           Clock
	logger          Logger

	// emptyRetryDelay пауза перед повторной попыткой при пустом первом ответе
	emptyRetryDelay time.Duration
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	participantRepo ParticipantRepository,
	clubClient ClubServiceClient,
	cache SnapshotCache,
	guard AutomationGuard,
	notifier SchedulerNotifier,
	clock Clock,
	logger Logger,
	emptyRetryDelay time.Duration,
) *Service {
	return &Service{
		bookingRepo:     bookingRepo,
		participantRepo: participantRepo,
		clubClient:      clubClient,
		cache:           cache,
		guard:           guard,
		notifier:        notifier,
		clock:           clock,
		logger:          logger,
		emptyRetryDelay: emptyRetryDelay,
	}
}

// GetByID получает бронирование по ID вместе с активными участниками.
// Доступно только менеджерам клуба.
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	booking, err := s.fetchBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.ClubID, userID); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, err
	}

	participants, err := s.participantRepo.ListActiveByBookingIDs(ctx, []int64{id})
	if err != nil {
		s.logger.Error("GetByID: failed to load participants for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - load participants: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking, participants), nil
}

// Cancel отменяет бронирование. Терминальный переход: автоматизация
// отключается, записываются метаданные отмены (актор, время, причина).
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", id, req.UserID)

	booking, err := s.fetchBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.ClubID, req.UserID); err != nil {
		return nil, err
	}

	if !booking.CanBeCanceled() {
		s.logger.Warn("Cancel: booking id=%d in status=%s cannot be cancelled", id, booking.Status)
		return nil, ErrCannotCancel
	}

	now := s.clock.Now()
	update := domain.StatusUpdate{
		AutoDisabled: ptr.Ptr(true),
		CanceledBy:   &req.UserID,
		CanceledAt:   &now,
	}
	if req.CancellationReason != "" {
		update.CancellationReason = &req.CancellationReason
	}

	return s.applyStatus(ctx, booking, domain.StatusCanceled, update)
}

// MarkAbsent помечает неявку клиента. Терминальный переход, автоматизация
// отключается.
func (s *Service) MarkAbsent(ctx context.Context, id int64, req *models.MarkAbsentRequest) (*models.BookingResponse, error) {
	s.logger.Info("MarkAbsent: marking booking id=%d absent by user=%d", id, req.UserID)

	booking, err := s.fetchBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.ClubID, req.UserID); err != nil {
		return nil, err
	}

	if booking.IsTerminal() {
		s.logger.Warn("MarkAbsent: booking id=%d already terminal status=%s", id, booking.Status)
		return nil, ErrCannotCancel
	}

	now := s.clock.Now()
	update := domain.StatusUpdate{
		AutoDisabled: ptr.Ptr(true),
		CanceledBy:   &req.UserID,
		CanceledAt:   &now,
	}
	if req.Reason != "" {
		update.CancellationReason = &req.Reason
	}

	return s.applyStatus(ctx, booking, domain.StatusAbsent, update)
}

// UpdateStatus вручную меняет статус бронирования.
// Переход в терминальный статус отключает автоматизацию.
// Переход в нетерминальный статус создаёт ручное подавление автоматизации,
// кроме случая явного запроса реактивации: тогда auto_disabled снимается
// и подавление очищается.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: booking id=%d -> status=%s by user=%d (reactivate=%t)",
		id, req.Status, req.UserID, req.ReactivateAutomation)

	status, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}

	booking, err := s.fetchBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkManagerAccess(ctx, booking.ClubID, req.UserID); err != nil {
		return nil, err
	}

	update := domain.StatusUpdate{}
	terminal := status == domain.StatusCanceled || status == domain.StatusAbsent

	switch {
	case terminal:
		now := s.clock.Now()
		update.AutoDisabled = ptr.Ptr(true)
		update.CanceledBy = &req.UserID
		update.CanceledAt = &now
	case req.ReactivateAutomation:
		update.AutoDisabled = ptr.Ptr(false)
		s.guard.ClearManualOverride(id)
	default:
		// Ручная смена статуса без реактивации: автоматизация этого
		// бронирования подавляется на время защитного окна
		s.guard.MarkManualOverride(id)
	}

	return s.applyStatus(ctx, booking, status, update)
}

// GetCourtBookings получает бронирования клуба с фильтрацией.
// Пустой первый ответ трактуется как возможная задержка репликации и
// перечитывается один раз; второй пустой ответ принимается как истина.
// При недоступности хранилища отдаётся снапшот из кэша, если он есть.
func (s *Service) GetCourtBookings(ctx context.Context, req *models.GetCourtBookingsRequest) (*models.BookingListResponse, error) {
	if err := s.checkManagerAccess(ctx, req.ClubID, req.UserID); err != nil {
		return nil, err
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetCourtBookings: invalid status=%v for club=%d", req.Status, req.ClubID)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	list, err := s.bookingRepo.ListWithFilter(ctx, filter)
	if err != nil {
		return s.serveSnapshot(ctx, req, err)
	}

	if len(list) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.emptyRetryDelay):
		}

		list, err = s.bookingRepo.ListWithFilter(ctx, filter)
		if err != nil {
			return s.serveSnapshot(ctx, req, err)
		}
	}

	if req.From != nil {
		s.cache.Store(ctx, req.ClubID, *req.From, list)
	}

	return s.buildListResponse(ctx, list, false)
}

// serveSnapshot деградация списка при недоступном хранилище
func (s *Service) serveSnapshot(ctx context.Context, req *models.GetCourtBookingsRequest, cause error) (*models.BookingListResponse, error) {
	s.logger.Error("GetCourtBookings: repository error for club=%d: %v", req.ClubID, cause)

	if req.From == nil {
		return nil, fmt.Errorf("%w: GetCourtBookings - repository error: %v", ErrInternal, cause)
	}

	cached, cacheErr := s.cache.Load(ctx, req.ClubID, *req.From)
	if cacheErr != nil {
		return nil, fmt.Errorf("%w: GetCourtBookings - repository error: %v", ErrInternal, cause)
	}

	s.logger.Warn("GetCourtBookings: serving cached snapshot for club=%d", req.ClubID)
	return s.buildListResponse(ctx, cached, true)
}

// buildListResponse подгружает участников и собирает ответ
func (s *Service) buildListResponse(ctx context.Context, list []*domain.Booking, fromCache bool) (*models.BookingListResponse, error) {
	byBooking := make(map[int64][]*domain.Participant)

	if len(list) > 0 && !fromCache {
		ids := make([]int64, len(list))
		for i, b := range list {
			ids[i] = b.ID
		}

		participants, err := s.participantRepo.ListActiveByBookingIDs(ctx, ids)
		if err != nil {
			s.logger.Error("GetCourtBookings: failed to load participants: %v", err)
			return nil, fmt.Errorf("%w: GetCourtBookings - load participants: %v", ErrInternal, err)
		}

		for _, p := range participants {
			byBooking[p.BookingID] = append(byBooking[p.BookingID], p)
		}
	}

	resp := &models.BookingListResponse{
		Bookings:  make([]models.BookingResponse, 0, len(list)),
		FromCache: fromCache,
	}
	for _, b := range list {
		resp.Bookings = append(resp.Bookings, *models.FromDomainBooking(b, byBooking[b.ID]))
	}

	return resp, nil
}

// applyStatus записывает статус, отмечает локальную запись и будит планировщик
func (s *Service) applyStatus(ctx context.Context, booking *domain.Booking, status domain.BookingStatus, update domain.StatusUpdate) (*models.BookingResponse, error) {
	if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, status, update); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("applyStatus: failed to update booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: applyStatus - update status: %v", ErrInternal, err)
	}

	// Защита от перетирания свежей локальной записи фоновым чтением
	s.guard.MarkLocalWrite(booking.ID)
	s.notifier.NotifyChange()

	booking.Status = status
	if update.AutoDisabled != nil {
		booking.AutoDisabled = *update.AutoDisabled
	}
	booking.CanceledBy = update.CanceledBy
	booking.CanceledAt = update.CanceledAt
	if update.CancellationReason != nil {
		booking.CancellationReason = update.CancellationReason
	}

	participants, err := s.participantRepo.ListActiveByBookingIDs(ctx, []int64{booking.ID})
	if err != nil {
		s.logger.Warn("applyStatus: failed to load participants for booking id=%d: %v", booking.ID, err)
		participants = nil
	}

	s.logger.Info("applyStatus: booking id=%d moved to status=%s", booking.ID, status)
	return models.FromDomainBooking(booking, participants), nil
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
