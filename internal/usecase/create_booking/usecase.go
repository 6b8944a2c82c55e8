package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	jinzhunow "github.com/jinzhu/now"

	"github.com/m04kA/SMC-CourtBookingService/internal/allocator"
	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	clubClient "github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
)

// UseCase use case для создания бронирования корта
type UseCase struct {
	bookingRepo     BookingRepository
	participantRepo ParticipantRepository
	clubClient      ClubServiceClient
	txManager       TransactionManager
	guard           AutomationGuard
	notifier        SchedulerNotifier
	clock           Clock
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	participantRepo ParticipantRepository,
	clubClient ClubServiceClient,
	txManager TransactionManager,
	guard AutomationGuard,
	notifier SchedulerNotifier,
	clock Clock,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:     bookingRepo,
		participantRepo: participantRepo,
		clubClient:      clubClient,
		txManager:       txManager,
		guard:           guard,
		notifier:        notifier,
		clock:           clock,
		logger:          logger,
	}
}

// Execute выполняет use case создания бронирования.
// Проверка занятости и вставка выполняются в сериализуемой транзакции
// с блокировкой строк дня - конкурентное создание на тот же диапазон
// получит конфликт, а не двойную запись.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, club=%d, court=%d, range=[%s, %s)",
		req.UserID, req.ClubID, req.CourtID,
		req.StartsAt.Format(time.RFC3339), req.EndsAt.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем клуб и проверяем права
	club, err := uc.clubClient.GetClub(ctx, req.ClubID)
	if err != nil {
		if errors.Is(err, clubClient.ErrClubNotFound) {
			uc.logger.Warn("CreateBooking: club id=%d not found", req.ClubID)
			return nil, ErrClubNotFound
		}
		uc.logger.Error("CreateBooking: failed to get club id=%d: %v", req.ClubID, err)
		return nil, fmt.Errorf("%w: failed to get club: %v", ErrInternal, err)
	}

	if !club.IsManager(req.UserID) {
		uc.logger.Warn("CreateBooking: user=%d is not a manager of club=%d", req.UserID, req.ClubID)
		return nil, ErrAccessDenied
	}

	// 3. Проверяем существование и состояние корта
	court, ok := club.FindCourt(req.CourtID)
	if !ok {
		uc.logger.Warn("CreateBooking: court id=%d not found in club id=%d", req.CourtID, req.ClubID)
		return nil, ErrCourtNotFound
	}
	if !court.IsActive {
		uc.logger.Warn("CreateBooking: court id=%d is inactive", req.CourtID)
		return nil, ErrCourtInactive
	}

	// 4. Начало должно быть в будущем по скорректированным часам
	if !req.StartsAt.After(uc.clock.Now()) {
		uc.logger.Warn("CreateBooking: start %s is in the past", req.StartsAt.Format(time.RFC3339))
		return nil, ErrStartInPast
	}

	hours := allocator.DayScheduleFor(club.WorkingHours, req.StartsAt)
	if !hours.IsOpen {
		uc.logger.Warn("CreateBooking: club id=%d is closed on %s",
			req.ClubID, req.StartsAt.Format(domain.DateFormat))
		return nil, ErrClubClosed
	}

	var result *domain.Booking
	var participants []*domain.Participant

	// 5. Проверка занятости и вставка в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Транзакция может быть перезапущена при конфликте сериализации
		participants = participants[:0]

		dayStart := jinzhunow.With(req.StartsAt).BeginningOfDay()
		dayEnd := dayStart.AddDate(0, 0, 1)

		// Активные бронирования корта на день, с блокировкой FOR UPDATE
		filter := domain.BookingsFilter{
			ClubID:  req.ClubID,
			CourtID: &req.CourtID,
			From:    &dayStart,
			To:      &dayEnd,
		}

		bookings, err := uc.bookingRepo.ListWithFilter(txCtx, filter)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to list bookings: %v", err)
			return fmt.Errorf("%w: failed to list bookings: %v", ErrInternal, err)
		}

		day, err := allocator.NewDay(dayStart, hours, bookings)
		if err != nil {
			uc.logger.Error("CreateBooking: invalid operating hours for club=%d: %v", req.ClubID, err)
			return fmt.Errorf("%w: invalid operating hours: %v", ErrInternal, err)
		}

		free, err := day.IsRangeFree(req.StartsAt, req.EndsAt)
		if err != nil {
			uc.logger.Warn("CreateBooking: range validation failed: %v", err)
			return fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
		}
		if !free {
			uc.logger.Warn("CreateBooking: range [%s, %s) is not available on court=%d",
				req.StartsAt.Format(domain.TimeFormat), req.EndsAt.Format(domain.TimeFormat), req.CourtID)
			return ErrSlotNotAvailable
		}

		booking := &domain.Booking{
			ClubID:   req.ClubID,
			CourtID:  req.CourtID,
			StartsAt: req.StartsAt,
			EndsAt:   req.EndsAt,
			Status:   domain.StatusScheduled,
			Modality: court.Modality,
			Notes:    req.Notes,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// Начальные участники: первый в списке - представитель на позиции 1
		for i, ref := range req.toSelection() {
			row := &domain.Participant{
				BookingID:        created.ID,
				ClientID:         ref.ID,
				DisplayName:      ref.Name,
				Position:         i + 1,
				PaymentStatus:    domain.PaymentPending,
				IsRepresentative: i == 0,
			}

			inserted, err := uc.participantRepo.Insert(txCtx, row)
			if err != nil {
				uc.logger.Error("CreateBooking: failed to insert participant client=%d: %v", ref.ID, err)
				return fmt.Errorf("%w: failed to insert participant: %v", ErrInternal, err)
			}
			participants = append(participants, inserted)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Планировщик должен увидеть новое бронирование без ожидания sweep
	uc.guard.MarkLocalWrite(result.ID)
	uc.notifier.NotifyChange()

	uc.logger.Info("CreateBooking: successfully created booking id=%d with %d participants",
		result.ID, len(participants))

	return buildResponse(result, participants), nil
}

// buildResponse собирает ответ из созданных записей
func buildResponse(booking *domain.Booking, participants []*domain.Participant) *Response {
	resp := &Response{
		ID:        booking.ID,
		ClubID:    booking.ClubID,
		CourtID:   booking.CourtID,
		StartsAt:  booking.StartsAt,
		EndsAt:    booking.EndsAt,
		Status:    string(booking.Status),
		Modality:  booking.Modality,
		Notes:     booking.Notes,
		CreatedAt: booking.CreatedAt,
		UpdatedAt: booking.UpdatedAt,
	}

	for _, p := range participants {
		resp.Participants = append(resp.Participants, ParticipantResult{
			ID:               p.ID,
			ClientID:         p.ClientID,
			DisplayName:      p.DisplayName,
			Position:         p.Position,
			IsRepresentative: p.IsRepresentative,
		})
	}

	return resp
}
