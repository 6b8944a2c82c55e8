package get_free_intervals

import (
	"context"
	"errors"
	"fmt"

	jinzhunow "github.com/jinzhu/now"

	"github.com/m04kA/SMC-CourtBookingService/internal/allocator"
	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	clubClient "github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
)

// UseCase use case для получения свободных интервалов корта на день
type UseCase struct {
	bookingRepo BookingRepository
	clubClient  ClubServiceClient
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	clubClient ClubServiceClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		clubClient:  clubClient,
		logger:      logger,
	}
}

// Execute возвращает свободные промежутки корта на указанный день:
// дыры между активными бронированиями, обрезанные по рабочим часам клуба
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetFreeIntervals: club=%d, court=%d, date=%s",
		req.ClubID, req.CourtID, req.Date.Format(domain.DateFormat))

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetFreeIntervals: validation failed: %v", err)
		return nil, err
	}

	club, err := uc.clubClient.GetClub(ctx, req.ClubID)
	if err != nil {
		if errors.Is(err, clubClient.ErrClubNotFound) {
			uc.logger.Warn("GetFreeIntervals: club id=%d not found", req.ClubID)
			return nil, ErrClubNotFound
		}
		uc.logger.Error("GetFreeIntervals: failed to get club id=%d: %v", req.ClubID, err)
		return nil, fmt.Errorf("%w: failed to get club: %v", ErrInternal, err)
	}

	if _, ok := club.FindCourt(req.CourtID); !ok {
		uc.logger.Warn("GetFreeIntervals: court id=%d not found in club id=%d", req.CourtID, req.ClubID)
		return nil, ErrCourtNotFound
	}

	hours := allocator.DayScheduleFor(club.WorkingHours, req.Date)

	resp := &Response{
		ClubID:    req.ClubID,
		CourtID:   req.CourtID,
		Date:      req.Date,
		IsOpen:    hours.IsOpen,
		Intervals: []Interval{},
	}

	if !hours.IsOpen {
		uc.logger.Info("GetFreeIntervals: club id=%d is closed on %s",
			req.ClubID, req.Date.Format(domain.DateFormat))
		return resp, nil
	}

	dayStart := jinzhunow.With(req.Date).BeginningOfDay()
	dayEnd := dayStart.AddDate(0, 0, 1)

	filter := domain.BookingsFilter{
		ClubID:  req.ClubID,
		CourtID: &req.CourtID,
		From:    &dayStart,
		To:      &dayEnd,
	}

	bookings, err := uc.bookingRepo.ListWithFilter(ctx, filter)
	if err != nil {
		uc.logger.Error("GetFreeIntervals: failed to list bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to list bookings: %v", ErrInternal, err)
	}

	day, err := allocator.NewDay(dayStart, hours, bookings)
	if err != nil {
		uc.logger.Error("GetFreeIntervals: invalid operating hours for club=%d: %v", req.ClubID, err)
		return nil, fmt.Errorf("%w: invalid operating hours: %v", ErrInternal, err)
	}

	for _, r := range day.FreeIntervals() {
		resp.Intervals = append(resp.Intervals, Interval{Start: r.Start, End: r.End})
	}

	uc.logger.Info("GetFreeIntervals: club=%d court=%d date=%s -> %d free intervals",
		req.ClubID, req.CourtID, req.Date.Format(domain.DateFormat), len(resp.Intervals))

	return resp, nil
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClubID <= 0 {
		return fmt.Errorf("%w: clubID must be positive", ErrInvalidInput)
	}
	if req.CourtID <= 0 {
		return fmt.Errorf("%w: courtID must be positive", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}
