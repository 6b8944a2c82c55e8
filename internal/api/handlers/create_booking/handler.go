package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-CourtBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-CourtBookingService/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-CourtBookingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректный формат времени, ожидается RFC3339"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgSlotNotAvailable   = "выбранный диапазон времени недоступен"
	msgClubNotFound       = "клуб не найден"
	msgCourtNotFound      = "корт не найден"
	msgCourtInactive      = "корт выведен из эксплуатации"
	msgForbidden          = "доступ запрещен"
	msgClubClosed         = "клуб закрыт в выбранный день"
	msgStartInPast        = "время начала уже прошло"
	msgInvalidTimeSlot    = "некорректный временной диапазон"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings - Slot not available: user_id=%d, club_id=%d, court_id=%d",
				userID, req.ClubID, req.CourtID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrClubNotFound):
			h.logger.Warn("POST /bookings - Club not found: club_id=%d", req.ClubID)
			handlers.RespondNotFound(w, msgClubNotFound)

		case errors.Is(err, createBooking.ErrCourtNotFound):
			h.logger.Warn("POST /bookings - Court not found: club_id=%d, court_id=%d", req.ClubID, req.CourtID)
			handlers.RespondNotFound(w, msgCourtNotFound)

		case errors.Is(err, createBooking.ErrCourtInactive):
			h.logger.Warn("POST /bookings - Court inactive: club_id=%d, court_id=%d", req.ClubID, req.CourtID)
			handlers.RespondBadRequest(w, msgCourtInactive)

		case errors.Is(err, createBooking.ErrAccessDenied):
			h.logger.Warn("POST /bookings - Access denied: user_id=%d, club_id=%d", userID, req.ClubID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, createBooking.ErrClubClosed):
			h.logger.Warn("POST /bookings - Club closed: club_id=%d", req.ClubID)
			handlers.RespondBadRequest(w, msgClubClosed)

		case errors.Is(err, createBooking.ErrStartInPast):
			h.logger.Warn("POST /bookings - Start in past: user_id=%d, club_id=%d", userID, req.ClubID)
			handlers.RespondBadRequest(w, msgStartInPast)

		case errors.Is(err, createBooking.ErrInvalidTimeSlot), errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid request: user_id=%d, club_id=%d: %v", userID, req.ClubID, err)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, club_id=%d, error=%v",
				userID, req.ClubID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, user_id=%d, club_id=%d",
		result.ID, userID, req.ClubID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
