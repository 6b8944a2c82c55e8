package save_participants

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-CourtBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-CourtBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/participants"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/participants/models"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgInvalidSelection   = "некорректный список участников"
)

// SaveParticipantsRequest HTTP request model: итоговый упорядоченный
// список клиентов, первый - представитель
type SaveParticipantsRequest struct {
	Participants []models.ClientRefInput `json:"participants"`
}

type Handler struct {
	service ParticipantService
	logger  Logger
}

func NewHandler(service ParticipantService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/bookings/{bookingId}/participants
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /bookings/{id}/participants - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PUT /bookings/{id}/participants - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req SaveParticipantsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /bookings/{id}/participants - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq := &models.SaveParticipantsRequest{
		UserID:       userID,
		Participants: req.Participants,
	}

	result, err := h.service.Save(r.Context(), bookingID, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, participants.ErrBookingNotFound):
			h.logger.Warn("PUT /bookings/{id}/participants - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, participants.ErrAccessDenied):
			h.logger.Warn("PUT /bookings/{id}/participants - Access denied: booking_id=%d, user_id=%d",
				bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, participants.ErrInvalidInput):
			h.logger.Warn("PUT /bookings/{id}/participants - Invalid selection: booking_id=%d: %v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidSelection)

		default:
			h.logger.Error("PUT /bookings/{id}/participants - Failed to save: booking_id=%d, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /bookings/{id}/participants - Saved %d participants: booking_id=%d, user_id=%d, noop=%t",
		len(result.Participants), bookingID, userID, result.NoOp)
	handlers.RespondJSON(w, http.StatusOK, result)
}
