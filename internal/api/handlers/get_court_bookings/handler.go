package get_court_bookings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	jinzhunow "github.com/jinzhu/now"

	"github.com/m04kA/SMC-CourtBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-CourtBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/bookings/models"
)

const (
	msgInvalidClubID  = "некорректный ID клуба"
	msgInvalidCourtID = "некорректный ID корта"
	msgInvalidDate    = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidParams  = "некорректные параметры запроса"
	msgMissingUserID  = "отсутствует ID пользователя"
	msgClubNotFound   = "клуб не найден"
	msgForbidden      = "доступ запрещен"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/clubs/{clubId}/bookings
// Query params: courtId, date, status, includeInactive (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID, err := strconv.ParseInt(vars["clubId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /clubs/{id}/bookings - Invalid club ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidClubID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /clubs/{id}/bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req := &models.GetCourtBookingsRequest{
		UserID: userID,
		ClubID: clubID,
	}

	query := r.URL.Query()

	if raw := query.Get("courtId"); raw != "" {
		courtID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || courtID <= 0 {
			h.logger.Warn("GET /clubs/{id}/bookings - Invalid court ID %q", raw)
			handlers.RespondBadRequest(w, msgInvalidCourtID)
			return
		}
		req.CourtID = &courtID
	}

	if raw := query.Get("date"); raw != "" {
		date, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			h.logger.Warn("GET /clubs/{id}/bookings - Invalid date %q: %v", raw, err)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		from := jinzhunow.With(date).BeginningOfDay()
		to := from.AddDate(0, 0, 1)
		req.From = &from
		req.To = &to
	}

	if raw := query.Get("status"); raw != "" {
		req.Status = &raw
	}

	if raw := query.Get("includeInactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("GET /clubs/{id}/bookings - Invalid includeInactive %q", raw)
			handlers.RespondBadRequest(w, msgInvalidParams)
			return
		}
		req.IncludeInactive = includeInactive
	}

	result, err := h.service.GetCourtBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrClubNotFound):
			h.logger.Warn("GET /clubs/{id}/bookings - Club not found: club_id=%d", clubID)
			handlers.RespondNotFound(w, msgClubNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /clubs/{id}/bookings - Access denied: club_id=%d, user_id=%d", clubID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /clubs/{id}/bookings - Invalid params: club_id=%d: %v", clubID, err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("GET /clubs/{id}/bookings - Failed to list bookings: club_id=%d, error=%v",
				clubID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /clubs/{id}/bookings - Retrieved %d bookings: club_id=%d, user_id=%d",
		len(result.Bookings), clubID, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
