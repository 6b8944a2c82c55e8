package get_automation_config

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-CourtBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-CourtBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/automation"
)

const (
	msgInvalidClubID = "некорректный ID клуба"
	msgMissingUserID = "отсутствует ID пользователя"
	msgClubNotFound  = "клуб не найден"
	msgForbidden     = "доступ запрещен"
)

type Handler struct {
	service AutomationService
	logger  Logger
}

func NewHandler(service AutomationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/clubs/{clubId}/automation-config
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID, err := strconv.ParseInt(vars["clubId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /clubs/{id}/automation-config - Invalid club ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidClubID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /clubs/{id}/automation-config - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	config, err := h.service.GetByClub(r.Context(), clubID, userID)
	if err != nil {
		switch {
		case errors.Is(err, automation.ErrClubNotFound):
			h.logger.Warn("GET /clubs/{id}/automation-config - Club not found: club_id=%d", clubID)
			handlers.RespondNotFound(w, msgClubNotFound)

		case errors.Is(err, automation.ErrAccessDenied):
			h.logger.Warn("GET /clubs/{id}/automation-config - Access denied: club_id=%d, user_id=%d",
				clubID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("GET /clubs/{id}/automation-config - Failed to get config: club_id=%d, error=%v",
				clubID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /clubs/{id}/automation-config - Config retrieved: club_id=%d, user_id=%d", clubID, userID)
	handlers.RespondJSON(w, http.StatusOK, config)
}
