package update_automation_config

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-CourtBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-CourtBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/automation"
	"github.com/m04kA/SMC-CourtBookingService/internal/service/automation/models"
)

const (
	msgInvalidClubID      = "некорректный ID клуба"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgClubNotFound       = "клуб не найден"
	msgForbidden          = "доступ запрещен"
	msgInvalidParams      = "некорректные параметры конфигурации"
)

// UpdateConfigRequest HTTP request model, частичное обновление
type UpdateConfigRequest struct {
	AutoConfirmEnabled     *bool `json:"autoConfirmEnabled,omitempty"`
	AutoConfirmLeadMinutes *int  `json:"autoConfirmLeadMinutes,omitempty"`
	AutoStartEnabled       *bool `json:"autoStartEnabled,omitempty"`
	AutoFinishEnabled      *bool `json:"autoFinishEnabled,omitempty"`
}

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

// Handle PUT /api/v1/clubs/{clubId}/automation-config
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	clubID, err := strconv.ParseInt(vars["clubId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /clubs/{id}/automation-config - Invalid club ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidClubID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PUT /clubs/{id}/automation-config - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UpdateConfigRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /clubs/{id}/automation-config - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq := &models.UpdateConfigRequest{
		UserID:                 userID,
		ClubID:                 clubID,
		AutoConfirmEnabled:     req.AutoConfirmEnabled,
		AutoConfirmLeadMinutes: req.AutoConfirmLeadMinutes,
		AutoStartEnabled:       req.AutoStartEnabled,
		AutoFinishEnabled:      req.AutoFinishEnabled,
	}

	config, err := h.service.Update(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, automation.ErrClubNotFound):
			h.logger.Warn("PUT /clubs/{id}/automation-config - Club not found: club_id=%d", clubID)
			handlers.RespondNotFound(w, msgClubNotFound)

		case errors.Is(err, automation.ErrAccessDenied):
			h.logger.Warn("PUT /clubs/{id}/automation-config - Access denied: club_id=%d, user_id=%d",
				clubID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, automation.ErrInvalidInput):
			h.logger.Warn("PUT /clubs/{id}/automation-config - Invalid params: club_id=%d: %v", clubID, err)
			handlers.RespondBadRequest(w, msgInvalidParams)

		default:
			h.logger.Error("PUT /clubs/{id}/automation-config - Failed to update config: club_id=%d, error=%v",
				clubID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /clubs/{id}/automation-config - Config updated: club_id=%d, user_id=%d", clubID, userID)
	handlers.RespondJSON(w, http.StatusOK, config)
}
