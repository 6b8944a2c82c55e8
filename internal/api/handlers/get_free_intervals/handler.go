package get_free_intervals

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-CourtBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	getFreeIntervals "github.com/m04kA/SMC-CourtBookingService/internal/usecase/get_free_intervals"
)

const (
	msgInvalidClubID  = "некорректный ID клуба"
	msgInvalidCourtID = "некорректный ID корта"
	msgInvalidDate    = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingDate    = "отсутствует параметр date"
	msgClubNotFound   = "клуб не найден"
	msgCourtNotFound  = "корт не найден"
)

type Handler struct {
	useCase GetFreeIntervalsUseCase
	logger  Logger
}

func NewHandler(useCase GetFreeIntervalsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/clubs/{clubId}/courts/{courtId}/free-intervals?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	clubID, err := strconv.ParseInt(vars["clubId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /clubs/{id}/courts/{id}/free-intervals - Invalid club ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidClubID)
		return
	}

	courtID, err := strconv.ParseInt(vars["courtId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /clubs/{id}/courts/{id}/free-intervals - Invalid court ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCourtID)
		return
	}

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		h.logger.Warn("GET /clubs/{id}/courts/{id}/free-intervals - Missing date param")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := time.Parse(domain.DateFormat, rawDate)
	if err != nil {
		h.logger.Warn("GET /clubs/{id}/courts/{id}/free-intervals - Invalid date %q: %v", rawDate, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getFreeIntervals.Request{
		ClubID:  clubID,
		CourtID: courtID,
		Date:    date,
	})
	if err != nil {
		switch {
		case errors.Is(err, getFreeIntervals.ErrClubNotFound):
			h.logger.Warn("GET /clubs/{id}/courts/{id}/free-intervals - Club not found: club_id=%d", clubID)
			handlers.RespondNotFound(w, msgClubNotFound)

		case errors.Is(err, getFreeIntervals.ErrCourtNotFound):
			h.logger.Warn("GET /clubs/{id}/courts/{id}/free-intervals - Court not found: club_id=%d, court_id=%d",
				clubID, courtID)
			handlers.RespondNotFound(w, msgCourtNotFound)

		case errors.Is(err, getFreeIntervals.ErrInvalidInput):
			h.logger.Warn("GET /clubs/{id}/courts/{id}/free-intervals - Invalid request: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDate)

		default:
			h.logger.Error("GET /clubs/{id}/courts/{id}/free-intervals - Failed: club_id=%d, court_id=%d, error=%v",
				clubID, courtID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /clubs/{id}/courts/{id}/free-intervals - %d intervals: club_id=%d, court_id=%d, date=%s",
		len(result.Intervals), clubID, courtID, rawDate)
	handlers.RespondJSON(w, http.StatusOK, result)
}
