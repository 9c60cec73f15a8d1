package handlers

import (
	"net/http"

	"github.com/nimven/autotourney/services"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Refresh recomputes the user's statistics spreadsheet and returns its URL.
func (h *StatsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	report, err := h.statsService.RefreshStats(r.Context(), session.UserID, session.Token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"spreadsheet_url": report.SpreadsheetURL,
		"updated_at":      report.UpdatedAt.Unix(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
