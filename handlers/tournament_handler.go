package handlers

import (
	"net/http"

	"github.com/nimven/autotourney/services"
)

type TournamentHandler struct {
	scheduleService *services.ScheduleService
	lookupService   *services.LookupService
}

func NewTournamentHandler(scheduleService *services.ScheduleService, lookupService *services.LookupService) *TournamentHandler {
	return &TournamentHandler{
		scheduleService: scheduleService,
		lookupService:   lookupService,
	}
}

// Get serves two queries on one path: with a tournament URL parameter it
// inspects that tournament on the host, without one it lists the user's
// created tournaments, newest first.
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if rawURL := r.URL.Query().Get("tournament"); rawURL != "" {
		tournament, err := h.lookupService.LookupByURL(r.Context(), session.Token, rawURL)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	tournaments, err := h.scheduleService.ListTournaments(r.Context(), session.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Teams lists the teams the user leads, the candidates for hosting swiss
// tournaments.
func (h *TournamentHandler) Teams(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	teams, err := h.lookupService.LeadTeams(r.Context(), session.Token, session.Username, session.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
