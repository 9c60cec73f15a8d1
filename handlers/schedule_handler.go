package handlers

import (
	"net/http"
	"time"

	"github.com/nimven/autotourney/services"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

func NewScheduleHandler(scheduleService *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// CreateBatch materializes the selected templates for one week. An omitted
// week anchors to the current week; an empty template list selects all of
// the user's templates.
func (h *ScheduleHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var input struct {
		Week      int64    `json:"week"`
		Templates []string `json:"templates"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	anchor := time.Now().UTC()
	if input.Week != 0 {
		anchor = time.Unix(input.Week, 0).UTC()
	}

	report, err := h.scheduleService.CreateBatch(r.Context(), services.CreateBatchInput{
		User:        session.UserID,
		Token:       session.Token,
		WeekAnchor:  anchor,
		TemplateIDs: input.Templates,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
