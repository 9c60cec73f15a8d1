package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nimven/autotourney/services"
)

type DiplomaHandler struct {
	diplomaService *services.DiplomaService
}

func NewDiplomaHandler(diplomaService *services.DiplomaService) *DiplomaHandler {
	return &DiplomaHandler{diplomaService: diplomaService}
}

func (h *DiplomaHandler) List(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	diplomas, err := h.diplomaService.List(r.Context(), session.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"diplomas": diplomas}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DiplomaHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	diploma, err := h.diplomaService.Get(r.Context(), session.UserID, chi.URLParam(r, "id"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, diploma, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DiplomaHandler) Save(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var input struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Index  int             `json:"index"`
		Fields json.RawMessage `json:"fields"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	id, err := h.diplomaService.Save(r.Context(), session.UserID, input.ID, input.Name, input.Index, input.Fields)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"id": id}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DiplomaHandler) Rename(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.diplomaService.Rename(r.Context(), session.UserID, id, input.Name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"id": id}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DiplomaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := h.diplomaService.Delete(r.Context(), session.UserID, chi.URLParam(r, "id")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DiplomaHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	id, err := h.diplomaService.Duplicate(r.Context(), session.UserID, chi.URLParam(r, "id"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"id": id}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
