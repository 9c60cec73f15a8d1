package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nimven/autotourney/models"
	"github.com/nimven/autotourney/services"
)

type TemplateHandler struct {
	templateService *services.TemplateService
}

func NewTemplateHandler(templateService *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	templates, err := h.templateService.List(r.Context(), session.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"templates": templates}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	template, err := h.templateService.Get(r.Context(), session.UserID, chi.URLParam(r, "id"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, template, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var body models.TemplateDoc
	if err := readJSON(w, r, &body); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if body.Kind() == "" {
		badRequestResponse(w, r, errors.New("template type is required"))
		return
	}

	id, err := h.templateService.Create(r.Context(), session.UserID, body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"id": id}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var body models.TemplateDoc
	if err := readJSON(w, r, &body); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.templateService.Update(r.Context(), session.UserID, id, body); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"id": id}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := h.templateService.Delete(r.Context(), session.UserID, chi.URLParam(r, "id")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
