package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/service"
	apperrors "github.com/romapi/search-service/pkg/errors"
	"github.com/romapi/search-service/pkg/httputil"
	"github.com/romapi/search-service/pkg/validator"
)

// SavedSearchHandler manages a user's saved searches over HTTP.
type SavedSearchHandler struct {
	service *service.SavedSearchService
	logger  *slog.Logger
}

// NewSavedSearchHandler creates the saved search HTTP handler.
func NewSavedSearchHandler(svc *service.SavedSearchService, logger *slog.Logger) *SavedSearchHandler {
	return &SavedSearchHandler{service: svc, logger: logger}
}

// SavedSearchRequest is the JSON body for creating or updating a saved
// search.
type SavedSearchRequest struct {
	Name   string              `json:"name" validate:"required,min=1,max=100"`
	Params domain.SearchParams `json:"params"`
}

// Create handles POST /api/v1/saved
func (h *SavedSearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req SavedSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	saved, err := h.service.Create(r.Context(), userID, req.Name, req.Params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: saved})
}

// List handles GET /api/v1/saved
func (h *SavedSearchHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	searches, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: searches})
}

// Get handles GET /api/v1/saved/{id}
func (h *SavedSearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	saved, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: saved})
}

// Update handles PUT /api/v1/saved/{id}
func (h *SavedSearchHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req SavedSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	saved, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req.Name, req.Params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: saved})
}

// Delete handles DELETE /api/v1/saved/{id}
func (h *SavedSearchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Execute handles POST /api/v1/saved/{id}/execute
func (h *SavedSearchHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	results, err := h.service.Execute(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

func (h *SavedSearchHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user identity required"), h.logger)
		return "", false
	}
	return userID, true
}
