package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/filterstate"
	"github.com/romapi/search-service/pkg/httputil"
	"github.com/romapi/search-service/pkg/validator"
)

// FilterHandler exposes per-session filter persistence: state, history and
// popular filter combinations.
type FilterHandler struct {
	store  *filterstate.Store
	logger *slog.Logger
}

// NewFilterHandler creates the filter state HTTP handler.
func NewFilterHandler(store *filterstate.Store, logger *slog.Logger) *FilterHandler {
	return &FilterHandler{store: store, logger: logger}
}

// SaveFiltersRequest is the JSON body for replacing a session's filters.
type SaveFiltersRequest struct {
	Filters   domain.SearchFilters `json:"filters"`
	ActiveTab string               `json:"active_tab,omitempty"`
	Query     string               `json:"query,omitempty"`
}

// UpdateTabRequest is the JSON body for switching the active tab.
type UpdateTabRequest struct {
	ActiveTab string `json:"active_tab" validate:"required"`
}

// UpdateFiltersRequest is the JSON body for replacing a session's filters
// while keeping the active tab.
type UpdateFiltersRequest struct {
	Filters domain.SearchFilters `json:"filters"`
	Query   string               `json:"query,omitempty"`
}

// Get handles GET /api/v1/filters/{sessionID}
func (h *FilterHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if state == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: filterstate.State{}})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}

// Save handles PUT /api/v1/filters/{sessionID}
func (h *FilterHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveFiltersRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	state := filterstate.State{
		Filters:   req.Filters,
		ActiveTab: req.ActiveTab,
		Query:     req.Query,
	}
	if err := h.store.Save(r.Context(), chi.URLParam(r, "sessionID"), state); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateTab handles PUT /api/v1/filters/{sessionID}/tab
func (h *FilterHandler) UpdateTab(w http.ResponseWriter, r *http.Request) {
	var req UpdateTabRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.store.UpdateActiveTab(r.Context(), chi.URLParam(r, "sessionID"), req.ActiveTab); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateFilters handles PUT /api/v1/filters/{sessionID}/filters
func (h *FilterHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	var req UpdateFiltersRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.store.UpdateFilters(r.Context(), chi.URLParam(r, "sessionID"), req.Filters, req.Query); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/v1/filters/{sessionID}/history
func (h *FilterHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 10)

	entries, err := h.store.History(r.Context(), chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}

// Clear handles DELETE /api/v1/filters/{sessionID}
func (h *FilterHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Popular handles GET /api/v1/filters/popular
func (h *FilterHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 10)

	combos, err := h.store.Popular(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: combos})
}
