package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/service"
	"github.com/romapi/search-service/pkg/httputil"
	"github.com/romapi/search-service/pkg/validator"
)

// Caller identity headers. The gateway in front of this service
// authenticates users; here they are opaque identifiers.
const (
	headerUserID    = "X-User-ID"
	headerSessionID = "X-Session-ID"
)

// maxQueryLength bounds the free-text query accepted from clients.
const maxQueryLength = 200

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ClickRequest is the JSON request body for recording a result click.
type ClickRequest struct {
	SearchLogID string `json:"search_log_id" validate:"required"`
	ResourceID  string `json:"resource_id" validate:"required"`
	Position    int    `json:"position" validate:"gte=0"`
}

// ChangeLanguageRequest re-runs a search in another language.
type ChangeLanguageRequest struct {
	Language string              `json:"language" validate:"required"`
	Params   domain.SearchParams `json:"params"`
}

// --- Handlers ---

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParamsFromRequest(w, r)
	if !ok {
		return
	}

	results, err := h.service.Search(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := intParam(q.Get("limit"), 10)
	suggestions, err := h.service.Suggest(
		r.Context(),
		q.Get("q"),
		q.Get("lang"),
		limit,
		r.Header.Get(headerUserID),
		r.Header.Get(headerSessionID),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: suggestions})
}

// PopularSuggestions handles GET /api/v1/search/suggest/popular
func (h *SearchHandler) PopularSuggestions(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 10)

	suggestions, err := h.service.PopularSuggestions(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: suggestions})
}

// Nearby handles GET /api/v1/search/nearby
func (h *SearchHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParamsFromRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeParamError(w, "lat and lon must be valid coordinates")
		return
	}

	radius := 10.0
	if v := q.Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeParamError(w, "radius_km must be a valid number")
			return
		}
		radius = parsed
	}

	origin := domain.GeoLocation{Latitude: lat, Longitude: lon}
	results, err := h.service.SearchNearby(r.Context(), origin, radius, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// ByAddress handles GET /api/v1/search/address
func (h *SearchHandler) ByAddress(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParamsFromRequest(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		writeParamError(w, "address is required")
		return
	}

	radius := 0.0
	if v := q.Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeParamError(w, "radius_km must be a valid number")
			return
		}
		radius = parsed
	}

	results, err := h.service.SearchByAddress(r.Context(), address, radius, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// ByCity handles GET /api/v1/search/city/{city}
func (h *SearchHandler) ByCity(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParamsFromRequest(w, r)
	if !ok {
		return
	}

	city := strings.TrimSpace(chi.URLParam(r, "city"))
	if city == "" {
		writeParamError(w, "city is required")
		return
	}

	results, err := h.service.SearchByCity(r.Context(), city, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// ByRegion handles GET /api/v1/search/region/{region}
func (h *SearchHandler) ByRegion(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParamsFromRequest(w, r)
	if !ok {
		return
	}

	region := strings.TrimSpace(chi.URLParam(r, "region"))
	if region == "" {
		writeParamError(w, "region is required")
		return
	}

	results, err := h.service.SearchByRegion(r.Context(), region, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// Personalized handles GET /api/v1/search/personalized
func (h *SearchHandler) Personalized(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParamsFromRequest(w, r)
	if !ok {
		return
	}

	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeParamError(w, "personalized search requires a user identity")
		return
	}

	// An absent weight means "use the configured default"; an explicit zero
	// disables personalization entirely.
	weight := -1.0
	if v := r.URL.Query().Get("weight"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			writeParamError(w, "weight must be a number between 0 and 1")
			return
		}
		weight = parsed
	}
	if r.URL.Query().Get("use_personalization") == "false" {
		weight = 0
	}

	results, err := h.service.PersonalizedSearch(r.Context(), userID, params, weight)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// ChangeLanguage handles POST /api/v1/search/language
func (h *SearchHandler) ChangeLanguage(w http.ResponseWriter, r *http.Request) {
	var req ChangeLanguageRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	req.Params.UserID = r.Header.Get(headerUserID)
	req.Params.SessionID = r.Header.Get(headerSessionID)

	results, err := h.service.ChangeLanguage(r.Context(), req.Params, req.Language)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// Click handles POST /api/v1/search/click
func (h *SearchHandler) Click(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	logID := h.service.LogClick(
		r.Context(),
		req.SearchLogID,
		req.ResourceID,
		req.Position,
		r.Header.Get(headerUserID),
		r.Header.Get(headerSessionID),
	)

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"log_id": logID}})
}

// ByCategory handles GET /api/v1/categories/{id}/search
func (h *SearchHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParamsFromRequest(w, r)
	if !ok {
		return
	}

	categoryID := chi.URLParam(r, "id")
	includeSubcategories := r.URL.Query().Get("include_subcategories") != "false"

	results, err := h.service.SearchByCategory(r.Context(), categoryID, includeSubcategories, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}

// Hierarchy handles GET /api/v1/categories/{id}/hierarchy
func (h *SearchHandler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	hierarchy, err := h.service.CategoryHierarchy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: hierarchy})
}

// --- Parameter decoding ---

// searchParamsFromRequest decodes the common search parameters from the
// query string and caller identity headers. It writes the error response
// itself and reports success through the boolean.
func searchParamsFromRequest(w http.ResponseWriter, r *http.Request) (domain.SearchParams, bool) {
	q := r.URL.Query()

	params := domain.SearchParams{
		Query:     strings.TrimSpace(q.Get("q")),
		Language:  q.Get("lang"),
		UserID:    r.Header.Get(headerUserID),
		SessionID: r.Header.Get(headerSessionID),
		Pagination: domain.Pagination{
			Page:  intParam(q.Get("page"), 1),
			Limit: intParam(q.Get("limit"), 20),
		},
		Sort: domain.SortOptions{
			Field: q.Get("sort"),
			Order: q.Get("order"),
		},
	}

	if utf8.RuneCountInString(params.Query) > maxQueryLength {
		writeParamError(w, fmt.Sprintf("q must be at most %d characters", maxQueryLength))
		return params, false
	}

	if params.Sort.Field != "" && !domain.IsValidSort(params.Sort.Field) {
		writeParamError(w, "sort must be one of: "+strings.Join(domain.ValidSortFields(), ", "))
		return params, false
	}
	switch params.Sort.Order {
	case "", domain.OrderAsc, domain.OrderDesc:
	default:
		writeParamError(w, "order must be asc or desc")
		return params, false
	}

	params.Filters.Categories = listParam(q.Get("categories"))
	params.Filters.ResourceTypes = listParam(q.Get("types"))
	params.Filters.Plans = listParam(q.Get("plans"))
	params.Filters.Tags = listParam(q.Get("tags"))
	params.Filters.City = q.Get("city")
	params.Filters.Region = q.Get("region")
	params.Filters.Country = q.Get("country")
	params.Facets = listParam(q.Get("facets"))

	if v := q.Get("verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			writeParamError(w, "verified must be true or false")
			return params, false
		}
		params.Filters.Verified = &verified
	}

	minPrice, ok := floatParam(w, q.Get("min_price"), "min_price")
	if !ok {
		return params, false
	}
	maxPrice, ok := floatParam(w, q.Get("max_price"), "max_price")
	if !ok {
		return params, false
	}
	if minPrice != nil || maxPrice != nil {
		params.Filters.PriceRange = &domain.PriceRange{Min: minPrice, Max: maxPrice}
	}

	return params, true
}

func listParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func floatParam(w http.ResponseWriter, raw, name string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeParamError(w, name+" must be a valid number")
		return nil, false
	}
	if v < 0 {
		writeParamError(w, name+" must not be negative")
		return nil, false
	}
	return &v, true
}

func writeParamError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}
