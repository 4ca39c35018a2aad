package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
	"github.com/romapi/search-service/internal/filterstate"
	"github.com/romapi/search-service/internal/repository"
	"github.com/romapi/search-service/internal/service"
	"github.com/romapi/search-service/pkg/health"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEngine struct {
	result *engine.Result
	err    error
}

func (e *stubEngine) Search(context.Context, map[string]any) (*engine.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.result == nil {
		return &engine.Result{Hits: []engine.Hit{}}, nil
	}
	return e.result, nil
}

func (e *stubEngine) Ping(context.Context) error { return nil }

func (e *stubEngine) IndexHealth(context.Context) (string, error) { return "green", nil }

type emptyResources struct{}

func (emptyResources) Search(context.Context, repository.ResourceFilter) ([]domain.Resource, int, error) {
	return nil, 0, nil
}

func (emptyResources) SuggestNames(context.Context, string, int) ([]domain.Resource, error) {
	return nil, nil
}

func (emptyResources) Popular(context.Context, int) ([]domain.Resource, error) {
	return nil, nil
}

func newTestRouter(eng engine.SearchEngine) http.Handler {
	logger := testLogger()
	store := cache.NewMemory()
	gw := cache.NewGateway(store, cache.DefaultGatewayConfig(), logger)
	filters := filterstate.NewStore(store, 0, logger)

	svc := service.NewSearchService(eng, gw, emptyResources{}, logger, service.Options{
		FilterState: filters,
	})

	return NewRouter(svc, nil, filters, health.NewHandler(), logger)
}

func resultWithHit() *engine.Result {
	return &engine.Result{
		Hits: []engine.Hit{{
			ID:    "res-1",
			Score: 3.2,
			Source: domain.ResourceDoc{
				ID:       "res-1",
				Name:     "Chez Wou",
				Category: domain.CategoryRef{ID: "cat-1", Name: "Restaurants"},
				Verified: true,
				Language: domain.LangFrench,
			},
		}},
		Total:  1,
		TookMs: 4,
	}
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

// ─────────────────────────────────────────────────────────────────────────────
// Search endpoints
// ─────────────────────────────────────────────────────────────────────────────

func TestSearchEndpoint_ReturnsResults(t *testing.T) {
	router := newTestRouter(&stubEngine{result: resultWithHit()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search?q=chez+wou&lang=fr", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results domain.SearchResults
	decodeData(t, rec, &results)
	require.Len(t, results.Hits, 1)
	assert.Equal(t, "res-1", results.Hits[0].ID)
	assert.Equal(t, int64(1), results.Total)
}

func TestSearchEndpoint_DecodesFilters(t *testing.T) {
	router := newTestRouter(&stubEngine{result: resultWithHit()})

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/search?q=restaurant&lang=fr&categories=cat-1,cat-2&city=Douala&verified=true&min_price=10&max_price=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchEndpoint_RejectsOverlongQuery(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	long := strings.Repeat("a", 201)
	rec := doRequest(t, router, http.MethodGet, "/api/v1/search?q="+long, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "200")
}

func TestSearchEndpoint_RejectsBadSort(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search?q=restaurant&sort=price", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PARAMETER")
}

func TestSearchEndpoint_RejectsBadVerified(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search?q=restaurant&verified=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint_RejectsNegativePrice(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search?q=restaurant&min_price=-5", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "min_price")
}

func TestSuggestEndpoint(t *testing.T) {
	router := newTestRouter(&stubEngine{result: resultWithHit()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search/suggest?q=chez&lang=fr", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var suggestions []domain.Suggestion
	decodeData(t, rec, &suggestions)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "Chez Wou", suggestions[0].Text)
}

func TestNearbyEndpoint_RejectsMissingCoordinates(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search/nearby?q=restaurant", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "lat")
}

func TestNearbyEndpoint_Succeeds(t *testing.T) {
	router := newTestRouter(&stubEngine{result: resultWithHit()})

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/search/nearby?lat=4.05&lon=9.70&radius_km=15&lang=fr", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddressEndpoint_RequiresAddress(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search/address", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCityEndpoint_Succeeds(t *testing.T) {
	router := newTestRouter(&stubEngine{result: resultWithHit()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search/city/Douala?q=restaurant", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegionEndpoint_Succeeds(t *testing.T) {
	router := newTestRouter(&stubEngine{result: resultWithHit()})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search/region/Littoral?q=restaurant", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPersonalizedEndpoint_RequiresUser(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/search/personalized?q=restaurant", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClickEndpoint_ValidatesBody(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/search/click", map[string]any{
		"resource_id": "res-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClickEndpoint_Accepted(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/search/click", map[string]any{
		"search_log_id": "log-1",
		"resource_id":   "res-1",
		"position":      2,
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestChangeLanguageEndpoint_RejectsUnsupported(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/search/language", map[string]any{
		"language": "de",
		"params":   map[string]any{"query": "restaurant"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentTypeJSON_RejectsOtherTypes(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/click", bytes.NewReader([]byte("log_id=1")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Filter state endpoints
// ─────────────────────────────────────────────────────────────────────────────

func TestFilterEndpoints_SaveGetClear(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	save := doRequest(t, router, http.MethodPut, "/api/v1/filters/sess-1", map[string]any{
		"filters":    map[string]any{"city": "Douala"},
		"active_tab": "restaurants",
		"query":      "chez wou",
	})
	require.Equal(t, http.StatusNoContent, save.Code)

	get := doRequest(t, router, http.MethodGet, "/api/v1/filters/sess-1", nil)
	require.Equal(t, http.StatusOK, get.Code)
	var state filterstate.State
	decodeData(t, get, &state)
	assert.Equal(t, "Douala", state.Filters.City)
	assert.Equal(t, "restaurants", state.ActiveTab)

	clear := doRequest(t, router, http.MethodDelete, "/api/v1/filters/sess-1", nil)
	require.Equal(t, http.StatusNoContent, clear.Code)

	after := doRequest(t, router, http.MethodGet, "/api/v1/filters/sess-1", nil)
	require.Equal(t, http.StatusOK, after.Code)
	var cleared filterstate.State
	decodeData(t, after, &cleared)
	assert.Empty(t, cleared.Filters.City)
}

func TestFilterEndpoints_UpdateFiltersKeepsTab(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	save := doRequest(t, router, http.MethodPut, "/api/v1/filters/sess-1", map[string]any{
		"filters":    map[string]any{"city": "Douala"},
		"active_tab": "restaurants",
	})
	require.Equal(t, http.StatusNoContent, save.Code)

	update := doRequest(t, router, http.MethodPut, "/api/v1/filters/sess-1/filters", map[string]any{
		"filters": map[string]any{"city": "Yaoundé"},
		"query":   "hotel",
	})
	require.Equal(t, http.StatusNoContent, update.Code)

	get := doRequest(t, router, http.MethodGet, "/api/v1/filters/sess-1", nil)
	var state filterstate.State
	decodeData(t, get, &state)
	assert.Equal(t, "Yaoundé", state.Filters.City)
	assert.Equal(t, "hotel", state.Query)
	assert.Equal(t, "restaurants", state.ActiveTab)
}

func TestFilterEndpoints_UpdateTab(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	rec := doRequest(t, router, http.MethodPut, "/api/v1/filters/sess-1/tab", map[string]any{
		"active_tab": "services",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	get := doRequest(t, router, http.MethodGet, "/api/v1/filters/sess-1", nil)
	var state filterstate.State
	decodeData(t, get, &state)
	assert.Equal(t, "services", state.ActiveTab)
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	live := doRequest(t, router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, live.Code)

	ready := doRequest(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
}
