package fallback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
	"github.com/romapi/search-service/internal/repository"
)

// fakeResources is an in-memory stand-in for the relational store.
type fakeResources struct {
	searchResults []domain.Resource
	searchTotal   int
	searchErr     error
	suggestErr    error
	popular       []domain.Resource
	popularErr    error
	lastFilter    repository.ResourceFilter
}

func (f *fakeResources) Search(_ context.Context, filter repository.ResourceFilter) ([]domain.Resource, int, error) {
	f.lastFilter = filter
	return f.searchResults, f.searchTotal, f.searchErr
}

func (f *fakeResources) SuggestNames(_ context.Context, prefix string, _ int) ([]domain.Resource, error) {
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.searchResults, nil
}

func (f *fakeResources) Popular(_ context.Context, _ int) ([]domain.Resource, error) {
	return f.popular, f.popularErr
}

func newHandler(repo *fakeResources, retry SearchFunc) (*Handler, *cache.Gateway) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	gw := cache.NewGateway(cache.NewMemory(), cache.DefaultGatewayConfig(), logger)
	return NewHandler(repo, gw, retry, logger), gw
}

func sampleResources() []domain.Resource {
	return []domain.Resource{
		{ID: "res-1", Name: "Chez Wou", Verified: true, Status: domain.StatusActive},
		{ID: "res-2", Name: "Saveurs du Mboa", Verified: false, Status: domain.StatusActive},
	}
}

func connectionError() error {
	return &engine.Error{Kind: engine.KindConnection, Op: "search", Err: errors.New("dial tcp: connection refused")}
}

func TestConnectionErrorFallsBackToRelational(t *testing.T) {
	repo := &fakeResources{searchResults: sampleResources(), searchTotal: 2}
	h, _ := newHandler(repo, nil)

	params := domain.SearchParams{
		Query:      "restaurant",
		Pagination: domain.Pagination{Page: 1, Limit: 20},
		Filters: domain.SearchFilters{
			Categories:    []string{"cat-1", "cat-2"},
			ResourceTypes: []string{"BUSINESS"},
			City:          "Douala",
		},
	}

	results := h.HandleSearchError(context.Background(), connectionError(), params)

	require.Len(t, results.Hits, 2)
	assert.True(t, results.Metadata.Fallback)
	assert.Equal(t, int64(2), results.Total)

	// Verified resources outscore the rest.
	assert.InDelta(t, 2.0, results.Hits[0].Score, 1e-9)
	assert.InDelta(t, 1.0, results.Hits[1].Score, 1e-9)

	// Multi-valued filters collapse to their first element.
	require.NotNil(t, repo.lastFilter.CategoryID)
	assert.Equal(t, "cat-1", *repo.lastFilter.CategoryID)
	require.NotNil(t, repo.lastFilter.Status)
	assert.Equal(t, domain.StatusActive, *repo.lastFilter.Status)
	require.NotNil(t, repo.lastFilter.City)
	assert.Equal(t, "Douala", *repo.lastFilter.City)
}

func TestTimeoutServesCachedResults(t *testing.T) {
	repo := &fakeResources{searchErr: errors.New("db also down")}
	h, gw := newHandler(repo, nil)

	params := domain.SearchParams{Query: "hotel", Pagination: domain.Pagination{Page: 1, Limit: 20}}
	cached := &domain.SearchResults{
		Hits:  []domain.SearchHit{{ID: "res-9", Name: "Hôtel Akwa", Score: 5}},
		Total: 1,
	}
	gw.StoreResults(context.Background(), cache.KeyForParams(params), cached)

	timeoutErr := &engine.Error{Kind: engine.KindTimeout, Op: "search", Err: context.DeadlineExceeded}
	results := h.HandleSearchError(context.Background(), timeoutErr, params)

	require.Len(t, results.Hits, 1)
	assert.Equal(t, "res-9", results.Hits[0].ID)
	assert.True(t, results.Metadata.Fallback)
}

func TestParsingErrorRetriesSimplifiedQuery(t *testing.T) {
	var retriedQuery string
	retry := func(_ context.Context, params domain.SearchParams) (*domain.SearchResults, error) {
		retriedQuery = params.Query
		return &domain.SearchResults{
			Hits:  []domain.SearchHit{{ID: "res-1", Score: 2}},
			Total: 1,
		}, nil
	}

	h, _ := newHandler(&fakeResources{}, retry)

	params := domain.SearchParams{Query: `restaurant "douala( AND`, Pagination: domain.Pagination{Page: 1, Limit: 20}}
	parseErr := &engine.Error{Kind: engine.KindQueryParsing, Op: "search", Err: errors.New("parse_exception")}

	results := h.HandleSearchError(context.Background(), parseErr, params)

	assert.Equal(t, "restaurant douala AND", retriedQuery)
	require.Len(t, results.Hits, 1)
	assert.True(t, results.Metadata.Fallback)
	assert.Equal(t, params.Query, results.Metadata.OriginalQuery)
}

func TestRelationalFailureFallsBackToPopular(t *testing.T) {
	repo := &fakeResources{
		searchErr: errors.New("db down"),
		popular:   []domain.Resource{{ID: "res-5", Name: "MTN Cameroun", Verified: true}},
	}
	h, gw := newHandler(repo, nil)

	params := domain.SearchParams{Query: "x", Pagination: domain.Pagination{Page: 1, Limit: 20}}
	results := h.HandleSearchError(context.Background(), connectionError(), params)

	require.Len(t, results.Hits, 1)
	assert.Equal(t, "res-5", results.Hits[0].ID)
	assert.InDelta(t, 3.0, results.Hits[0].Score, 1e-9)

	// The popular set is cached for the next incident.
	cached, ok := gw.PopularResources(context.Background())
	require.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestEverythingDownYieldsEmptyResults(t *testing.T) {
	repo := &fakeResources{
		searchErr:  errors.New("db down"),
		popularErr: errors.New("db still down"),
	}
	h, _ := newHandler(repo, nil)

	params := domain.SearchParams{Query: "x", Pagination: domain.Pagination{Page: 2, Limit: 10}}
	results := h.HandleSearchError(context.Background(), connectionError(), params)

	require.NotNil(t, results)
	assert.Empty(t, results.Hits)
	assert.Zero(t, results.Total)
	assert.Equal(t, 2, results.Page)
	assert.True(t, results.Metadata.Fallback)
}

func TestSuggestionFallbackCachedFirst(t *testing.T) {
	h, gw := newHandler(&fakeResources{suggestErr: errors.New("db down")}, nil)

	cached := []domain.Suggestion{{Text: "restaurant", Type: domain.SuggestionResource, Score: 3}}
	gw.StoreSuggestions(context.Background(), "rest", cached)

	got := h.HandleSuggestionError(context.Background(), connectionError(), "rest", 10)
	assert.Equal(t, cached, got)
}

func TestSuggestionFallbackRelational(t *testing.T) {
	repo := &fakeResources{searchResults: sampleResources()}
	h, _ := newHandler(repo, nil)

	got := h.HandleSuggestionError(context.Background(), connectionError(), "chez", 10)

	require.Len(t, got, 2)
	assert.Equal(t, "Chez Wou", got[0].Text)
	assert.InDelta(t, 2.0, got[0].Score, 1e-9)
	assert.InDelta(t, 1.0, got[1].Score, 1e-9)
}

func TestSuggestionFallbackEmptyTermination(t *testing.T) {
	h, _ := newHandler(&fakeResources{suggestErr: errors.New("db down")}, nil)

	got := h.HandleSuggestionError(context.Background(), connectionError(), "zzz", 10)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSimplifyQuery(t *testing.T) {
	assert.Equal(t, "restaurant douala", simplifyQuery(`restaurant "douala(!`))
	assert.Equal(t, "fast-food", simplifyQuery("fast-food"))
	assert.Equal(t, "*", simplifyQuery("(("))
	assert.Equal(t, "*", simplifyQuery("a"))
}
