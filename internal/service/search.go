// Package service implements the search orchestration: language handling,
// caching, engine queries, degradation, personalization and analytics all
// meet here.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/romapi/search-service/internal/analytics"
	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/category"
	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
	"github.com/romapi/search-service/internal/fallback"
	"github.com/romapi/search-service/internal/filterstate"
	"github.com/romapi/search-service/internal/geocode"
	"github.com/romapi/search-service/internal/language"
	"github.com/romapi/search-service/internal/personalization"
	"github.com/romapi/search-service/internal/query"
	"github.com/romapi/search-service/internal/ratelimit"
	"github.com/romapi/search-service/internal/repository"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

const (
	defaultLimit = 20
	maxLimit     = 100

	suggestScope     = "suggest_rate"
	minSuggestLength = 2
)

// SearchService orchestrates searches over the engine with caching,
// language adaptation, personalization, analytics and degradation.
type SearchService struct {
	engine      engine.SearchEngine
	gw          *cache.Gateway
	fallback    *fallback.Handler
	detector    *language.Detector
	limiter     *ratelimit.Limiter
	analytics   *analytics.AsyncLogger
	personal    *personalization.Engine
	categories  *category.Resolver
	geocoder    *geocode.Geocoder
	filterState *filterstate.Store

	personalWeight float64

	logger *slog.Logger
}

// Options carries the optional collaborators of the search service. Any
// nil field disables the corresponding behavior.
type Options struct {
	Limiter     *ratelimit.Limiter
	Analytics   *analytics.AsyncLogger
	Personal    *personalization.Engine
	Categories  *category.Resolver
	Geocoder    *geocode.Geocoder
	FilterState *filterstate.Store

	// PersonalWeight is the default personalization strength. Zero
	// falls back to personalization.DefaultWeight.
	PersonalWeight float64
}

// NewSearchService creates the search orchestrator. The resource
// repository backs the degraded path when the engine fails.
func NewSearchService(
	eng engine.SearchEngine,
	gw *cache.Gateway,
	resources repository.ResourceRepository,
	logger *slog.Logger,
	opts Options,
) *SearchService {
	s := &SearchService{
		engine:      eng,
		gw:          gw,
		detector:    language.NewDetector(),
		limiter:     opts.Limiter,
		analytics:   opts.Analytics,
		personal:    opts.Personal,
		categories:  opts.Categories,
		geocoder:    opts.Geocoder,
		filterState: opts.FilterState,

		personalWeight: opts.PersonalWeight,

		logger: logger,
	}

	s.fallback = fallback.NewHandler(resources, gw, s.engineSearch, logger)
	return s
}

// Search runs a full search. It never fails on engine errors: those
// degrade through cached, relational and popular fallbacks. Only invalid
// input surfaces as an error.
func (s *SearchService) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResults, error) {
	params = s.prepare(ctx, params)

	if params.Sort.Field != "" && !domain.IsValidSort(params.Sort.Field) {
		return nil, apperrors.InvalidInput("unsupported sort field: " + params.Sort.Field)
	}

	cacheKey := cache.KeyForParams(params)
	if cached, ok := s.gw.Results(ctx, cacheKey); ok {
		s.record(ctx, params, cached)
		return cached, nil
	}

	results, err := s.engineSearch(ctx, params)
	if err != nil {
		results = s.fallback.HandleSearchError(ctx, err, params)
	} else {
		s.gw.StoreResults(ctx, cacheKey, results)
	}

	s.record(ctx, params, results)
	return results, nil
}

// engineSearch runs the engine query without any fallback. The fallback
// handler reuses it to retry simplified queries.
func (s *SearchService) engineSearch(ctx context.Context, params domain.SearchParams) (*domain.SearchResults, error) {
	lang, confidence := s.resolveLanguage(params)
	normalized := params.Clone()
	normalized.Query = language.Normalize(params.Query, lang)

	doc := query.BuildSearch(normalized, lang).Render()

	res, err := s.engine.Search(ctx, doc)
	if err != nil {
		return nil, err
	}

	results := s.transform(res, normalized, lang, confidence)
	return results, nil
}

// prepare normalizes pagination and merges persisted session filters.
func (s *SearchService) prepare(ctx context.Context, params domain.SearchParams) domain.SearchParams {
	if s.filterState != nil && params.SessionID != "" {
		params = s.filterState.ApplyPersisted(ctx, params.SessionID, params)
	}

	if params.Pagination.Page <= 0 {
		params.Pagination.Page = 1
	}
	if params.Pagination.Limit <= 0 {
		params.Pagination.Limit = defaultLimit
	}
	if params.Pagination.Limit > maxLimit {
		params.Pagination.Limit = maxLimit
	}
	if params.Sort.Field == "" {
		params.Sort.Field = domain.SortRelevance
	}

	params.Query = strings.TrimSpace(params.Query)
	return params
}

// resolveLanguage picks the effective search language. Explicit choices
// win; otherwise the query text decides.
func (s *SearchService) resolveLanguage(params domain.SearchParams) (string, float64) {
	if language.IsSupported(params.Language) {
		return params.Language, 1.0
	}

	detection := s.detector.Detect(params.Query)
	return detection.Language, detection.Confidence
}

// record pushes the search into analytics and session state without
// touching the response.
func (s *SearchService) record(ctx context.Context, params domain.SearchParams, results *domain.SearchResults) {
	if s.analytics != nil {
		s.analytics.LogSearch(ctx, params, results)
	}
	if s.filterState != nil && params.SessionID != "" {
		s.filterState.RecordSearch(ctx, params.SessionID, params.Query, params.Filters)
	}
}

// LogClick records a click on a search result and returns its log ID.
func (s *SearchService) LogClick(ctx context.Context, searchLogID, resourceID string, position int, userID, sessionID string) string {
	if s.analytics == nil {
		return ""
	}
	return s.analytics.LogClick(ctx, searchLogID, resourceID, position, userID, sessionID)
}

// ChangeLanguage re-runs a search in another supported language,
// invalidating the cached results of the previous rendition.
func (s *SearchService) ChangeLanguage(ctx context.Context, params domain.SearchParams, newLang string) (*domain.SearchResults, error) {
	if !language.IsSupported(newLang) && newLang != domain.LangAuto {
		return nil, apperrors.InvalidInput("unsupported language: " + newLang)
	}

	prepared := s.prepare(ctx, params)
	s.gw.InvalidateResults(ctx, cache.KeyForParams(prepared))

	params.Language = newLang
	return s.Search(ctx, params)
}
