// Package fallback turns search engine failures into degraded results
// instead of errors. Depending on the failure kind it serves cached
// results, retries with a simplified query, falls back to the relational
// store, and as a last resort returns popular resources or an empty page.
package fallback

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
	"github.com/romapi/search-service/internal/repository"
)

const (
	fallbackScoreVerified = 2.0
	fallbackScoreDefault  = 1.0
	popularScore          = 3.0
	popularLimit          = 20
)

// SearchFunc re-runs a search against the engine only, without fallback,
// so a simplified query gets one more chance before degrading.
type SearchFunc func(ctx context.Context, params domain.SearchParams) (*domain.SearchResults, error)

// Handler degrades failed searches. It never returns an error.
type Handler struct {
	resources repository.ResourceRepository
	gw        *cache.Gateway
	retry     SearchFunc
	logger    *slog.Logger
}

// NewHandler creates a fallback handler. The retry function may be nil,
// in which case parse failures go straight to the relational store.
func NewHandler(resources repository.ResourceRepository, gw *cache.Gateway, retry SearchFunc, logger *slog.Logger) *Handler {
	return &Handler{resources: resources, gw: gw, retry: retry, logger: logger}
}

// HandleSearchError produces degraded results for a failed search.
func (h *Handler) HandleSearchError(ctx context.Context, searchErr error, params domain.SearchParams) *domain.SearchResults {
	kind := engine.KindOf(searchErr)

	h.logger.WarnContext(ctx, "search degraded",
		slog.String("kind", string(kind)),
		slog.String("query", params.Query),
		slog.String("error", searchErr.Error()),
	)

	switch kind {
	case engine.KindTimeout:
		if cached, ok := h.gw.Results(ctx, cache.KeyForParams(params)); ok {
			cached.Metadata.Fallback = true
			return cached
		}
		return h.relational(ctx, params)

	case engine.KindQueryParsing, engine.KindPhaseExecution:
		if results := h.retrySimplified(ctx, params); results != nil {
			return results
		}
		return h.relational(ctx, params)

	default:
		return h.relational(ctx, params)
	}
}

// HandleSuggestionError produces degraded suggestions for a failed
// suggestion lookup.
func (h *Handler) HandleSuggestionError(ctx context.Context, suggestErr error, prefix string, limit int) []domain.Suggestion {
	h.logger.WarnContext(ctx, "suggestions degraded",
		slog.String("kind", string(engine.KindOf(suggestErr))),
		slog.String("prefix", prefix),
		slog.String("error", suggestErr.Error()),
	)

	if cached, ok := h.gw.Suggestions(ctx, prefix); ok {
		return cached
	}

	resources, err := h.resources.SuggestNames(ctx, prefix, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "relational suggestion fallback failed",
			slog.String("error", err.Error()),
		)
		return []domain.Suggestion{}
	}

	suggestions := make([]domain.Suggestion, 0, len(resources))
	for _, res := range resources {
		score := fallbackScoreDefault
		if res.Verified {
			score = fallbackScoreVerified
		}
		suggestions = append(suggestions, domain.Suggestion{
			Text:         res.Name,
			Type:         domain.SuggestionResource,
			Score:        score,
			ResourceID:   res.ID,
			CategoryName: res.CategoryName,
			Verified:     res.Verified,
		})
	}
	return suggestions
}

func (h *Handler) retrySimplified(ctx context.Context, params domain.SearchParams) *domain.SearchResults {
	if h.retry == nil {
		return nil
	}

	simplified := simplifyQuery(params.Query)
	if simplified == params.Query {
		return nil
	}

	retryParams := params.Clone()
	retryParams.Query = simplified

	results, err := h.retry(ctx, retryParams)
	if err != nil {
		return nil
	}

	results.Metadata.OriginalQuery = params.Query
	results.Metadata.Query = simplified
	results.Metadata.Fallback = true
	return results
}

// relational serves results from the relational store. Multi-valued
// filters collapse to their first element since the store cannot match
// sets.
func (h *Handler) relational(ctx context.Context, params domain.SearchParams) *domain.SearchResults {
	filter := repository.ResourceFilter{
		Status:  strPtr(domain.StatusActive),
		Page:    params.Pagination.Page,
		PerPage: params.Pagination.Limit,
	}

	if params.Query != "" {
		filter.Name = strPtr(params.Query)
	}
	if len(params.Filters.Categories) > 0 {
		filter.CategoryID = strPtr(params.Filters.Categories[0])
	}
	if len(params.Filters.ResourceTypes) > 0 {
		filter.ResourceType = strPtr(params.Filters.ResourceTypes[0])
	}
	if len(params.Filters.Plans) > 0 {
		filter.Plan = strPtr(params.Filters.Plans[0])
	}
	if params.Filters.City != "" {
		filter.City = strPtr(params.Filters.City)
	}
	if params.Filters.Region != "" {
		filter.Region = strPtr(params.Filters.Region)
	}
	if params.Filters.Country != "" {
		filter.Country = strPtr(params.Filters.Country)
	}
	if params.Filters.Verified != nil {
		filter.Verified = params.Filters.Verified
	}

	resources, total, err := h.resources.Search(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "relational fallback failed",
			slog.String("error", err.Error()),
		)
		return h.popular(ctx, params)
	}

	hits := make([]domain.SearchHit, 0, len(resources))
	for i := range resources {
		score := fallbackScoreDefault
		if resources[i].Verified {
			score = fallbackScoreVerified
		}
		hits = append(hits, resources[i].Hit(score))
	}

	results := domain.EmptyResults(params.Pagination)
	results.Hits = hits
	results.Total = int64(total)
	results.HasMore = len(hits) == params.Pagination.Limit
	results.Metadata.Query = params.Query
	results.Metadata.Fallback = true
	return results
}

// popular is the last resort before an empty page: cached or verified
// resources, ignoring the query entirely.
func (h *Handler) popular(ctx context.Context, params domain.SearchParams) *domain.SearchResults {
	results := domain.EmptyResults(params.Pagination)
	results.Metadata.Query = params.Query
	results.Metadata.Fallback = true

	if hits, ok := h.gw.PopularResources(ctx); ok {
		results.Hits = hits
		results.Total = int64(len(hits))
		return results
	}

	resources, err := h.resources.Popular(ctx, popularLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "popular fallback failed",
			slog.String("error", err.Error()),
		)
		return results
	}

	hits := make([]domain.SearchHit, 0, len(resources))
	for i := range resources {
		hits = append(hits, resources[i].Hit(popularScore))
	}
	results.Hits = hits
	results.Total = int64(len(hits))

	h.gw.StorePopularResources(ctx, hits)
	return results
}

var nonWordRun = regexp.MustCompile(`[^\w\s\-]+`)
var spaceRun = regexp.MustCompile(`\s+`)

// simplifyQuery strips characters that trip the query parser. Queries that
// simplify to almost nothing become a match-everything wildcard.
func simplifyQuery(query string) string {
	s := nonWordRun.ReplaceAllString(query, " ")
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	if len(s) < 2 {
		return "*"
	}
	return s
}

func strPtr(s string) *string { return &s }
