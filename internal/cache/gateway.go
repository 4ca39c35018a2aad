package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/romapi/search-service/internal/domain"
)

const keyPrefix = "romapi_search"

// Cache entry kinds, used as key namespaces.
const (
	kindResults     = "results"
	kindSuggestions = "suggestions"
	kindPopular     = "popular"
	kindHierarchy   = "hierarchy"
)

// GatewayConfig holds per-kind TTLs.
type GatewayConfig struct {
	ResultTTL     time.Duration
	SuggestionTTL time.Duration
	PopularTTL    time.Duration
	HierarchyTTL  time.Duration
}

// DefaultGatewayConfig returns the standard TTLs.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		ResultTTL:     5 * time.Minute,
		SuggestionTTL: time.Hour,
		PopularTTL:    time.Hour,
		HierarchyTTL:  time.Hour,
	}
}

// Gateway is the typed caching facade over the raw store. Read and write
// failures are logged and swallowed: the cache never breaks the search path.
type Gateway struct {
	store  Store
	cfg    GatewayConfig
	logger *slog.Logger
}

// NewGateway creates a caching gateway over the given store.
func NewGateway(store Store, cfg GatewayConfig, logger *slog.Logger) *Gateway {
	return &Gateway{store: store, cfg: cfg, logger: logger}
}

func (g *Gateway) key(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, shorten(key))
}

// Results returns cached search results for the key, or false on a miss.
func (g *Gateway) Results(ctx context.Context, key string) (*domain.SearchResults, bool) {
	var results domain.SearchResults
	if !g.get(ctx, g.key(kindResults, key), &results) {
		return nil, false
	}
	return &results, true
}

// StoreResults caches search results under the key.
func (g *Gateway) StoreResults(ctx context.Context, key string, results *domain.SearchResults) {
	g.set(ctx, g.key(kindResults, key), results, g.cfg.ResultTTL)
}

// InvalidateResults drops the cached results for the key.
func (g *Gateway) InvalidateResults(ctx context.Context, key string) {
	if err := g.store.Del(ctx, g.key(kindResults, key)); err != nil {
		g.logger.WarnContext(ctx, "cache invalidate failed", slog.String("error", err.Error()))
	}
}

// InvalidatePattern drops every cached entry of the given kind matching the
// pattern. Patterns use Redis glob syntax.
func (g *Gateway) InvalidatePattern(ctx context.Context, pattern string) int {
	keys, err := g.store.Keys(ctx, fmt.Sprintf("%s:*:%s", keyPrefix, pattern))
	if err != nil {
		g.logger.WarnContext(ctx, "cache pattern scan failed",
			slog.String("pattern", pattern),
			slog.String("error", err.Error()),
		)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	if err := g.store.Del(ctx, keys...); err != nil {
		g.logger.WarnContext(ctx, "cache pattern delete failed",
			slog.String("pattern", pattern),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return len(keys)
}

// InvalidateAllResults drops every cached search result and popular list.
// The resource event consumer calls it when the underlying data changes.
func (g *Gateway) InvalidateAllResults(ctx context.Context) int {
	return g.invalidateKind(ctx, kindResults) + g.invalidateKind(ctx, kindPopular)
}

// InvalidateSuggestions drops every cached suggestion list.
func (g *Gateway) InvalidateSuggestions(ctx context.Context) int {
	return g.invalidateKind(ctx, kindSuggestions)
}

// InvalidateHierarchies drops every cached category hierarchy.
func (g *Gateway) InvalidateHierarchies(ctx context.Context) int {
	return g.invalidateKind(ctx, kindHierarchy)
}

func (g *Gateway) invalidateKind(ctx context.Context, kind string) int {
	keys, err := g.store.Keys(ctx, fmt.Sprintf("%s:%s:*", keyPrefix, kind))
	if err != nil {
		g.logger.WarnContext(ctx, "cache kind scan failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	if err := g.store.Del(ctx, keys...); err != nil {
		g.logger.WarnContext(ctx, "cache kind delete failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return len(keys)
}

// Suggestions returns cached suggestions for the key, or false on a miss.
func (g *Gateway) Suggestions(ctx context.Context, key string) ([]domain.Suggestion, bool) {
	var suggestions []domain.Suggestion
	if !g.get(ctx, g.key(kindSuggestions, key), &suggestions) {
		return nil, false
	}
	return suggestions, true
}

// StoreSuggestions caches suggestions under the key.
func (g *Gateway) StoreSuggestions(ctx context.Context, key string, suggestions []domain.Suggestion) {
	g.set(ctx, g.key(kindSuggestions, key), suggestions, g.cfg.SuggestionTTL)
}

// PopularResources returns the cached popular-resource hits used by the
// last-resort fallback.
func (g *Gateway) PopularResources(ctx context.Context) ([]domain.SearchHit, bool) {
	var hits []domain.SearchHit
	if !g.get(ctx, g.key(kindPopular, "resources"), &hits) {
		return nil, false
	}
	return hits, true
}

// StorePopularResources caches the popular-resource hits.
func (g *Gateway) StorePopularResources(ctx context.Context, hits []domain.SearchHit) {
	g.set(ctx, g.key(kindPopular, "resources"), hits, g.cfg.PopularTTL)
}

// Hierarchy returns a cached category hierarchy, or false on a miss.
func (g *Gateway) Hierarchy(ctx context.Context, key string) (*domain.CategoryHierarchy, bool) {
	var hierarchy domain.CategoryHierarchy
	if !g.get(ctx, g.key(kindHierarchy, key), &hierarchy) {
		return nil, false
	}
	return &hierarchy, true
}

// StoreHierarchy caches a category hierarchy under the key.
func (g *Gateway) StoreHierarchy(ctx context.Context, key string, hierarchy *domain.CategoryHierarchy) {
	g.set(ctx, g.key(kindHierarchy, key), hierarchy, g.cfg.HierarchyTTL)
}

func (g *Gateway) get(ctx context.Context, key string, dst any) bool {
	raw, err := g.store.Get(ctx, key)
	if err != nil {
		if err != ErrMiss {
			g.logger.WarnContext(ctx, "cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		g.logger.WarnContext(ctx, "cache entry corrupt, dropping",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		_ = g.store.Del(ctx, key)
		return false
	}
	return true
}

func (g *Gateway) set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		g.logger.WarnContext(ctx, "cache marshal failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := g.store.SetEx(ctx, key, string(data), ttl); err != nil {
		g.logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
