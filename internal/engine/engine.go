// Package engine defines the search engine abstraction the orchestration
// layer talks to. Implementations translate rendered query documents into
// backend calls and report failures with typed error kinds so callers can
// dispatch fallbacks without substring matching.
package engine

import (
	"context"

	"github.com/romapi/search-service/internal/domain"
)

// Hit is one raw engine hit before domain transformation.
type Hit struct {
	ID        string
	Score     float64
	Source    domain.ResourceDoc
	Sort      []float64
	Highlight map[string][]string
}

// Result is the decoded engine response.
type Result struct {
	Hits   []Hit
	Total  int
	TookMs int64
	Aggs   Aggregations
}

// SearchEngine executes rendered query documents against a search backend.
type SearchEngine interface {
	// Search executes a rendered query document against the resource index.
	Search(ctx context.Context, doc map[string]any) (*Result, error)

	// Ping checks whether the backend is reachable.
	Ping(ctx context.Context) error

	// IndexHealth reports the health of the resource index (green, yellow,
	// red).
	IndexHealth(ctx context.Context) (string, error)
}
