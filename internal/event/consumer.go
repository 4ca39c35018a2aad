// Package event consumes resource and category change events from the bus
// and invalidates the affected search caches.
package event

import (
	"context"
	"log/slog"

	"github.com/romapi/search-service/internal/cache"
	pkgkafka "github.com/romapi/search-service/pkg/kafka"
)

// Kafka topics consumed by the search service.
const (
	TopicResourceCreated = "romapi.resource.created"
	TopicResourceUpdated = "romapi.resource.updated"
	TopicResourceDeleted = "romapi.resource.deleted"
	TopicCategoryUpdated = "romapi.category.updated"
)

// Topics lists every topic the consumer subscribes to.
func Topics() []string {
	return []string{
		TopicResourceCreated,
		TopicResourceUpdated,
		TopicResourceDeleted,
		TopicCategoryUpdated,
	}
}

// ResourceEventData is the payload of resource change events. Only the
// fields needed for invalidation are decoded.
type ResourceEventData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	Status     string `json:"status"`
}

// CategoryEventData is the payload of category change events.
type CategoryEventData struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Consumer invalidates search caches when the indexed data changes
// upstream. Cached results and suggestions would otherwise serve stale
// hits until their TTLs expire.
type Consumer struct {
	gw     *cache.Gateway
	logger *slog.Logger
}

// NewConsumer creates an event consumer over the cache gateway.
func NewConsumer(gw *cache.Gateway, logger *slog.Logger) *Consumer {
	return &Consumer{gw: gw, logger: logger}
}

// Handle processes a bus event based on its type. Unknown event types are
// ignored so new upstream events never poison the consumer.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicResourceCreated, TopicResourceUpdated:
		return c.handleResourceChanged(ctx, event)
	case TopicResourceDeleted:
		return c.handleResourceDeleted(ctx, event)
	case TopicCategoryUpdated:
		return c.handleCategoryUpdated(ctx, event)
	default:
		c.logger.DebugContext(ctx, "ignoring event",
			slog.String("event_type", event.EventType),
		)
		return nil
	}
}

func (c *Consumer) handleResourceChanged(ctx context.Context, event *pkgkafka.Event) error {
	var data ResourceEventData
	if err := event.UnmarshalData(&data); err != nil {
		c.logger.ErrorContext(ctx, "malformed resource event",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", err.Error()),
		)
		// Malformed payloads are not retryable.
		return nil
	}

	removed := c.gw.InvalidateAllResults(ctx)
	removed += c.gw.InvalidateSuggestions(ctx)

	c.logger.InfoContext(ctx, "search caches invalidated",
		slog.String("event_type", event.EventType),
		slog.String("resource_id", data.ID),
		slog.Int("entries_removed", removed),
	)
	return nil
}

func (c *Consumer) handleResourceDeleted(ctx context.Context, event *pkgkafka.Event) error {
	removed := c.gw.InvalidateAllResults(ctx)
	removed += c.gw.InvalidateSuggestions(ctx)

	c.logger.InfoContext(ctx, "search caches invalidated after delete",
		slog.String("resource_id", event.AggregateID),
		slog.Int("entries_removed", removed),
	)
	return nil
}

func (c *Consumer) handleCategoryUpdated(ctx context.Context, event *pkgkafka.Event) error {
	var data CategoryEventData
	if err := event.UnmarshalData(&data); err != nil {
		c.logger.ErrorContext(ctx, "malformed category event",
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	// Category changes move resources between facet buckets and reshape
	// breadcrumb trails, so both result and hierarchy caches go.
	removed := c.gw.InvalidateAllResults(ctx)
	removed += c.gw.InvalidateHierarchies(ctx)

	c.logger.InfoContext(ctx, "category caches invalidated",
		slog.String("category_id", data.ID),
		slog.Int("entries_removed", removed),
	)
	return nil
}
