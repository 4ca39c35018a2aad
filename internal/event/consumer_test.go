package event

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
	pkgkafka "github.com/romapi/search-service/pkg/kafka"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConsumer() (*Consumer, *cache.Gateway) {
	gw := cache.NewGateway(cache.NewMemory(), cache.DefaultGatewayConfig(), testLogger())
	return NewConsumer(gw, testLogger()), gw
}

func newEvent(t *testing.T, eventType string, data any) *pkgkafka.Event {
	t.Helper()
	event, err := pkgkafka.NewEvent(eventType, "agg-1", "resource", "test", data)
	require.NoError(t, err)
	return event
}

func TestHandle_ResourceUpdatedInvalidatesResults(t *testing.T) {
	c, gw := newTestConsumer()
	ctx := context.Background()

	gw.StoreResults(ctx, "restaurant|fr", &domain.SearchResults{Total: 3})
	gw.StoreSuggestions(ctx, "rest|fr|10", []domain.Suggestion{{Text: "Restaurant"}})

	event := newEvent(t, TopicResourceUpdated, ResourceEventData{ID: "res-1", Status: "ACTIVE"})
	require.NoError(t, c.Handle(ctx, event))

	_, ok := gw.Results(ctx, "restaurant|fr")
	assert.False(t, ok)
	_, ok = gw.Suggestions(ctx, "rest|fr|10")
	assert.False(t, ok)
}

func TestHandle_ResourceDeletedInvalidatesPopular(t *testing.T) {
	c, gw := newTestConsumer()
	ctx := context.Background()

	gw.StorePopularResources(ctx, []domain.SearchHit{{ID: "res-1"}})

	event := newEvent(t, TopicResourceDeleted, ResourceEventData{ID: "res-1"})
	require.NoError(t, c.Handle(ctx, event))

	_, ok := gw.PopularResources(ctx)
	assert.False(t, ok)
}

func TestHandle_CategoryUpdatedInvalidatesHierarchies(t *testing.T) {
	c, gw := newTestConsumer()
	ctx := context.Background()

	gw.StoreHierarchy(ctx, "cat-1", &domain.CategoryHierarchy{
		Current: &domain.CategoryInfo{ID: "cat-1", Name: "Restaurants"},
	})

	event := newEvent(t, TopicCategoryUpdated, CategoryEventData{ID: "cat-1", Name: "Restaurants"})
	require.NoError(t, c.Handle(ctx, event))

	_, ok := gw.Hierarchy(ctx, "cat-1")
	assert.False(t, ok)
}

func TestHandle_CategoryUpdatedKeepsSuggestions(t *testing.T) {
	c, gw := newTestConsumer()
	ctx := context.Background()

	gw.StoreSuggestions(ctx, "rest|fr|10", []domain.Suggestion{{Text: "Restaurant"}})

	event := newEvent(t, TopicCategoryUpdated, CategoryEventData{ID: "cat-1"})
	require.NoError(t, c.Handle(ctx, event))

	_, ok := gw.Suggestions(ctx, "rest|fr|10")
	assert.True(t, ok)
}

func TestHandle_UnknownEventTypeIsIgnored(t *testing.T) {
	c, gw := newTestConsumer()
	ctx := context.Background()

	gw.StoreResults(ctx, "restaurant|fr", &domain.SearchResults{Total: 3})

	event := newEvent(t, "romapi.user.created", map[string]string{"id": "u-1"})
	require.NoError(t, c.Handle(ctx, event))

	_, ok := gw.Results(ctx, "restaurant|fr")
	assert.True(t, ok)
}

func TestHandle_MalformedPayloadIsNotRetried(t *testing.T) {
	c, _ := newTestConsumer()

	event := newEvent(t, TopicResourceUpdated, nil)
	event.Data = []byte(`{"id":`)

	assert.NoError(t, c.Handle(context.Background(), event))
}
