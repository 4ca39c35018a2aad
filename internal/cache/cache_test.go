package cache

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestMemoryGetSetEx(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.SetEx(ctx, "k", "v", time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, m.Del(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SetEx(ctx, "short", "v", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SetEx(ctx, "romapi_search:results:a", "1", time.Minute))
	require.NoError(t, m.SetEx(ctx, "romapi_search:results:b", "2", time.Minute))
	require.NoError(t, m.SetEx(ctx, "romapi_search:suggestions:a", "3", time.Minute))

	keys, err := m.Keys(ctx, "romapi_search:results:*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestMemoryIncrExpire(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, m.Expire(ctx, "counter", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	n, err = m.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryListSemantics(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.LPush(ctx, "history", "first"))
	require.NoError(t, m.LPush(ctx, "history", "second"))
	require.NoError(t, m.LPush(ctx, "history", "third"))

	// Newest first, as LPUSH prepends.
	items, err := m.LRange(ctx, "history", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, items)

	require.NoError(t, m.LTrim(ctx, "history", 0, 1))
	items, err = m.LRange(ctx, "history", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second"}, items)
}

func TestMemorySortedSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.ZIncrBy(ctx, "popular", 1, "a")
	require.NoError(t, err)
	_, err = m.ZIncrBy(ctx, "popular", 1, "b")
	require.NoError(t, err)
	score, err := m.ZIncrBy(ctx, "popular", 1, "b")
	require.NoError(t, err)
	assert.Equal(t, float64(2), score)

	members, err := m.ZRevRangeWithScores(ctx, "popular", 0, -1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "b", members[0].Member)
	assert.Equal(t, float64(2), members[0].Score)
	assert.Equal(t, "a", members[1].Member)

	top, err := m.ZRevRangeWithScores(ctx, "popular", 0, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].Member)
}

func TestKeyForParamsDeterministic(t *testing.T) {
	params := domain.SearchParams{
		Query:      "restaurant douala",
		Language:   domain.LangFrench,
		Pagination: domain.Pagination{Page: 1, Limit: 20},
	}

	assert.Equal(t, KeyForParams(params), KeyForParams(params))
}

func TestKeyForParamsVariesPerUser(t *testing.T) {
	base := domain.SearchParams{Query: "hotel", Pagination: domain.Pagination{Page: 1, Limit: 20}}
	other := base.Clone()
	other.UserID = "user-42"

	assert.NotEqual(t, KeyForParams(base), KeyForParams(other))
}

func TestShortenLongKeys(t *testing.T) {
	long := strings.Repeat("x", 300)
	short := shorten(long)

	assert.LessOrEqual(t, len(short), maxKeyLength)
	assert.Equal(t, long[:50], short[:50])
	// Same input hashes to the same key, different inputs do not.
	assert.Equal(t, short, shorten(long))
	assert.NotEqual(t, short, shorten(long+"y"))

	assert.Equal(t, "plain", shorten("plain"))
}

func TestGatewayResultsRoundTrip(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(NewMemory(), DefaultGatewayConfig(), discardLogger())

	_, ok := g.Results(ctx, "k1")
	assert.False(t, ok)

	results := &domain.SearchResults{
		Hits: []domain.SearchHit{
			{ID: "r1", Name: "Chez Wou", Score: 4.2, Verified: true},
		},
		Total:  1,
		TookMs: 12,
		Page:   1,
		Limit:  20,
	}
	g.StoreResults(ctx, "k1", results)

	got, ok := g.Results(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, results.Total, got.Total)
	require.Len(t, got.Hits, 1)
	assert.Equal(t, "Chez Wou", got.Hits[0].Name)
	assert.True(t, got.Hits[0].Verified)

	g.InvalidateResults(ctx, "k1")
	_, ok = g.Results(ctx, "k1")
	assert.False(t, ok)
}

func TestGatewaySuggestionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(NewMemory(), DefaultGatewayConfig(), discardLogger())

	suggestions := []domain.Suggestion{
		{Text: "restaurant", Type: domain.SuggestionResource, Score: 3.1},
		{Text: "restauration", Type: domain.SuggestionCategory, Score: 1.8},
	}
	g.StoreSuggestions(ctx, "rest", suggestions)

	got, ok := g.Suggestions(ctx, "rest")
	require.True(t, ok)
	assert.Equal(t, suggestions, got)
}

func TestGatewayCorruptEntryTreatedAsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	g := NewGateway(store, DefaultGatewayConfig(), discardLogger())

	key := g.key(kindResults, "broken")
	require.NoError(t, store.SetEx(ctx, key, "{not json", time.Minute))

	_, ok := g.Results(ctx, "broken")
	assert.False(t, ok)

	// The corrupt entry is dropped so the next write starts clean.
	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestGatewayInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(NewMemory(), DefaultGatewayConfig(), discardLogger())

	g.StoreResults(ctx, "a", &domain.SearchResults{Total: 1})
	g.StoreResults(ctx, "b", &domain.SearchResults{Total: 2})
	g.StoreSuggestions(ctx, "a", []domain.Suggestion{{Text: "a"}})

	removed := g.InvalidatePattern(ctx, "*")
	assert.Equal(t, 3, removed)

	_, ok := g.Results(ctx, "a")
	assert.False(t, ok)
}

func TestGatewayPopularResources(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(NewMemory(), DefaultGatewayConfig(), discardLogger())

	_, ok := g.PopularResources(ctx)
	assert.False(t, ok)

	hits := []domain.SearchHit{{ID: "p1", Name: "Institut Goethe", Score: 3}}
	g.StorePopularResources(ctx, hits)

	got, ok := g.PopularResources(ctx)
	require.True(t, ok)
	assert.Equal(t, hits, got)
}
