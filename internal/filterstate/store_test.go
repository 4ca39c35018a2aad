package filterstate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewStore(cache.NewMemory(), time.Hour, logger)
}

func boolPtr(b bool) *bool { return &b }

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	state, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, state)

	err = s.Save(ctx, "sess-1", State{
		Filters:   domain.SearchFilters{City: "Douala", Verified: boolPtr(true)},
		ActiveTab: "restaurants",
		Query:     "poulet braisé",
	})
	require.NoError(t, err)

	state, err = s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "Douala", state.Filters.City)
	assert.Equal(t, "restaurants", state.ActiveTab)
	assert.Equal(t, "poulet braisé", state.Query)
	assert.False(t, state.CreatedAt.IsZero())
	assert.False(t, state.LastUpdated.IsZero())
}

func TestStoreStaleStateDropped(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "sess-1", State{Query: "old"}))

	// Move the clock past the TTL without waiting.
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	state, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStoreUpdateActiveTabPreservesFilters(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "sess-1", State{
		Filters: domain.SearchFilters{Categories: []string{"cat-1"}},
		Query:   "hotel",
	}))

	require.NoError(t, s.UpdateActiveTab(ctx, "sess-1", "categories"))

	state, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "categories", state.ActiveTab)
	assert.Equal(t, []string{"cat-1"}, state.Filters.Categories)
	assert.Equal(t, "hotel", state.Query)
}

func TestStoreUpdateFiltersPreservesTab(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "sess-1", State{ActiveTab: "map"}))

	filters := domain.SearchFilters{Region: "Littoral"}
	require.NoError(t, s.UpdateFilters(ctx, "sess-1", filters, "plage"))

	state, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "map", state.ActiveTab)
	assert.Equal(t, "Littoral", state.Filters.Region)
	assert.Equal(t, "plage", state.Query)
}

func TestStoreUpdateActiveTabWithoutExistingState(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.UpdateActiveTab(ctx, "fresh", "all"))

	state, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "all", state.ActiveTab)
}

func TestApplyPersistedCurrentWins(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "sess-1", State{
		Filters: domain.SearchFilters{
			Categories: []string{"cat-1", "cat-2"},
			City:       "Douala",
			Verified:   boolPtr(true),
		},
		Query: "restaurant",
	}))

	params := domain.SearchParams{
		Query:   "hotel",
		Filters: domain.SearchFilters{City: "Yaoundé"},
	}

	merged := s.ApplyPersisted(ctx, "sess-1", params)

	// Explicit values are kept, gaps are filled from the session.
	assert.Equal(t, "hotel", merged.Query)
	assert.Equal(t, "Yaoundé", merged.Filters.City)
	assert.Equal(t, []string{"cat-1", "cat-2"}, merged.Filters.Categories)
	require.NotNil(t, merged.Filters.Verified)
	assert.True(t, *merged.Filters.Verified)
}

func TestApplyPersistedQueryFallback(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "sess-1", State{Query: "boulangerie"}))

	merged := s.ApplyPersisted(ctx, "sess-1", domain.SearchParams{})
	assert.Equal(t, "boulangerie", merged.Query)
}

func TestApplyPersistedNoState(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	params := domain.SearchParams{Query: "pharmacie"}
	merged := s.ApplyPersisted(ctx, "missing", params)
	assert.Equal(t, params.Query, merged.Query)
}

func TestRecordSearchHistoryBounded(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for i := 0; i < maxHistoryEntries+5; i++ {
		s.RecordSearch(ctx, "sess-1", "query", domain.SearchFilters{})
	}

	entries, err := s.History(ctx, "sess-1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, maxHistoryEntries)
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	s.RecordSearch(ctx, "sess-1", "first", domain.SearchFilters{})
	s.RecordSearch(ctx, "sess-1", "second", domain.SearchFilters{})

	entries, err := s.History(ctx, "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Query)
	assert.Equal(t, "first", entries[1].Query)
}

func TestPopularCountsCombinations(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	douala := domain.SearchFilters{City: "Douala"}
	yaounde := domain.SearchFilters{City: "Yaoundé"}

	s.RecordSearch(ctx, "a", "q", douala)
	s.RecordSearch(ctx, "b", "q", douala)
	s.RecordSearch(ctx, "c", "q", yaounde)

	combos, err := s.Popular(ctx, 10)
	require.NoError(t, err)
	require.Len(t, combos, 2)
	assert.Equal(t, "city=douala", combos[0].Signature)
	assert.Equal(t, float64(2), combos[0].Count)
}

func TestPopularSkipsEmptySignature(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// Only excluded fields set: nothing to aggregate.
	s.RecordSearch(ctx, "a", "q", domain.SearchFilters{Tags: []string{"wifi"}})

	combos, err := s.Popular(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, combos)
}

func TestSignatureNormalization(t *testing.T) {
	a := Signature(domain.SearchFilters{
		Categories: []string{"B", "a"},
		City:       "DOUALA",
		Verified:   boolPtr(true),
	})
	b := Signature(domain.SearchFilters{
		Categories: []string{"a", "B"},
		City:       "douala",
		Verified:   boolPtr(true),
	})

	assert.Equal(t, a, b)
	assert.Equal(t, "categories=a,b|verified=true|city=douala", a)
}

func TestClearDropsStateAndHistory(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "sess-1", State{Query: "q"}))
	s.RecordSearch(ctx, "sess-1", "q", domain.SearchFilters{City: "Douala"})

	require.NoError(t, s.Clear(ctx, "sess-1"))

	state, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, state)

	entries, err := s.History(ctx, "sess-1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
