package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
	"github.com/romapi/search-service/internal/personalization"
)

type stubHistory struct {
	history *domain.SearchHistory
	clicks  []domain.ClickStat
}

func (s *stubHistory) UserSearchHistory(context.Context, string, int, int) (*domain.SearchHistory, error) {
	return s.history, nil
}

func (s *stubHistory) ClickedResources(context.Context, string, int, int) ([]domain.ClickStat, error) {
	return s.clicks, nil
}

// strongHistory yields a profile whose top category clears the
// substitution threshold.
func strongHistory() *stubHistory {
	return &stubHistory{
		history: &domain.SearchHistory{
			TopCategories: []domain.CategoryCount{
				{CategoryID: "cat-9", SearchCount: 50},
			},
		},
		clicks: []domain.ClickStat{
			{ResourceID: "res-1", ClickCount: 10, LastClicked: time.Now()},
		},
	}
}

func newPersonalService(eng engine.SearchEngine, history personalization.HistoryProvider) *SearchService {
	logger := discardLogger()
	gw := cache.NewGateway(cache.NewMemory(), cache.DefaultGatewayConfig(), logger)
	return NewSearchService(eng, gw, &fakeResources{}, logger, Options{
		Personal: personalization.NewEngine(history, logger),
	})
}

func TestPersonalizedSearch_ZeroWeightMatchesPlainSearch(t *testing.T) {
	eng := &stubEngine{result: engineResult(docHit("res-1", "Chez Wou", "", 2.0))}
	svc := newPersonalService(eng, strongHistory())

	params := domain.SearchParams{Query: "restaurant", Language: domain.LangFrench}

	personalized, err := svc.PersonalizedSearch(context.Background(), "user-1", params, 0)
	require.NoError(t, err)

	assert.False(t, personalized.Metadata.Personalized)

	// The engine must see the caller's parameters untouched, with no
	// substituted category filter.
	doc, err := json.Marshal(eng.lastDoc)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "cat-9")

	plain, err := svc.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, plain.Hits, personalized.Hits)
	assert.Equal(t, plain.Metadata.Personalized, personalized.Metadata.Personalized)
}

func TestPersonalizedSearch_UnsetWeightUsesDefault(t *testing.T) {
	eng := &stubEngine{result: engineResult(docHit("res-1", "Chez Wou", "", 2.0))}
	svc := newPersonalService(eng, strongHistory())

	params := domain.SearchParams{Query: "restaurant", Language: domain.LangFrench}

	results, err := svc.PersonalizedSearch(context.Background(), "user-1", params, -1)
	require.NoError(t, err)

	assert.True(t, results.Metadata.Personalized)

	// The strong category preference is substituted into the filters.
	doc, err := json.Marshal(eng.lastDoc)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "cat-9")
}

func TestPersonalizedSearch_AnonymousFallsBackToPlainSearch(t *testing.T) {
	eng := &stubEngine{result: engineResult(docHit("res-1", "Chez Wou", "", 2.0))}
	svc := newPersonalService(eng, strongHistory())

	results, err := svc.PersonalizedSearch(context.Background(), "", domain.SearchParams{Query: "restaurant"}, -1)
	require.NoError(t, err)
	assert.False(t, results.Metadata.Personalized)
}
