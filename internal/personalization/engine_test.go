package personalization

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/domain"
)

type fakeHistory struct {
	history    *domain.SearchHistory
	clicks     []domain.ClickStat
	historyErr error
	clicksErr  error
}

func (f *fakeHistory) UserSearchHistory(context.Context, string, int, int) (*domain.SearchHistory, error) {
	return f.history, f.historyErr
}

func (f *fakeHistory) ClickedResources(context.Context, string, int, int) ([]domain.ClickStat, error) {
	return f.clicks, f.clicksErr
}

func newEngine(h HistoryProvider) *Engine {
	return NewEngine(h, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestPreferencesWeights(t *testing.T) {
	h := &fakeHistory{
		history: &domain.SearchHistory{
			TopCategories: []domain.CategoryCount{
				{CategoryID: "cat-1", SearchCount: 10},
				{CategoryID: "cat-2", SearchCount: 2},
				{CategoryID: "cat-3", SearchCount: 100},
			},
			TopTerms: []domain.TermCount{
				{Term: "restaurant", Count: 5},
				{Term: "hotel", Count: 1},
			},
		},
		clicks: []domain.ClickStat{
			{ResourceID: "res-1", ClickCount: 20, LastClicked: time.Now()},
		},
	}

	prefs := newEngine(h).Preferences(context.Background(), "user-1")

	require.Len(t, prefs.TopCategories, 3)
	assert.InDelta(t, 1.0, prefs.TopCategories[0].Weight, 1e-9)
	assert.InDelta(t, 0.28, prefs.TopCategories[1].Weight, 1e-9)
	// Counts above the ceiling saturate at 1.
	assert.InDelta(t, 1.0, prefs.TopCategories[2].Weight, 1e-9)

	require.Len(t, prefs.TopTerms, 2)
	assert.InDelta(t, 1.0, prefs.TopTerms[0].Weight, 1e-9)
	assert.InDelta(t, 0.28, prefs.TopTerms[1].Weight, 1e-9)

	require.Len(t, prefs.Clicked, 1)
	assert.InDelta(t, 1.0, prefs.Clicked[0].Weight, 1e-9)
}

func TestPreferencesHistoryFailureYieldsEmpty(t *testing.T) {
	h := &fakeHistory{historyErr: errors.New("db down")}

	prefs := newEngine(h).Preferences(context.Background(), "user-1")
	assert.True(t, prefs.IsEmpty())
}

func TestPreferencesAnonymousEmpty(t *testing.T) {
	prefs := newEngine(&fakeHistory{}).Preferences(context.Background(), "")
	assert.True(t, prefs.IsEmpty())
}

func TestPersonalizeParamsSubstitutesCategories(t *testing.T) {
	prefs := &domain.UserPreferences{
		TopCategories: []domain.CategoryPreference{
			{CategoryID: "cat-1", Weight: 0.9},
			{CategoryID: "cat-2", Weight: 0.8},
			{CategoryID: "cat-3", Weight: 0.7},
			{CategoryID: "cat-4", Weight: 0.6},
			{CategoryID: "cat-5", Weight: 0.4},
		},
	}

	out := newEngine(&fakeHistory{}).PersonalizeParams(domain.SearchParams{Query: "x"}, prefs)

	// Only strong affinities, capped at three.
	assert.Equal(t, []string{"cat-1", "cat-2", "cat-3"}, out.Filters.Categories)
}

func TestPersonalizeParamsKeepsExplicitValues(t *testing.T) {
	prefs := &domain.UserPreferences{
		TopCategories: []domain.CategoryPreference{{CategoryID: "cat-1", Weight: 0.9}},
		TopTerms:      []domain.TermPreference{{Term: "restaurant", Weight: 0.9}},
	}

	params := domain.SearchParams{
		Query:   "hotel",
		Filters: domain.SearchFilters{Categories: []string{"cat-9"}},
	}

	out := newEngine(&fakeHistory{}).PersonalizeParams(params, prefs)
	assert.Equal(t, "hotel", out.Query)
	assert.Equal(t, []string{"cat-9"}, out.Filters.Categories)
}

func TestPersonalizeParamsQuerySubstitution(t *testing.T) {
	prefs := &domain.UserPreferences{
		TopTerms: []domain.TermPreference{{Term: "restaurant", Weight: 0.8}},
	}

	out := newEngine(&fakeHistory{}).PersonalizeParams(domain.SearchParams{}, prefs)
	assert.Equal(t, "restaurant", out.Query)

	weak := &domain.UserPreferences{
		TopTerms: []domain.TermPreference{{Term: "restaurant", Weight: 0.5}},
	}
	out = newEngine(&fakeHistory{}).PersonalizeParams(domain.SearchParams{}, weak)
	assert.Empty(t, out.Query)
}

func resultsFixture() *domain.SearchResults {
	return &domain.SearchResults{
		Hits: []domain.SearchHit{
			{ID: "res-1", Score: 10, Category: domain.CategoryRef{ID: "cat-9"}},
			{ID: "res-2", Score: 9, Category: domain.CategoryRef{ID: "cat-1"}},
		},
	}
}

func TestPersonalizeResultsBoostsAndResorts(t *testing.T) {
	prefs := &domain.UserPreferences{
		TopCategories: []domain.CategoryPreference{{CategoryID: "cat-1", Weight: 1.0}},
		Clicked:       []domain.ClickPreference{{ResourceID: "res-2", Weight: 1.0}},
	}

	results := resultsFixture()
	newEngine(&fakeHistory{}).PersonalizeResults(results, prefs, 1.0)

	// res-2 gets the category boost (0.5*0.4) plus the click boost
	// (0.3*0.6) and overtakes res-1.
	assert.Equal(t, "res-2", results.Hits[0].ID)
	assert.InDelta(t, 9*1.38, results.Hits[0].Score, 1e-9)
	assert.InDelta(t, 10.0, results.Hits[1].Score, 1e-9)
	assert.True(t, results.Metadata.Personalized)
}

func TestPersonalizeResultsZeroWeightNoOp(t *testing.T) {
	prefs := &domain.UserPreferences{
		TopCategories: []domain.CategoryPreference{{CategoryID: "cat-1", Weight: 1.0}},
	}

	results := resultsFixture()
	newEngine(&fakeHistory{}).PersonalizeResults(results, prefs, 0)

	assert.Equal(t, "res-1", results.Hits[0].ID)
	assert.InDelta(t, 9.0, results.Hits[1].Score, 1e-9)
	assert.False(t, results.Metadata.Personalized)
}

func TestPersonalizeResultsWeightClamped(t *testing.T) {
	prefs := &domain.UserPreferences{
		Clicked: []domain.ClickPreference{{ResourceID: "res-1", Weight: 1.0}},
	}

	clamped := resultsFixture()
	newEngine(&fakeHistory{}).PersonalizeResults(clamped, prefs, 5)

	reference := resultsFixture()
	newEngine(&fakeHistory{}).PersonalizeResults(reference, prefs, 1)

	assert.InDelta(t, reference.Hits[0].Score, clamped.Hits[0].Score, 1e-9)
}

func TestPersonalizeResultsEmptyPrefsNoOp(t *testing.T) {
	results := resultsFixture()
	newEngine(&fakeHistory{}).PersonalizeResults(results, &domain.UserPreferences{}, 1)

	assert.InDelta(t, 10.0, results.Hits[0].Score, 1e-9)
	assert.False(t, results.Metadata.Personalized)
}
