// Package personalization derives per-user affinity profiles from search
// and click history and applies them to search parameters and results.
// Personalization is strictly additive: any failure yields an empty
// profile and the search proceeds unchanged.
package personalization

import (
	"context"
	"log/slog"
	"sort"

	"github.com/romapi/search-service/internal/domain"
)

const (
	// DefaultWeight is the personalization strength applied when the
	// caller does not choose one.
	DefaultWeight = 0.3

	defaultLookbackDays = 90
	historyLimit        = 200

	categorySubstitutionThreshold = 0.5
	querySubstitutionThreshold    = 0.7
	maxSubstitutedCategories      = 3
)

// HistoryProvider supplies the aggregated activity an affinity profile is
// built from.
type HistoryProvider interface {
	UserSearchHistory(ctx context.Context, userID string, lookbackDays, limit int) (*domain.SearchHistory, error)
	ClickedResources(ctx context.Context, userID string, lookbackDays, limit int) ([]domain.ClickStat, error)
}

// Engine builds and applies user preference profiles.
type Engine struct {
	history HistoryProvider
	logger  *slog.Logger
}

// NewEngine creates a personalization engine over the given history source.
func NewEngine(history HistoryProvider, logger *slog.Logger) *Engine {
	return &Engine{history: history, logger: logger}
}

// Preferences builds the affinity profile of a user from their recent
// activity. It never returns an error: when history is unavailable the
// profile is empty and personalization becomes a no-op.
func (e *Engine) Preferences(ctx context.Context, userID string) *domain.UserPreferences {
	prefs := &domain.UserPreferences{}
	if userID == "" {
		return prefs
	}

	history, err := e.history.UserSearchHistory(ctx, userID, defaultLookbackDays, historyLimit)
	if err != nil {
		e.logger.WarnContext(ctx, "search history unavailable, skipping personalization",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return prefs
	}

	for _, c := range history.TopCategories {
		prefs.TopCategories = append(prefs.TopCategories, domain.CategoryPreference{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			SearchCount:  c.SearchCount,
			Weight:       affinityWeight(c.SearchCount, 10),
		})
	}

	for _, tc := range history.TopTerms {
		prefs.TopTerms = append(prefs.TopTerms, domain.TermPreference{
			Term:   tc.Term,
			Count:  tc.Count,
			Weight: affinityWeight(tc.Count, 5),
		})
	}

	clicks, err := e.history.ClickedResources(ctx, userID, defaultLookbackDays, historyLimit)
	if err != nil {
		e.logger.WarnContext(ctx, "click history unavailable",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return prefs
	}

	for _, c := range clicks {
		prefs.Clicked = append(prefs.Clicked, domain.ClickPreference{
			ResourceID:  c.ResourceID,
			ClickCount:  c.ClickCount,
			LastClicked: c.LastClicked,
			Weight:      affinityWeight(c.ClickCount, 10),
		})
	}

	return prefs
}

// affinityWeight maps a raw count onto [0.1, 1.0], saturating at the
// given ceiling.
func affinityWeight(count, ceiling int) float64 {
	ratio := float64(count) / float64(ceiling)
	if ratio > 1 {
		ratio = 1
	}
	return 0.1 + ratio*0.9
}

// PersonalizeParams fills gaps in the search parameters from strong
// preferences. Explicit values are never overridden: categories are
// substituted only when none are set, the query only when empty.
func (e *Engine) PersonalizeParams(params domain.SearchParams, prefs *domain.UserPreferences) domain.SearchParams {
	if prefs.IsEmpty() {
		return params
	}

	out := params.Clone()

	if len(out.Filters.Categories) == 0 {
		for _, c := range prefs.TopCategories {
			if c.Weight <= categorySubstitutionThreshold {
				continue
			}
			out.Filters.Categories = append(out.Filters.Categories, c.CategoryID)
			if len(out.Filters.Categories) >= maxSubstitutedCategories {
				break
			}
		}
	}

	if out.Query == "" && len(prefs.TopTerms) > 0 {
		if top := prefs.TopTerms[0]; top.Weight > querySubstitutionThreshold {
			out.Query = top.Term
		}
	}

	return out
}

// PersonalizeResults boosts hits matching the user's affinities and
// re-sorts by the adjusted score. The weight controls the overall
// strength and is clamped to [0, 1]; zero leaves the results untouched.
func (e *Engine) PersonalizeResults(results *domain.SearchResults, prefs *domain.UserPreferences, weight float64) {
	if results == nil || prefs.IsEmpty() {
		return
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	if weight == 0 {
		return
	}

	categoryWeights := make(map[string]float64, len(prefs.TopCategories))
	for _, c := range prefs.TopCategories {
		categoryWeights[c.CategoryID] = c.Weight
	}
	clickWeights := make(map[string]float64, len(prefs.Clicked))
	for _, c := range prefs.Clicked {
		clickWeights[c.ResourceID] = c.Weight
	}

	for i := range results.Hits {
		hit := &results.Hits[i]

		boost := 0.0
		if w, ok := categoryWeights[hit.Category.ID]; ok {
			boost += w * 0.5 * weight * 0.4
		}
		if w, ok := clickWeights[hit.ID]; ok {
			boost += w * 0.3 * weight * 0.6
		}

		hit.Score *= 1 + boost
	}

	sort.SliceStable(results.Hits, func(i, j int) bool {
		return results.Hits[i].Score > results.Hits[j].Score
	})

	results.Metadata.Personalized = true
}
