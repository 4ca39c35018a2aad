package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
	"github.com/romapi/search-service/internal/language"
	"github.com/romapi/search-service/internal/query"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

const defaultSuggestLimit = 10

// Suggestion type weights: direct resource matches rank above derived
// category, location and tag candidates at equal textual relevance.
var suggestionTypeWeights = map[string]float64{
	domain.SuggestionResource: 1.0,
	domain.SuggestionCategory: 0.9,
	domain.SuggestionLocation: 0.8,
	domain.SuggestionTag:      0.7,
}

// Suggest returns autocomplete candidates for a query prefix. Prefixes
// shorter than two characters return nothing without touching the engine,
// and each caller is rate limited.
func (s *SearchService) Suggest(ctx context.Context, prefix, lang string, limit int, userID, sessionID string) ([]domain.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if len([]rune(prefix)) < minSuggestLength {
		return []domain.Suggestion{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}

	if s.limiter != nil {
		caller := userID
		if caller == "" {
			caller = sessionID
		}
		if !s.limiter.Allow(ctx, suggestScope, caller) {
			return nil, apperrors.RateLimited("suggestion rate limit exceeded")
		}
	}

	if !language.IsSupported(lang) {
		lang = s.detector.Detect(prefix).Language
	}

	cacheKey := fmt.Sprintf("%s|%s|%d", strings.ToLower(prefix), lang, limit)
	if cached, ok := s.gw.Suggestions(ctx, cacheKey); ok {
		return cached, nil
	}

	doc := query.BuildSuggest(prefix, lang, limit).Render()
	res, err := s.engine.Search(ctx, doc)
	if err != nil {
		return s.fallback.HandleSuggestionError(ctx, err, prefix, limit), nil
	}

	suggestions := rankSuggestions(suggestionCandidates(res.Hits, prefix), limit)
	if len(suggestions) == 0 {
		suggestions = s.padWithPopular(ctx, suggestions, limit)
	}
	s.gw.StoreSuggestions(ctx, cacheKey, suggestions)
	return suggestions, nil
}

// padWithPopular tops up a short suggestion list with corpus-wide popular
// names, skipping texts already present.
func (s *SearchService) padWithPopular(ctx context.Context, suggestions []domain.Suggestion, limit int) []domain.Suggestion {
	popular, err := s.PopularSuggestions(ctx, limit)
	if err != nil {
		return suggestions
	}

	seen := make(map[string]struct{}, len(suggestions))
	for _, sug := range suggestions {
		seen[strings.ToLower(sug.Text)] = struct{}{}
	}
	for _, sug := range popular {
		if len(suggestions) >= limit {
			break
		}
		key := strings.ToLower(sug.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, sug)
	}
	return suggestions
}

// PopularSuggestions returns corpus-wide popular names and categories, used
// to prefill an empty suggestion box.
func (s *SearchService) PopularSuggestions(ctx context.Context, limit int) ([]domain.Suggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestLimit
	}

	res, err := s.engine.Search(ctx, query.BuildPopularSuggest(limit).Render())
	if err != nil {
		return nil, err
	}

	var out []domain.Suggestion
	if names, ok := res.Aggs["popular_names"]; ok {
		for _, b := range names.Buckets {
			sug := domain.Suggestion{
				Text:  b.KeyString(),
				Type:  domain.SuggestionResource,
				Score: float64(b.DocCount),
			}
			if avg, ok := b.Sub["avg_popularity"]; ok && avg.Value != nil {
				sug.Popularity = *avg.Value
			}
			out = append(out, sug)
		}
	}
	if cats, ok := res.Aggs["popular_categories"]; ok {
		for _, b := range cats.Buckets {
			out = append(out, domain.Suggestion{
				Text:  b.KeyString(),
				Type:  domain.SuggestionCategory,
				Score: float64(b.DocCount),
			})
		}
	}

	return rankSuggestions(out, limit), nil
}

// suggestionCandidates expands engine hits into typed candidates: the
// resource name itself, its category and any tags matching the prefix.
func suggestionCandidates(hits []engine.Hit, prefix string) []domain.Suggestion {
	lowerPrefix := strings.ToLower(prefix)

	var candidates []domain.Suggestion
	for _, h := range hits {
		doc := h.Source

		candidates = append(candidates, domain.Suggestion{
			Text:         doc.Name,
			Type:         domain.SuggestionResource,
			Score:        suggestionScore(h.Score, doc.Name, lowerPrefix, doc.Popularity, domain.SuggestionResource),
			ResourceID:   doc.ID,
			CategoryName: doc.Category.Name,
			Popularity:   doc.Popularity,
			Verified:     doc.Verified,
		})

		if doc.Category.Name != "" {
			candidates = append(candidates, domain.Suggestion{
				Text:  doc.Category.Name,
				Type:  domain.SuggestionCategory,
				Score: suggestionScore(h.Score, doc.Category.Name, lowerPrefix, 0, domain.SuggestionCategory),
			})
		}

		for _, tag := range doc.Tags {
			if !strings.Contains(strings.ToLower(tag), lowerPrefix) {
				continue
			}
			candidates = append(candidates, domain.Suggestion{
				Text:  tag,
				Type:  domain.SuggestionTag,
				Score: suggestionScore(h.Score, tag, lowerPrefix, 0, domain.SuggestionTag),
			})
		}
	}
	return candidates
}

// suggestionScore combines textual relevance with match quality, resource
// popularity and the candidate type weight.
func suggestionScore(base float64, text, lowerPrefix string, popularity float64, kind string) float64 {
	score := base

	lowerText := strings.ToLower(text)
	switch {
	case lowerText == lowerPrefix:
		score *= 2.0
	case strings.HasPrefix(lowerText, lowerPrefix):
		score *= 1.5
	}

	switch {
	case popularity > 0.8:
		score *= 1.4
	case popularity > 0.6:
		score *= 1.2
	case popularity > 0.4:
		score *= 1.1
	}

	if w, ok := suggestionTypeWeights[kind]; ok {
		score *= w
	}
	return score
}

// rankSuggestions deduplicates candidates case-insensitively, keeping the
// best score per text, then orders and truncates them.
func rankSuggestions(candidates []domain.Suggestion, limit int) []domain.Suggestion {
	best := make(map[string]domain.Suggestion, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(c.Text)
		if existing, ok := best[key]; !ok || c.Score > existing.Score {
			best[key] = c
		}
	}

	out := make([]domain.Suggestion, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
