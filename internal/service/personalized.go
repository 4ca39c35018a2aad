package service

import (
	"context"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/personalization"
)

// PersonalizedSearch runs a search biased by the user's history. A negative
// weight falls back to the configured default. A weight of exactly zero
// disables personalization and returns the same results a plain search would.
func (s *SearchService) PersonalizedSearch(ctx context.Context, userID string, params domain.SearchParams, weight float64) (*domain.SearchResults, error) {
	if weight < 0 {
		weight = s.personalWeight
		if weight == 0 {
			weight = personalization.DefaultWeight
		}
	}
	if s.personal == nil || userID == "" || weight == 0 {
		return s.Search(ctx, params)
	}

	params.UserID = userID
	prefs := s.personal.Preferences(ctx, userID)
	params = s.personal.PersonalizeParams(params, prefs)

	results, err := s.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	s.personal.PersonalizeResults(results, prefs, weight)
	return results, nil
}
