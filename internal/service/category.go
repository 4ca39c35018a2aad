package service

import (
	"context"

	"github.com/romapi/search-service/internal/category"
	"github.com/romapi/search-service/internal/domain"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

// SearchByCategory searches a category and, by default, its descendants.
// Unknown categories surface as not found rather than an empty result.
func (s *SearchService) SearchByCategory(ctx context.Context, categoryID string, includeSubcategories bool, params domain.SearchParams) (*domain.SearchResults, error) {
	if categoryID == "" {
		return nil, apperrors.InvalidInput("category id is required")
	}
	if s.categories == nil {
		return nil, apperrors.Unavailable("category resolver")
	}

	categoryIDs := []string{categoryID}
	if includeSubcategories {
		descendants, err := s.categories.DescendantIDs(ctx, categoryID, category.DefaultDescendantDepth)
		if err != nil {
			return nil, err
		}
		categoryIDs = append(categoryIDs, descendants...)
	} else if _, err := s.categories.Hierarchy(ctx, categoryID); err != nil {
		return nil, err
	}

	params.Filters.Categories = categoryIDs

	results, err := s.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	results.Metadata.CategoryID = categoryID
	results.Metadata.SubcategoriesIncluded = includeSubcategories
	results.Metadata.TotalCategoriesSearched = len(categoryIDs)
	return results, nil
}

// CategoryHierarchy returns the full navigation context of a category.
func (s *SearchService) CategoryHierarchy(ctx context.Context, categoryID string) (*domain.CategoryHierarchy, error) {
	if s.categories == nil {
		return nil, apperrors.Unavailable("category resolver")
	}
	return s.categories.Hierarchy(ctx, categoryID)
}
