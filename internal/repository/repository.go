package repository

import (
	"context"

	"github.com/romapi/search-service/internal/domain"
)

// ResourceFilter defines filter criteria for the relational resource lookup
// used when the search engine is degraded.
type ResourceFilter struct {
	Name         *string
	CategoryID   *string
	ResourceType *string
	Plan         *string
	City         *string
	Region       *string
	Country      *string
	Status       *string
	Verified     *bool
	Page         int
	PerPage      int
}

// ResourceRepository defines the relational read path over API resources.
type ResourceRepository interface {
	// Search returns resources matching the filter along with the total count.
	Search(ctx context.Context, filter ResourceFilter) ([]domain.Resource, int, error)

	// SuggestNames returns active resources whose name starts with the prefix.
	SuggestNames(ctx context.Context, prefix string, limit int) ([]domain.Resource, error)

	// Popular returns the most popular active resources, verified first.
	Popular(ctx context.Context, limit int) ([]domain.Resource, error)
}

// CategoryRepository defines read access to the category tree.
type CategoryRepository interface {
	// GetByID retrieves a category by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.CategoryInfo, error)

	// GetBySlug retrieves a category by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.CategoryInfo, error)

	// FindByParent returns the direct children of a category, ordered by name.
	FindByParent(ctx context.Context, parentID string) ([]domain.CategoryInfo, error)

	// FindRoots returns the categories without a parent, ordered by name.
	FindRoots(ctx context.Context) ([]domain.CategoryInfo, error)
}

// SavedSearchRepository persists named searches per user.
type SavedSearchRepository interface {
	// Create inserts a new saved search.
	Create(ctx context.Context, search *domain.SavedSearch) error

	// GetByID retrieves a saved search by its identifier.
	GetByID(ctx context.Context, id string) (*domain.SavedSearch, error)

	// ListByUser returns all saved searches of a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.SavedSearch, error)

	// CountByUser returns the number of saved searches a user owns.
	CountByUser(ctx context.Context, userID string) (int, error)

	// Update modifies the name and parameters of a saved search.
	Update(ctx context.Context, search *domain.SavedSearch) error

	// TouchExecuted records the execution time of a saved search.
	TouchExecuted(ctx context.Context, id string) error

	// Delete removes a saved search by its identifier.
	Delete(ctx context.Context, id string) error
}
