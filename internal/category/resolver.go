// Package category resolves the position of a category inside the tree:
// ancestors, siblings, children, breadcrumbs and bounded descendant sets
// used to widen a category-scoped search.
package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/repository"
)

const (
	// maxAncestorDepth bounds the upward walk so a corrupted parent chain
	// cannot loop forever.
	maxAncestorDepth = 10

	// DefaultDescendantDepth is how many levels below a category a scoped
	// search includes.
	DefaultDescendantDepth = 3

	rootBreadcrumbName = "Toutes les catégories"
)

// Resolver computes hierarchy context over the category repository.
type Resolver struct {
	repo   repository.CategoryRepository
	gw     *cache.Gateway
	logger *slog.Logger
}

// NewResolver creates a category resolver. The cache gateway may be nil,
// in which case every call hits the repository.
func NewResolver(repo repository.CategoryRepository, gw *cache.Gateway, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, gw: gw, logger: logger}
}

// Hierarchy returns the full navigation context around the category.
func (r *Resolver) Hierarchy(ctx context.Context, id string) (*domain.CategoryHierarchy, error) {
	cacheKey := "category_hierarchy_" + id
	if r.gw != nil {
		if cached, ok := r.gw.Hierarchy(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	current, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve category %s: %w", id, err)
	}

	ancestors, err := r.ancestors(ctx, current)
	if err != nil {
		return nil, err
	}

	annotate(current, ancestors)

	siblings, err := r.siblings(ctx, current)
	if err != nil {
		return nil, err
	}

	children, err := r.repo.FindByParent(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("load children of %s: %w", current.ID, err)
	}
	for i := range children {
		children[i].Level = current.Level + 1
		children[i].Path = current.Path + "/" + children[i].Slug
	}

	hierarchy := &domain.CategoryHierarchy{
		Current:     current,
		Ancestors:   ancestors,
		Siblings:    siblings,
		Children:    children,
		Breadcrumbs: breadcrumbs(current, ancestors),
	}

	if r.gw != nil {
		r.gw.StoreHierarchy(ctx, cacheKey, hierarchy)
	}

	return hierarchy, nil
}

// DescendantIDs returns the IDs of all categories up to depth levels below
// the given one, not including it. A non-positive depth yields an empty
// slice.
func (r *Resolver) DescendantIDs(ctx context.Context, id string, depth int) ([]string, error) {
	ids := []string{}
	if depth <= 0 {
		return ids, nil
	}

	frontier := []string{id}
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, parentID := range frontier {
			children, err := r.repo.FindByParent(ctx, parentID)
			if err != nil {
				return nil, fmt.Errorf("load descendants of %s: %w", id, err)
			}
			for _, child := range children {
				ids = append(ids, child.ID)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	return ids, nil
}

// ancestors walks parent links up to the root, returning root first. The
// walk is capped and cycle-protected.
func (r *Resolver) ancestors(ctx context.Context, current *domain.CategoryInfo) ([]domain.CategoryInfo, error) {
	var chain []domain.CategoryInfo
	visited := map[string]bool{current.ID: true}

	parentID := current.ParentID
	for parentID != "" {
		if len(chain) >= maxAncestorDepth {
			r.logger.WarnContext(ctx, "category ancestor chain too deep, truncating",
				slog.String("category_id", current.ID),
			)
			break
		}
		if visited[parentID] {
			r.logger.WarnContext(ctx, "category parent cycle detected",
				slog.String("category_id", current.ID),
				slog.String("parent_id", parentID),
			)
			break
		}
		visited[parentID] = true

		parent, err := r.repo.GetByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("load ancestor %s: %w", parentID, err)
		}

		chain = append(chain, *parent)
		parentID = parent.ParentID
	}

	// The walk collected child-to-root, callers want root first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	for i := range chain {
		chain[i].Level = i
		chain[i].Path = joinPath(chain[:i+1])
	}

	return chain, nil
}

func (r *Resolver) siblings(ctx context.Context, current *domain.CategoryInfo) ([]domain.CategoryInfo, error) {
	var (
		peers []domain.CategoryInfo
		err   error
	)

	if current.ParentID == "" {
		peers, err = r.repo.FindRoots(ctx)
	} else {
		peers, err = r.repo.FindByParent(ctx, current.ParentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load siblings of %s: %w", current.ID, err)
	}

	siblings := make([]domain.CategoryInfo, 0, len(peers))
	for _, peer := range peers {
		if peer.ID == current.ID {
			continue
		}
		peer.Level = current.Level
		siblings = append(siblings, peer)
	}

	return siblings, nil
}

// annotate sets the level and path of the current category from its
// ancestor chain.
func annotate(current *domain.CategoryInfo, ancestors []domain.CategoryInfo) {
	current.Level = len(ancestors)

	slugs := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		slugs = append(slugs, a.Slug)
	}
	slugs = append(slugs, current.Slug)
	current.Path = strings.Join(slugs, "/")
}

func joinPath(chain []domain.CategoryInfo) string {
	slugs := make([]string, len(chain))
	for i, c := range chain {
		slugs[i] = c.Slug
	}
	return strings.Join(slugs, "/")
}

// breadcrumbs builds the navigation trail, starting from the synthetic
// all-categories root.
func breadcrumbs(current *domain.CategoryInfo, ancestors []domain.CategoryInfo) []domain.Breadcrumb {
	trail := make([]domain.Breadcrumb, 0, len(ancestors)+2)
	trail = append(trail, domain.Breadcrumb{
		ID:    "root",
		Name:  rootBreadcrumbName,
		Slug:  "",
		URL:   "/categories",
		Level: 0,
	})

	for _, a := range ancestors {
		trail = append(trail, domain.Breadcrumb{
			ID:    a.ID,
			Name:  a.Name,
			Slug:  a.Slug,
			URL:   "/categories/" + a.Slug,
			Level: a.Level + 1,
		})
	}

	trail = append(trail, domain.Breadcrumb{
		ID:    current.ID,
		Name:  current.Name,
		Slug:  current.Slug,
		URL:   "/categories/" + current.Slug,
		Level: current.Level + 1,
	})

	return trail
}
