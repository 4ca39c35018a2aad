package category

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

// fakeCategoryRepo serves a fixed tree from memory.
type fakeCategoryRepo struct {
	byID  map[string]domain.CategoryInfo
	calls int
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.CategoryInfo, error) {
	f.calls++
	c, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	return &c, nil
}

func (f *fakeCategoryRepo) GetBySlug(_ context.Context, slug string) (*domain.CategoryInfo, error) {
	for _, c := range f.byID {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("category", slug)
}

func (f *fakeCategoryRepo) FindByParent(_ context.Context, parentID string) ([]domain.CategoryInfo, error) {
	f.calls++
	var children []domain.CategoryInfo
	for _, c := range f.byID {
		if c.ParentID == parentID {
			children = append(children, c)
		}
	}
	sortByName(children)
	return children, nil
}

func (f *fakeCategoryRepo) FindRoots(_ context.Context) ([]domain.CategoryInfo, error) {
	f.calls++
	var roots []domain.CategoryInfo
	for _, c := range f.byID {
		if c.ParentID == "" {
			roots = append(roots, c)
		}
	}
	sortByName(roots)
	return roots, nil
}

func sortByName(cs []domain.CategoryInfo) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Name < cs[j-1].Name; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

func testTree() *fakeCategoryRepo {
	return &fakeCategoryRepo{byID: map[string]domain.CategoryInfo{
		"root-1": {ID: "root-1", Name: "Commerce", Slug: "commerce"},
		"root-2": {ID: "root-2", Name: "Services", Slug: "services"},
		"cat-1":  {ID: "cat-1", Name: "Restaurants", Slug: "restaurants", ParentID: "root-1"},
		"cat-2":  {ID: "cat-2", Name: "Boutiques", Slug: "boutiques", ParentID: "root-1"},
		"sub-1":  {ID: "sub-1", Name: "Fast-food", Slug: "fast-food", ParentID: "cat-1"},
		"sub-2":  {ID: "sub-2", Name: "Gastronomie", Slug: "gastronomie", ParentID: "cat-1"},
		"leaf-1": {ID: "leaf-1", Name: "Burgers", Slug: "burgers", ParentID: "sub-1"},
	}}
}

func newResolver(repo *fakeCategoryRepo) *Resolver {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	gw := cache.NewGateway(cache.NewMemory(), cache.DefaultGatewayConfig(), logger)
	return NewResolver(repo, gw, logger)
}

func TestHierarchyLevelsAndPath(t *testing.T) {
	r := newResolver(testTree())

	h, err := r.Hierarchy(context.Background(), "sub-1")
	require.NoError(t, err)

	require.NotNil(t, h.Current)
	assert.Equal(t, 2, h.Current.Level)
	assert.Equal(t, "commerce/restaurants/fast-food", h.Current.Path)

	require.Len(t, h.Ancestors, 2)
	assert.Equal(t, h.Current.Level, len(h.Ancestors))
	assert.Equal(t, "root-1", h.Ancestors[0].ID)
	assert.Equal(t, 0, h.Ancestors[0].Level)
	assert.Equal(t, "commerce", h.Ancestors[0].Path)
	assert.Equal(t, "cat-1", h.Ancestors[1].ID)
	assert.Equal(t, "commerce/restaurants", h.Ancestors[1].Path)
}

func TestHierarchySiblingsExcludeSelf(t *testing.T) {
	r := newResolver(testTree())

	h, err := r.Hierarchy(context.Background(), "sub-1")
	require.NoError(t, err)

	require.Len(t, h.Siblings, 1)
	assert.Equal(t, "sub-2", h.Siblings[0].ID)
}

func TestHierarchyRootSiblings(t *testing.T) {
	r := newResolver(testTree())

	h, err := r.Hierarchy(context.Background(), "root-1")
	require.NoError(t, err)

	assert.Equal(t, 0, h.Current.Level)
	require.Len(t, h.Siblings, 1)
	assert.Equal(t, "root-2", h.Siblings[0].ID)
	assert.Empty(t, h.Ancestors)
}

func TestHierarchyBreadcrumbs(t *testing.T) {
	r := newResolver(testTree())

	h, err := r.Hierarchy(context.Background(), "sub-1")
	require.NoError(t, err)

	require.Len(t, h.Breadcrumbs, 4)
	assert.Equal(t, "root", h.Breadcrumbs[0].ID)
	assert.Equal(t, "Toutes les catégories", h.Breadcrumbs[0].Name)
	assert.Equal(t, "/categories", h.Breadcrumbs[0].URL)
	assert.Equal(t, 0, h.Breadcrumbs[0].Level)

	assert.Equal(t, "Commerce", h.Breadcrumbs[1].Name)
	assert.Equal(t, "Fast-food", h.Breadcrumbs[3].Name)
	assert.Equal(t, 3, h.Breadcrumbs[3].Level)
}

func TestHierarchyChildren(t *testing.T) {
	r := newResolver(testTree())

	h, err := r.Hierarchy(context.Background(), "cat-1")
	require.NoError(t, err)

	require.Len(t, h.Children, 2)
	assert.Equal(t, "Fast-food", h.Children[0].Name)
	assert.Equal(t, 2, h.Children[0].Level)
	assert.Equal(t, "commerce/restaurants/fast-food", h.Children[0].Path)
}

func TestHierarchyCached(t *testing.T) {
	repo := testTree()
	r := newResolver(repo)

	_, err := r.Hierarchy(context.Background(), "sub-1")
	require.NoError(t, err)
	firstCalls := repo.calls

	_, err = r.Hierarchy(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, firstCalls, repo.calls, "second resolution should be served from cache")
}

func TestHierarchyCycleTruncated(t *testing.T) {
	repo := &fakeCategoryRepo{byID: map[string]domain.CategoryInfo{
		"a": {ID: "a", Name: "A", Slug: "a", ParentID: "b"},
		"b": {ID: "b", Name: "B", Slug: "b", ParentID: "a"},
	}}
	r := newResolver(repo)

	h, err := r.Hierarchy(context.Background(), "a")
	require.NoError(t, err)
	// The walk stops at the repeated node instead of looping.
	require.Len(t, h.Ancestors, 1)
	assert.Equal(t, "b", h.Ancestors[0].ID)
}

func TestHierarchyNotFound(t *testing.T) {
	r := newResolver(testTree())

	_, err := r.Hierarchy(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDescendantIDs(t *testing.T) {
	r := newResolver(testTree())

	ids, err := r.DescendantIDs(context.Background(), "cat-1", DefaultDescendantDepth)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sub-1", "sub-2", "leaf-1"}, ids)
}

func TestDescendantIDsDepthBound(t *testing.T) {
	r := newResolver(testTree())

	ids, err := r.DescendantIDs(context.Background(), "cat-1", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sub-1", "sub-2"}, ids)

	ids, err = r.DescendantIDs(context.Background(), "cat-1", 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}
