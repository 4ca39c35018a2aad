package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/pkg/database"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

const categoryColumns = `
	c.id, c.name, c.slug, COALESCE(c.description, ''), COALESCE(c.icon, ''),
	COALESCE(c.parent_id, ''),
	(SELECT count(*) FROM api_resources r WHERE r.category_id = c.id AND r.status = 'ACTIVE') AS resource_count,
	(SELECT count(*) FROM categories ch WHERE ch.parent_id = c.id) AS subcategory_count`

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.CategoryInfo, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories c WHERE c.id = $1`, categoryColumns)
	return r.scanCategory(ctx, id, query, id)
}

// GetBySlug retrieves a category by its slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.CategoryInfo, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories c WHERE c.slug = $1`, categoryColumns)
	return r.scanCategory(ctx, slug, query, slug)
}

// FindByParent returns the direct children of a category, ordered by name.
func (r *CategoryRepository) FindByParent(ctx context.Context, parentID string) ([]domain.CategoryInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM categories c
		WHERE c.parent_id = $1
		ORDER BY c.name ASC`, categoryColumns)

	return r.queryCategories(ctx, "find categories by parent", query, parentID)
}

// FindRoots returns categories without a parent, ordered by name.
func (r *CategoryRepository) FindRoots(ctx context.Context) ([]domain.CategoryInfo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM categories c
		WHERE c.parent_id IS NULL
		ORDER BY c.name ASC`, categoryColumns)

	return r.queryCategories(ctx, "find root categories", query)
}

func (r *CategoryRepository) scanCategory(ctx context.Context, id, query string, args ...any) (*domain.CategoryInfo, error) {
	var c domain.CategoryInfo

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.Icon,
		&c.ParentID,
		&c.ResourceCount,
		&c.SubcategoryCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", id)
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}

	return &c, nil
}

func (r *CategoryRepository) queryCategories(ctx context.Context, op, query string, args ...any) ([]domain.CategoryInfo, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var categories []domain.CategoryInfo

	for rows.Next() {
		var c domain.CategoryInfo

		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Slug,
			&c.Description,
			&c.Icon,
			&c.ParentID,
			&c.ResourceCount,
			&c.SubcategoryCount,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}

		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", op, err)
	}

	if categories == nil {
		categories = []domain.CategoryInfo{}
	}

	return categories, nil
}
