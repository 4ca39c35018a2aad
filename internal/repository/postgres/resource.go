package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/repository"
	"github.com/romapi/search-service/pkg/database"
)

const resourceColumns = `
	r.id, r.name, r.slug, r.description, r.resource_type,
	COALESCE(r.category_id, '') AS category_id,
	COALESCE(c.name, '') AS category_name,
	COALESCE(c.slug, '') AS category_slug,
	r.plan, r.verified, r.status, r.city, r.region, r.country,
	r.latitude, r.longitude, r.phone, r.email, r.website, r.tags,
	r.created_at, r.updated_at`

// ResourceRepository implements repository.ResourceRepository using PostgreSQL.
type ResourceRepository struct {
	db database.DBTX
}

// NewResourceRepository creates a new PostgreSQL-backed resource repository.
func NewResourceRepository(db database.DBTX) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Search returns resources matching the filter with the total count.
func (r *ResourceRepository) Search(ctx context.Context, filter repository.ResourceFilter) ([]domain.Resource, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Name != nil {
		conditions = append(conditions, fmt.Sprintf("(r.name ILIKE $%d OR r.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Name+"%")
		argIndex++
	}

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("r.category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.ResourceType != nil {
		conditions = append(conditions, fmt.Sprintf("r.resource_type = $%d", argIndex))
		args = append(args, *filter.ResourceType)
		argIndex++
	}

	if filter.Plan != nil {
		conditions = append(conditions, fmt.Sprintf("r.plan = $%d", argIndex))
		args = append(args, *filter.Plan)
		argIndex++
	}

	if filter.City != nil {
		conditions = append(conditions, fmt.Sprintf("r.city ILIKE $%d", argIndex))
		args = append(args, *filter.City)
		argIndex++
	}

	if filter.Region != nil {
		conditions = append(conditions, fmt.Sprintf("r.region ILIKE $%d", argIndex))
		args = append(args, *filter.Region)
		argIndex++
	}

	if filter.Country != nil {
		conditions = append(conditions, fmt.Sprintf("r.country = $%d", argIndex))
		args = append(args, *filter.Country)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Verified != nil {
		conditions = append(conditions, fmt.Sprintf("r.verified = $%d", argIndex))
		args = append(args, *filter.Verified)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() avoids a second round-trip for the total.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM api_resources r
		LEFT JOIN categories c ON c.id = r.category_id
		%s
		ORDER BY r.verified DESC, r.name ASC
		LIMIT $%d OFFSET $%d`,
		resourceColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search resources: %w", err)
	}
	defer rows.Close()

	var (
		resources  []domain.Resource
		totalCount int
	)

	for rows.Next() {
		var res domain.Resource

		if err := rows.Scan(
			&res.ID,
			&res.Name,
			&res.Slug,
			&res.Description,
			&res.ResourceType,
			&res.CategoryID,
			&res.CategoryName,
			&res.CategorySlug,
			&res.Plan,
			&res.Verified,
			&res.Status,
			&res.City,
			&res.Region,
			&res.Country,
			&res.Latitude,
			&res.Longitude,
			&res.Phone,
			&res.Email,
			&res.Website,
			&res.Tags,
			&res.CreatedAt,
			&res.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource row: %w", err)
		}

		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate resource rows: %w", err)
	}

	if resources == nil {
		resources = []domain.Resource{}
	}

	return resources, totalCount, nil
}

// SuggestNames returns active resources whose name starts with the prefix.
func (r *ResourceRepository) SuggestNames(ctx context.Context, prefix string, limit int) ([]domain.Resource, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM api_resources r
		LEFT JOIN categories c ON c.id = r.category_id
		WHERE r.status = $1 AND r.name ILIKE $2
		ORDER BY r.verified DESC, r.name ASC
		LIMIT $3`, resourceColumns)

	return r.queryResources(ctx, "suggest resource names", query, domain.StatusActive, prefix+"%", limit)
}

// Popular returns the most popular active resources, verified first.
func (r *ResourceRepository) Popular(ctx context.Context, limit int) ([]domain.Resource, error) {
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM api_resources r
		LEFT JOIN categories c ON c.id = r.category_id
		WHERE r.status = $1 AND r.verified = true
		ORDER BY r.updated_at DESC
		LIMIT $2`, resourceColumns)

	return r.queryResources(ctx, "list popular resources", query, domain.StatusActive, limit)
}

func (r *ResourceRepository) queryResources(ctx context.Context, op, query string, args ...any) ([]domain.Resource, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var resources []domain.Resource

	for rows.Next() {
		var res domain.Resource

		if err := rows.Scan(
			&res.ID,
			&res.Name,
			&res.Slug,
			&res.Description,
			&res.ResourceType,
			&res.CategoryID,
			&res.CategoryName,
			&res.CategorySlug,
			&res.Plan,
			&res.Verified,
			&res.Status,
			&res.City,
			&res.Region,
			&res.Country,
			&res.Latitude,
			&res.Longitude,
			&res.Phone,
			&res.Email,
			&res.Website,
			&res.Tags,
			&res.CreatedAt,
			&res.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}

		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", op, err)
	}

	if resources == nil {
		resources = []domain.Resource{}
	}

	return resources, nil
}
