package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/pkg/database"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

// SavedSearchRepository implements repository.SavedSearchRepository using PostgreSQL.
type SavedSearchRepository struct {
	db database.DBTX
}

// NewSavedSearchRepository creates a new PostgreSQL-backed saved-search repository.
func NewSavedSearchRepository(db database.DBTX) *SavedSearchRepository {
	return &SavedSearchRepository{db: db}
}

// Create inserts a new saved search.
func (r *SavedSearchRepository) Create(ctx context.Context, s *domain.SavedSearch) error {
	paramsJSON, err := json.Marshal(s.Params)
	if err != nil {
		return fmt.Errorf("marshal search params: %w", err)
	}

	query := `
		INSERT INTO saved_searches (id, user_id, name, params, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.Name,
		paramsJSON,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("saved search", "name", s.Name)
		}
		return fmt.Errorf("insert saved search: %w", err)
	}

	return nil
}

// GetByID retrieves a saved search by its ID.
func (r *SavedSearchRepository) GetByID(ctx context.Context, id string) (*domain.SavedSearch, error) {
	query := `
		SELECT id, user_id, name, params, created_at, updated_at, last_executed_at
		FROM saved_searches
		WHERE id = $1`

	var (
		s          domain.SavedSearch
		paramsJSON []byte
	)

	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&paramsJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.LastExecutedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("saved search", id)
		}
		return nil, fmt.Errorf("scan saved search: %w", err)
	}

	if err := json.Unmarshal(paramsJSON, &s.Params); err != nil {
		return nil, fmt.Errorf("unmarshal search params: %w", err)
	}

	return &s, nil
}

// ListByUser returns all saved searches of a user, newest first.
func (r *SavedSearchRepository) ListByUser(ctx context.Context, userID string) ([]domain.SavedSearch, error) {
	query := `
		SELECT id, user_id, name, params, created_at, updated_at, last_executed_at
		FROM saved_searches
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved searches: %w", err)
	}
	defer rows.Close()

	var searches []domain.SavedSearch

	for rows.Next() {
		var (
			s          domain.SavedSearch
			paramsJSON []byte
		)

		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.Name,
			&paramsJSON,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.LastExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("scan saved search row: %w", err)
		}

		if err := json.Unmarshal(paramsJSON, &s.Params); err != nil {
			return nil, fmt.Errorf("unmarshal search params: %w", err)
		}

		searches = append(searches, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved search rows: %w", err)
	}

	if searches == nil {
		searches = []domain.SavedSearch{}
	}

	return searches, nil
}

// CountByUser returns the number of saved searches a user owns.
func (r *SavedSearchRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM saved_searches WHERE user_id = $1`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count saved searches: %w", err)
	}

	return count, nil
}

// Update modifies the name and parameters of a saved search.
func (r *SavedSearchRepository) Update(ctx context.Context, s *domain.SavedSearch) error {
	paramsJSON, err := json.Marshal(s.Params)
	if err != nil {
		return fmt.Errorf("marshal search params: %w", err)
	}

	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE saved_searches
		SET name = $1, params = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5`

	ct, err := r.db.Exec(ctx, query, s.Name, paramsJSON, s.UpdatedAt, s.ID, s.UserID)
	if err != nil {
		return fmt.Errorf("update saved search: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("saved search", s.ID)
	}

	return nil
}

// TouchExecuted records the execution time of a saved search.
func (r *SavedSearchRepository) TouchExecuted(ctx context.Context, id string) error {
	query := `UPDATE saved_searches SET last_executed_at = now() WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("touch saved search: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("saved search", id)
	}

	return nil
}

// Delete removes a saved search by its ID.
func (r *SavedSearchRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM saved_searches WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete saved search: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("saved search", id)
	}

	return nil
}
