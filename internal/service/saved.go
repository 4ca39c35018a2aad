package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/repository"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

const (
	maxSavedPerUser    = 50
	maxSavedNameLength = 100
)

// SavedSearchService manages named searches a user can re-run later.
type SavedSearchService struct {
	repo   repository.SavedSearchRepository
	search *SearchService
	logger *slog.Logger
}

// NewSavedSearchService creates the saved search service.
func NewSavedSearchService(repo repository.SavedSearchRepository, search *SearchService, logger *slog.Logger) *SavedSearchService {
	return &SavedSearchService{
		repo:   repo,
		search: search,
		logger: logger,
	}
}

// Create stores a new saved search for the user.
func (s *SavedSearchService) Create(ctx context.Context, userID, name string, params domain.SearchParams) (*domain.SavedSearch, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if len([]rune(name)) > maxSavedNameLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("name exceeds %d characters", maxSavedNameLength))
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= maxSavedPerUser {
		return nil, apperrors.InvalidInput(fmt.Sprintf("saved search limit of %d reached", maxSavedPerUser))
	}

	now := time.Now().UTC()
	saved := &domain.SavedSearch{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, saved); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "saved search created",
		slog.String("id", saved.ID),
		slog.String("user_id", userID),
	)
	return saved, nil
}

// Get returns a saved search owned by the user.
func (s *SavedSearchService) Get(ctx context.Context, userID, id string) (*domain.SavedSearch, error) {
	saved, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if saved.UserID != userID {
		return nil, apperrors.Forbidden("saved search belongs to another user")
	}
	return saved, nil
}

// List returns all saved searches of the user, newest first.
func (s *SavedSearchService) List(ctx context.Context, userID string) ([]domain.SavedSearch, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("user required")
	}
	return s.repo.ListByUser(ctx, userID)
}

// Update renames a saved search or replaces its parameters.
func (s *SavedSearchService) Update(ctx context.Context, userID, id, name string, params domain.SearchParams) (*domain.SavedSearch, error) {
	saved, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		if len([]rune(name)) > maxSavedNameLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("name exceeds %d characters", maxSavedNameLength))
		}
		saved.Name = name
	}
	saved.Params = params

	if err := s.repo.Update(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes a saved search owned by the user.
func (s *SavedSearchService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Execute re-runs a saved search with its stored parameters and records the
// execution time.
func (s *SavedSearchService) Execute(ctx context.Context, userID, id string) (*domain.SearchResults, error) {
	saved, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchExecuted(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to record saved search execution",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}

	params := saved.Params
	params.UserID = userID
	return s.search.Search(ctx, params)
}
