// Package filterstate persists per-session search filter selections so a
// returning client resumes where it left off. State lives in the cache
// store and expires on its own.
package filterstate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/domain"
)

const (
	statePrefix   = "search_filters"
	historySuffix = "_history"
	popularKey    = "search_filters_popular"

	maxHistoryEntries = 20
)

// State is the filter selection persisted for one session.
type State struct {
	Filters     domain.SearchFilters `json:"filters"`
	ActiveTab   string               `json:"activeTab,omitempty"`
	Query       string               `json:"query,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	LastUpdated time.Time            `json:"lastUpdated"`
}

// HistoryEntry is one past search recorded for a session.
type HistoryEntry struct {
	Query     string               `json:"query"`
	Filters   domain.SearchFilters `json:"filters"`
	Timestamp time.Time            `json:"timestamp"`
}

// PopularCombination is a filter signature with its usage count.
type PopularCombination struct {
	Signature string  `json:"signature"`
	Count     float64 `json:"count"`
}

// Store persists filter state, session history and popularity counters.
type Store struct {
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a filter state store. A non-positive TTL defaults to
// one hour.
func NewStore(store cache.Store, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{store: store, ttl: ttl, logger: logger, now: time.Now}
}

func stateKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", statePrefix, sessionID)
}

func historyKey(sessionID string) string {
	return stateKey(sessionID) + historySuffix
}

// Save persists the state for the session, stamping timestamps.
func (s *Store) Save(ctx context.Context, sessionID string, state State) error {
	now := s.now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.LastUpdated = now

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal filter state: %w", err)
	}

	if err := s.store.SetEx(ctx, stateKey(sessionID), string(data), s.ttl); err != nil {
		return fmt.Errorf("save filter state: %w", err)
	}

	return nil
}

// Get returns the persisted state for the session, or nil when none exists.
// Entries older than the TTL are dropped even when the backing store has
// not expired them yet.
func (s *Store) Get(ctx context.Context, sessionID string) (*State, error) {
	raw, err := s.store.Get(ctx, stateKey(sessionID))
	if err != nil {
		if err == cache.ErrMiss {
			return nil, nil
		}
		return nil, fmt.Errorf("read filter state: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logger.WarnContext(ctx, "filter state corrupt, dropping",
			slog.String("session_id", sessionID),
		)
		_ = s.store.Del(ctx, stateKey(sessionID))
		return nil, nil
	}

	if s.now().Sub(state.LastUpdated) > s.ttl {
		_ = s.store.Del(ctx, stateKey(sessionID))
		return nil, nil
	}

	return &state, nil
}

// UpdateActiveTab changes the active tab, keeping filters and query intact.
func (s *Store) UpdateActiveTab(ctx context.Context, sessionID, tab string) error {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &State{}
	}
	state.ActiveTab = tab
	return s.Save(ctx, sessionID, *state)
}

// UpdateFilters replaces the filters and query, keeping the active tab intact.
func (s *Store) UpdateFilters(ctx context.Context, sessionID string, filters domain.SearchFilters, query string) error {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &State{}
	}
	state.Filters = filters
	state.Query = query
	return s.Save(ctx, sessionID, *state)
}

// Clear drops the state and history of a session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, stateKey(sessionID), historyKey(sessionID)); err != nil {
		return fmt.Errorf("clear filter state: %w", err)
	}
	return nil
}

// ApplyPersisted merges the persisted session state into the given params.
// Explicit values in params win field by field; empty list fields fall back
// to the persisted lists wholesale, and the persisted query is used only
// when params carries none.
func (s *Store) ApplyPersisted(ctx context.Context, sessionID string, params domain.SearchParams) domain.SearchParams {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "filter state read failed, ignoring",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return params
	}
	if state == nil {
		return params
	}

	merged := params.Clone()
	saved := state.Filters

	if merged.Query == "" {
		merged.Query = state.Query
	}
	if len(merged.Filters.Categories) == 0 {
		merged.Filters.Categories = append([]string(nil), saved.Categories...)
	}
	if len(merged.Filters.ResourceTypes) == 0 {
		merged.Filters.ResourceTypes = append([]string(nil), saved.ResourceTypes...)
	}
	if len(merged.Filters.Plans) == 0 {
		merged.Filters.Plans = append([]string(nil), saved.Plans...)
	}
	if len(merged.Filters.Tags) == 0 {
		merged.Filters.Tags = append([]string(nil), saved.Tags...)
	}
	if merged.Filters.Verified == nil {
		merged.Filters.Verified = saved.Verified
	}
	if merged.Filters.City == "" {
		merged.Filters.City = saved.City
	}
	if merged.Filters.Region == "" {
		merged.Filters.Region = saved.Region
	}
	if merged.Filters.Country == "" {
		merged.Filters.Country = saved.Country
	}
	if merged.Filters.PriceRange == nil {
		merged.Filters.PriceRange = saved.PriceRange
	}
	if merged.Filters.Location == nil {
		merged.Filters.Location = saved.Location
	}
	if merged.Filters.DateRange == nil {
		merged.Filters.DateRange = saved.DateRange
	}

	return merged
}

// RecordSearch appends the search to the session history, bounded to the
// most recent entries, and bumps the popularity counter of its filter
// combination.
func (s *Store) RecordSearch(ctx context.Context, sessionID, query string, filters domain.SearchFilters) {
	entry := HistoryEntry{Query: query, Filters: filters, Timestamp: s.now().UTC()}

	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.WarnContext(ctx, "marshal history entry failed", slog.String("error", err.Error()))
		return
	}

	key := historyKey(sessionID)
	if err := s.store.LPush(ctx, key, string(data)); err != nil {
		s.logger.WarnContext(ctx, "record search history failed", slog.String("error", err.Error()))
		return
	}
	_ = s.store.LTrim(ctx, key, 0, maxHistoryEntries-1)
	_ = s.store.Expire(ctx, key, s.ttl*24)

	s.recordPopular(ctx, filters)
}

// History returns the most recent searches of a session, newest first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > maxHistoryEntries {
		limit = maxHistoryEntries
	}

	items, err := s.store.LRange(ctx, historyKey(sessionID), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("read search history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Store) recordPopular(ctx context.Context, filters domain.SearchFilters) {
	sig := Signature(filters)
	if sig == "" {
		return
	}

	if _, err := s.store.ZIncrBy(ctx, popularKey, 1, sig); err != nil {
		s.logger.WarnContext(ctx, "bump popular filters failed", slog.String("error", err.Error()))
		return
	}
	_ = s.store.Expire(ctx, popularKey, s.ttl*24*7)
}

// Popular returns the most used filter combinations, highest count first.
func (s *Store) Popular(ctx context.Context, limit int) ([]PopularCombination, error) {
	if limit <= 0 {
		limit = 10
	}

	members, err := s.store.ZRevRangeWithScores(ctx, popularKey, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("read popular filters: %w", err)
	}

	combos := make([]PopularCombination, 0, len(members))
	for _, m := range members {
		combos = append(combos, PopularCombination{Signature: m.Member, Count: m.Score})
	}

	return combos, nil
}
