package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/pkg/database"
)

// SearchMetrics aggregates search activity over a period.
type SearchMetrics struct {
	TotalSearches    int     `json:"total_searches"`
	NoResultSearches int     `json:"no_result_searches"`
	FallbackSearches int     `json:"fallback_searches"`
	AvgTookMs        float64 `json:"avg_took_ms"`
	UniqueUsers      int     `json:"unique_users"`
}

// Reader serves aggregated search history from the relational store. It
// backs personalization and the reporting endpoints.
type Reader struct {
	db database.DBTX
}

// NewReader creates an analytics reader.
func NewReader(db database.DBTX) *Reader {
	return &Reader{db: db}
}

// UserSearchHistory returns the recent searches of a user together with
// their most searched categories and terms.
func (r *Reader) UserSearchHistory(ctx context.Context, userID string, lookbackDays, limit int) (*domain.SearchHistory, error) {
	if limit <= 0 {
		limit = 200
	}

	history := &domain.SearchHistory{}

	rows, err := r.db.Query(ctx, `
		SELECT query, filters, result_count, created_at
		FROM search_logs
		WHERE user_id = $1 AND created_at > now() - make_interval(days => $2)
		ORDER BY created_at DESC
		LIMIT $3`, userID, lookbackDays, limit)
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s           domain.RecentSearch
			filtersJSON []byte
		)
		if err := rows.Scan(&s.Query, &filtersJSON, &s.ResultCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search log: %w", err)
		}
		if len(filtersJSON) > 0 {
			var filters domain.SearchFilters
			if err := json.Unmarshal(filtersJSON, &filters); err == nil {
				s.Filters = &filters
			}
		}
		history.Searches = append(history.Searches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search logs: %w", err)
	}

	history.TopCategories, err = r.topCategories(ctx, userID, lookbackDays)
	if err != nil {
		return nil, err
	}

	history.TopTerms, err = r.topTerms(ctx, userID, lookbackDays)
	if err != nil {
		return nil, err
	}

	return history, nil
}

func (r *Reader) topCategories(ctx context.Context, userID string, lookbackDays int) ([]domain.CategoryCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category_id, count(*) AS search_count
		FROM search_logs, jsonb_array_elements_text(filters->'categories') AS category_id
		WHERE user_id = $1 AND created_at > now() - make_interval(days => $2)
		GROUP BY category_id
		ORDER BY search_count DESC
		LIMIT 10`, userID, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("load top categories: %w", err)
	}
	defer rows.Close()

	var counts []domain.CategoryCount
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.CategoryID, &c.SearchCount); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *Reader) topTerms(ctx context.Context, userID string, lookbackDays int) ([]domain.TermCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT lower(query) AS term, count(*) AS term_count
		FROM search_logs
		WHERE user_id = $1 AND query <> '' AND created_at > now() - make_interval(days => $2)
		GROUP BY lower(query)
		ORDER BY term_count DESC
		LIMIT 10`, userID, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("load top terms: %w", err)
	}
	defer rows.Close()

	var counts []domain.TermCount
	for rows.Next() {
		var tc domain.TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan term count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// ClickedResources returns the resources a user clicked most, recent first
// among equals.
func (r *Reader) ClickedResources(ctx context.Context, userID string, lookbackDays, limit int) ([]domain.ClickStat, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.Query(ctx, `
		SELECT resource_id, count(*) AS click_count, max(created_at) AS last_clicked
		FROM search_clicks
		WHERE user_id = $1 AND created_at > now() - make_interval(days => $2)
		GROUP BY resource_id
		ORDER BY click_count DESC, last_clicked DESC
		LIMIT $3`, userID, lookbackDays, limit)
	if err != nil {
		return nil, fmt.Errorf("load clicked resources: %w", err)
	}
	defer rows.Close()

	var stats []domain.ClickStat
	for rows.Next() {
		var s domain.ClickStat
		if err := rows.Scan(&s.ResourceID, &s.ClickCount, &s.LastClicked); err != nil {
			return nil, fmt.Errorf("scan click stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// PopularTerms returns the most searched terms across all users.
func (r *Reader) PopularTerms(ctx context.Context, lookbackDays, limit int) ([]domain.TermCount, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx, `
		SELECT lower(query) AS term, count(*) AS term_count
		FROM search_logs
		WHERE query <> '' AND created_at > now() - make_interval(days => $1)
		GROUP BY lower(query)
		ORDER BY term_count DESC
		LIMIT $2`, lookbackDays, limit)
	if err != nil {
		return nil, fmt.Errorf("load popular terms: %w", err)
	}
	defer rows.Close()

	var counts []domain.TermCount
	for rows.Next() {
		var tc domain.TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan term count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// NoResultQueries returns queries that recently produced no hits, most
// frequent first. They feed content gap analysis.
func (r *Reader) NoResultQueries(ctx context.Context, lookbackDays, limit int) ([]domain.TermCount, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, `
		SELECT lower(query) AS term, count(*) AS term_count
		FROM search_logs
		WHERE result_count = 0 AND query <> ''
		  AND created_at > now() - make_interval(days => $1)
		GROUP BY lower(query)
		ORDER BY term_count DESC
		LIMIT $2`, lookbackDays, limit)
	if err != nil {
		return nil, fmt.Errorf("load no-result queries: %w", err)
	}
	defer rows.Close()

	var counts []domain.TermCount
	for rows.Next() {
		var tc domain.TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan term count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// Metrics aggregates search activity over the lookback window.
func (r *Reader) Metrics(ctx context.Context, lookbackDays int) (*SearchMetrics, error) {
	var m SearchMetrics

	err := r.db.QueryRow(ctx, `
		SELECT count(*),
			   count(*) FILTER (WHERE result_count = 0),
			   count(*) FILTER (WHERE fallback),
			   COALESCE(avg(took_ms), 0),
			   count(DISTINCT user_id) FILTER (WHERE user_id <> '')
		FROM search_logs
		WHERE created_at > now() - make_interval(days => $1)`, lookbackDays).Scan(
		&m.TotalSearches,
		&m.NoResultSearches,
		&m.FallbackSearches,
		&m.AvgTookMs,
		&m.UniqueUsers,
	)
	if err != nil {
		return nil, fmt.Errorf("load search metrics: %w", err)
	}

	return &m, nil
}
