package domain

import (
	"time"
)

// CategoryCount is an aggregated count of searches touching one category.
type CategoryCount struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	SearchCount  int    `json:"search_count"`
}

// TermCount is an aggregated count of one search term.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// RecentSearch is one entry of a user's search history.
type RecentSearch struct {
	Query       string         `json:"query"`
	Filters     *SearchFilters `json:"filters,omitempty"`
	ResultCount int            `json:"result_count"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SearchHistory summarizes a user's recent search activity.
type SearchHistory struct {
	Searches      []RecentSearch  `json:"searches"`
	TopCategories []CategoryCount `json:"top_categories"`
	TopTerms      []TermCount     `json:"top_terms"`
}

// ClickStat is an aggregated click count for one resource.
type ClickStat struct {
	ResourceID  string    `json:"resource_id"`
	ClickCount  int       `json:"click_count"`
	LastClicked time.Time `json:"last_clicked"`
}

// CategoryPreference is a weighted category affinity derived from history.
type CategoryPreference struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	SearchCount  int     `json:"search_count"`
	Weight       float64 `json:"weight"`
}

// TermPreference is a weighted term affinity derived from history.
type TermPreference struct {
	Term   string  `json:"term"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// ClickPreference is a weighted resource affinity derived from clicks.
type ClickPreference struct {
	ResourceID  string    `json:"resource_id"`
	ClickCount  int       `json:"click_count"`
	LastClicked time.Time `json:"last_clicked"`
	Weight      float64   `json:"weight"`
}

// UserPreferences is the affinity profile used to personalize searches.
// A zero-value profile applies no personalization.
type UserPreferences struct {
	TopCategories []CategoryPreference `json:"top_categories"`
	TopTerms      []TermPreference     `json:"top_terms"`
	Clicked       []ClickPreference    `json:"clicked"`
}

// IsEmpty reports whether the profile carries no signal at all.
func (p *UserPreferences) IsEmpty() bool {
	return p == nil || (len(p.TopCategories) == 0 && len(p.TopTerms) == 0 && len(p.Clicked) == 0)
}
