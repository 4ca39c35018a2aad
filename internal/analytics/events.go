// Package analytics records search activity. Events go out on the event
// bus without blocking the request path, and aggregated history is read
// back from the relational store to drive personalization and reporting.
package analytics

import (
	"time"

	"github.com/romapi/search-service/internal/domain"
)

// Event types emitted on the bus.
const (
	EventSearchPerformed = "search.performed"
	EventResultClicked   = "search.result_clicked"
)

// Topic is the default topic analytics events are published to.
const Topic = "search.analytics"

const source = "search-service"

// SearchPerformedPayload is the data block of a search.performed event.
type SearchPerformedPayload struct {
	LogID       string               `json:"log_id"`
	Query       string               `json:"query"`
	Filters     domain.SearchFilters `json:"filters"`
	Language    string               `json:"language,omitempty"`
	UserID      string               `json:"user_id,omitempty"`
	SessionID   string               `json:"session_id,omitempty"`
	ResultCount int                  `json:"result_count"`
	TookMs      int64                `json:"took_ms"`
	Fallback    bool                 `json:"fallback,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

// ResultClickedPayload is the data block of a search.result_clicked event.
type ResultClickedPayload struct {
	LogID       string    `json:"log_id"`
	SearchLogID string    `json:"search_log_id,omitempty"`
	ResourceID  string    `json:"resource_id"`
	Position    int       `json:"position"`
	UserID      string    `json:"user_id,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
