package domain

import (
	"time"
)

// SavedSearch is a named search a user stored for later re-execution.
type SavedSearch struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Name           string       `json:"name"`
	Params         SearchParams `json:"params"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastExecutedAt *time.Time   `json:"last_executed_at,omitempty"`
}
