package domain

import (
	"time"
)

// Resource lifecycle statuses in the relational store.
const (
	StatusActive    = "ACTIVE"
	StatusPending   = "PENDING"
	StatusSuspended = "SUSPENDED"
)

// Resource is an API resource row from the relational store. It is the
// degraded-mode counterpart of ResourceDoc: the relational fallback serves
// these when the search engine is unavailable.
type Resource struct {
	ID           string
	Name         string
	Slug         string
	Description  string
	ResourceType string
	CategoryID   string
	CategoryName string
	CategorySlug string
	Plan         string
	Verified     bool
	Status       string
	City         string
	Region       string
	Country      string
	Latitude     *float64
	Longitude    *float64
	Phone        string
	Email        string
	Website      string
	Tags         []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Hit converts a relational row into a search hit with the given substitute
// score.
func (r *Resource) Hit(score float64) SearchHit {
	hit := SearchHit{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		ResourceType: r.ResourceType,
		Category: CategoryRef{
			ID:   r.CategoryID,
			Name: r.CategoryName,
			Slug: r.CategorySlug,
		},
		Plan:      r.Plan,
		Verified:  r.Verified,
		Tags:      append([]string(nil), r.Tags...),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Score:     score,
	}

	if r.City != "" || r.Region != "" || r.Country != "" || r.Latitude != nil {
		loc := &HitLocation{
			City:    r.City,
			Region:  r.Region,
			Country: r.Country,
		}
		if r.Latitude != nil && r.Longitude != nil {
			loc.Latitude = *r.Latitude
			loc.Longitude = *r.Longitude
		}
		hit.Location = loc
	}

	if r.Phone != "" || r.Email != "" || r.Website != "" {
		hit.Contact = &ContactInfo{Phone: r.Phone, Email: r.Email, Website: r.Website}
	}

	return hit
}
