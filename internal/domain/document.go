package domain

import (
	"time"
)

// GeoPoint is the geo_point representation stored in the index.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DocAddress is the address block of an indexed resource.
type DocAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// DocPricing is the pricing block of an indexed resource.
type DocPricing struct {
	BasePrice float64 `json:"basePrice"`
	Currency  string  `json:"currency,omitempty"`
}

// ResourceDoc is an API resource document as stored in the search index.
// Field names follow the index mapping, which uses camelCase.
type ResourceDoc struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	ResourceType string      `json:"resourceType"`
	Category     CategoryRef `json:"category"`
	Plan         string      `json:"plan,omitempty"`
	Pricing      *DocPricing `json:"pricing,omitempty"`
	Verified     bool        `json:"verified"`
	Location     *GeoPoint   `json:"location,omitempty"`
	Address      *DocAddress `json:"address,omitempty"`
	Contact      ContactInfo `json:"contact"`
	Tags         []string    `json:"tags,omitempty"`
	Popularity   float64     `json:"popularity"`
	Rating       float64     `json:"rating"`
	Language     string      `json:"language,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
