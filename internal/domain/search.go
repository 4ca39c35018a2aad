package domain

import (
	"time"
)

// Supported search languages. LangAuto lets the detector decide.
const (
	LangFrench  = "fr"
	LangEnglish = "en"
	LangAuto    = "auto"
)

// Sort fields for search results.
const (
	SortRelevance  = "relevance"
	SortName       = "name"
	SortCreatedAt  = "createdAt"
	SortUpdatedAt  = "updatedAt"
	SortPopularity = "popularity"
	SortRating     = "rating"
	SortDistance   = "distance"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ValidSortFields returns the list of valid sort fields.
func ValidSortFields() []string {
	return []string{SortRelevance, SortName, SortCreatedAt, SortUpdatedAt, SortPopularity, SortRating, SortDistance}
}

// IsValidSort checks whether the given string is a valid sort field.
func IsValidSort(field string) bool {
	for _, s := range ValidSortFields() {
		if s == field {
			return true
		}
	}
	return false
}

// SortOptions describes how results should be ordered.
type SortOptions struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Pagination holds page-based pagination parameters.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the zero-based offset of the first result on the page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// GeoLocation is a WGS84 coordinate pair.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsValid reports whether the coordinates fall in the valid WGS84 ranges.
func (g GeoLocation) IsValid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180
}

// GeoFilter restricts results to a radius (in kilometers) around a point.
type GeoFilter struct {
	Location GeoLocation `json:"location"`
	RadiusKm float64     `json:"radius_km"`
}

// PriceRange filters on the resource base price.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// DateRange filters on the resource creation date.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// SearchFilters holds all optional search filters.
type SearchFilters struct {
	Categories    []string    `json:"categories,omitempty"`
	ResourceTypes []string    `json:"resource_types,omitempty"`
	Plans         []string    `json:"plans,omitempty"`
	PriceRange    *PriceRange `json:"price_range,omitempty"`
	Verified      *bool       `json:"verified,omitempty"`
	Location      *GeoFilter  `json:"location,omitempty"`
	City          string      `json:"city,omitempty"`
	Region        string      `json:"region,omitempty"`
	Country       string      `json:"country,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	DateRange     *DateRange  `json:"date_range,omitempty"`
}

// Clone returns a deep copy of the filters. Search parameters are never
// mutated after construction, only copied with overrides.
func (f SearchFilters) Clone() SearchFilters {
	cp := f
	cp.Categories = append([]string(nil), f.Categories...)
	cp.ResourceTypes = append([]string(nil), f.ResourceTypes...)
	cp.Plans = append([]string(nil), f.Plans...)
	cp.Tags = append([]string(nil), f.Tags...)
	if f.PriceRange != nil {
		pr := *f.PriceRange
		cp.PriceRange = &pr
	}
	if f.Verified != nil {
		v := *f.Verified
		cp.Verified = &v
	}
	if f.Location != nil {
		loc := *f.Location
		cp.Location = &loc
	}
	if f.DateRange != nil {
		dr := *f.DateRange
		cp.DateRange = &dr
	}
	return cp
}

// SearchParams holds all parameters for a search request.
type SearchParams struct {
	Query      string        `json:"query"`
	Filters    SearchFilters `json:"filters,omitempty"`
	Sort       SortOptions   `json:"sort,omitempty"`
	Pagination Pagination    `json:"pagination"`
	Facets     []string      `json:"facets,omitempty"`
	Language   string        `json:"language,omitempty"`
	UserID     string        `json:"user_id,omitempty"`
	SessionID  string        `json:"session_id,omitempty"`
}

// Clone returns a deep copy of the parameters.
func (p SearchParams) Clone() SearchParams {
	cp := p
	cp.Filters = p.Filters.Clone()
	cp.Facets = append([]string(nil), p.Facets...)
	return cp
}

// CategoryRef is the category summary embedded in an indexed resource.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ContactInfo holds the public contact details of a resource.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// HitLocation is the resolved location of a hit, including the distance from
// the search origin when a geo filter was applied.
type HitLocation struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	City       string   `json:"city,omitempty"`
	Region     string   `json:"region,omitempty"`
	Country    string   `json:"country,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// LanguageAdaptation describes how a hit's relevance was adjusted for the
// requesting user's language.
type LanguageAdaptation struct {
	UserLanguage         string  `json:"user_language"`
	ContentLanguage      string  `json:"content_language"`
	RelevanceBoost       float64 `json:"relevance_boost"`
	TranslationAvailable bool    `json:"translation_available"`
}

// SearchHit is a single scored search result.
type SearchHit struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	ResourceType       string              `json:"resource_type"`
	Category           CategoryRef         `json:"category"`
	Plan               string              `json:"plan,omitempty"`
	Verified           bool                `json:"verified"`
	Location           *HitLocation        `json:"location,omitempty"`
	Contact            *ContactInfo        `json:"contact,omitempty"`
	Tags               []string            `json:"tags,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Score              float64             `json:"score"`
	Highlight          map[string][]string `json:"highlight,omitempty"`
	Language           string              `json:"language,omitempty"`
	LanguageConfidence float64             `json:"language_confidence,omitempty"`
	LanguageAdaptation *LanguageAdaptation `json:"language_adaptation,omitempty"`
}

// FacetBucket is one bucket of a facet aggregation.
type FacetBucket struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// GlobalStats summarizes the whole result set regardless of pagination.
type GlobalStats struct {
	TotalResources int     `json:"total_resources"`
	AverageRating  float64 `json:"average_rating"`
	VerifiedCount  int     `json:"verified_count"`
}

// SearchFacets holds all facet aggregations for a result set.
type SearchFacets struct {
	Categories    []FacetBucket `json:"categories,omitempty"`
	ResourceTypes []FacetBucket `json:"resource_types,omitempty"`
	Plans         []FacetBucket `json:"plans,omitempty"`
	PriceRanges   []FacetBucket `json:"price_ranges,omitempty"`
	Cities        []FacetBucket `json:"cities,omitempty"`
	Regions       []FacetBucket `json:"regions,omitempty"`
	Verified      []FacetBucket `json:"verified,omitempty"`
	Tags          []FacetBucket `json:"tags,omitempty"`
	Popularity    []FacetBucket `json:"popularity,omitempty"`
	Rating        []FacetBucket `json:"rating,omitempty"`
	GlobalStats   *GlobalStats  `json:"global_stats,omitempty"`
}

// ResultMetadata echoes the effective request back to the caller along with
// any enrichment applied during execution.
type ResultMetadata struct {
	Query                   string         `json:"query,omitempty"`
	OriginalQuery           string         `json:"original_query,omitempty"`
	Filters                 *SearchFilters `json:"filters,omitempty"`
	Language                string         `json:"language,omitempty"`
	LanguageConfidence      float64        `json:"language_confidence,omitempty"`
	Fallback                bool           `json:"fallback,omitempty"`
	CategoryID              string         `json:"category_id,omitempty"`
	SubcategoriesIncluded   bool           `json:"subcategories_included,omitempty"`
	TotalCategoriesSearched int            `json:"total_categories_searched,omitempty"`
	Personalized            bool           `json:"personalized,omitempty"`
	Geocoded                *GeoLocation   `json:"geocoded,omitempty"`
}

// SearchResults is a page of scored hits with facets and timing.
type SearchResults struct {
	Hits     []SearchHit    `json:"hits"`
	Total    int64          `json:"total"`
	Facets   SearchFacets   `json:"facets"`
	TookMs   int64          `json:"took_ms"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
	HasMore  bool           `json:"has_more"`
	Metadata ResultMetadata `json:"metadata"`
}

// EmptyResults returns a well-formed empty result page for the given
// pagination. The search path never returns nil results.
func EmptyResults(p Pagination) *SearchResults {
	return &SearchResults{
		Hits:  []SearchHit{},
		Page:  p.Page,
		Limit: p.Limit,
	}
}

// Suggestion types, ordered by display priority.
const (
	SuggestionResource = "resource"
	SuggestionCategory = "category"
	SuggestionTag      = "tag"
	SuggestionLocation = "location"
)

// Suggestion is a single autocomplete candidate.
type Suggestion struct {
	Text         string  `json:"text"`
	Type         string  `json:"type"`
	Score        float64 `json:"score"`
	ResourceID   string  `json:"resource_id,omitempty"`
	CategoryName string  `json:"category_name,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	Verified     bool    `json:"verified,omitempty"`
}
