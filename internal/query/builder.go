package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/language"
)

const (
	engineTimeout = "30s"
	minScore      = 0.1
)

// BuildSearch assembles the full query document for a search request. The
// query text is expected to be normalized already; lang is the resolved
// (never auto at this point unless detection was inconclusive) language.
func BuildSearch(params domain.SearchParams, lang string) *Document {
	doc := NewDocument().
		Timeout(engineTimeout).
		TrackTotalHits().
		MinScore(minScore).
		Paginate(params.Pagination.Offset(), params.Pagination.Limit)

	if q := strings.TrimSpace(params.Query); q != "" {
		doc.Must(TextQuery(q, lang))
		doc.Highlight(highlightConfig())
	} else {
		doc.Must(MatchAll{})
	}

	doc.Should(qualityBoosts()...)
	doc.Filter(FilterClauses(params.Filters)...)

	applySort(doc, params)

	if len(params.Facets) > 0 {
		doc.Aggs(FacetAggs(params.Facets))
	}

	return doc
}

// TextQuery builds the language-aware textual disjunction. Exact phrase
// matches on dedicated keyword fields dominate, then analyzed phrases,
// prefixes, fuzzy and cross-field matches, then address fields. Short
// queries boost exact matches harder because a one-word query offers the
// scorer little else to go on.
func TextQuery(q, lang string) Clause {
	fields := language.SearchFields(lang)
	searchAnalyzer := language.SearchAnalyzer(lang)

	exactBoost := 4.0
	phraseBoost := 3.0
	if len(q) <= 3 {
		exactBoost = 6.0
		phraseBoost = 4.0
	}
	prefixBoost := 2.5
	if !strings.Contains(q, " ") {
		prefixBoost = 3.5
	}

	return Bool{
		Should: []Clause{
			MultiMatch{
				Query:  q,
				Type:   "phrase",
				Fields: []string{"name.exact^5", "category.name.keyword^3"},
				Boost:  exactBoost,
			},
			MultiMatch{
				Query:  q,
				Type:   "phrase",
				Fields: topFields(fields, 4),
				Boost:  phraseBoost,
			},
			MultiMatch{
				Query:  q,
				Type:   "phrase_prefix",
				Fields: topFields(fields, 3),
				Boost:  prefixBoost,
			},
			MultiMatch{
				Query:         q,
				Type:          "best_fields",
				Fields:        fields,
				Analyzer:      searchAnalyzer,
				Fuzziness:     "AUTO",
				PrefixLength:  2,
				MaxExpansions: 50,
				Boost:         2,
			},
			MultiMatch{
				Query:              q,
				Type:               "cross_fields",
				Fields:             fields,
				MinimumShouldMatch: "75%",
				Boost:              1.5,
			},
			MultiMatch{
				Query:  q,
				Fields: []string{"address.city^2.0", "address.region^1.8", "address.street^1.5"},
				Boost:  1.2,
			},
		},
		MinimumShouldMatch: 1,
	}
}

func topFields(fields []string, n int) []string {
	if len(fields) < n {
		n = len(fields)
	}
	return fields[:n]
}

// qualityBoosts lift verified, popular, and highly rated resources without
// filtering anything out.
func qualityBoosts() []Clause {
	return []Clause{
		Term{Field: "verified", Value: true, Boost: 1.5},
		Range{Field: "popularity", GTE: 0.7, Boost: 1.2},
		Range{Field: "rating", GTE: 4.0, Boost: 1.1},
	}
}

// FilterClauses converts the typed filters to non-scoring clauses. An
// inverted price range is swapped rather than rejected.
func FilterClauses(f domain.SearchFilters) []Clause {
	var clauses []Clause

	if len(f.Categories) > 0 {
		clauses = append(clauses, Terms{Field: "category.id", Values: f.Categories})
	}
	if len(f.ResourceTypes) > 0 {
		clauses = append(clauses, Terms{Field: "resourceType", Values: f.ResourceTypes})
	}
	if len(f.Plans) > 0 {
		clauses = append(clauses, Terms{Field: "plan", Values: f.Plans})
	}

	if f.PriceRange != nil && (f.PriceRange.Min != nil || f.PriceRange.Max != nil) {
		min, max := f.PriceRange.Min, f.PriceRange.Max
		if min != nil && max != nil && *min > *max {
			min, max = max, min
		}
		r := Range{Field: "pricing.basePrice"}
		if min != nil {
			r.GTE = *min
		}
		if max != nil {
			r.LTE = *max
		}
		clauses = append(clauses, r)
	}

	if f.Verified != nil {
		clauses = append(clauses, Term{Field: "verified", Value: *f.Verified})
	}

	if f.Location != nil {
		clauses = append(clauses, GeoDistance{
			Field:    "location",
			Distance: fmt.Sprintf("%gkm", f.Location.RadiusKm),
			Lat:      f.Location.Location.Latitude,
			Lon:      f.Location.Location.Longitude,
		})
	}

	if f.City != "" {
		clauses = append(clauses, placeClause("address.city", f.City))
	}
	if f.Region != "" {
		clauses = append(clauses, placeClause("address.region", f.Region))
	}
	if f.Country != "" {
		clauses = append(clauses, placeClause("address.country", f.Country))
	}

	// Tags combine with AND: each requested tag must be present.
	for _, tag := range f.Tags {
		clauses = append(clauses, Term{Field: "tags.keyword", Value: tag})
	}

	if f.DateRange != nil && (f.DateRange.From != nil || f.DateRange.To != nil) {
		r := Range{Field: "createdAt"}
		if f.DateRange.From != nil {
			r.GTE = f.DateRange.From.Format(time.RFC3339)
		}
		if f.DateRange.To != nil {
			r.LTE = f.DateRange.To.Format(time.RFC3339)
		}
		clauses = append(clauses, r)
	}

	return clauses
}

// placeClause matches a place name exactly on the keyword sub-field or
// fuzzily on the analyzed field, so minor spelling drift still matches.
func placeClause(field, value string) Clause {
	return Bool{
		Should: []Clause{
			Term{Field: field + ".keyword", Value: value},
			Match{Field: field, Query: value, Analyzer: language.AnalyzerFrench, Fuzziness: "AUTO"},
		},
		MinimumShouldMatch: 1,
	}
}

func applySort(doc *Document, params domain.SearchParams) {
	sort := params.Sort

	order := sort.Order
	if order == "" {
		order = domain.OrderDesc
	}

	switch sort.Field {
	case domain.SortName:
		doc.SortByField("name.keyword", order)
	case domain.SortCreatedAt:
		doc.SortByField("createdAt", order)
	case domain.SortUpdatedAt:
		doc.SortByField("updatedAt", order)
	case domain.SortPopularity:
		doc.SortByField("popularity", order)
	case domain.SortRating:
		doc.SortByField("rating", order)
	case domain.SortDistance:
		// Distance sorting needs an origin; without a geo filter fall back
		// to relevance.
		if params.Filters.Location != nil {
			loc := params.Filters.Location.Location
			doc.SortByDistance("location", loc.Latitude, loc.Longitude, order)
		} else {
			doc.SortByScore()
		}
	default:
		doc.SortByScore()
	}
}

func highlightConfig() map[string]any {
	return map[string]any{
		"pre_tags":            []string{"<mark>"},
		"post_tags":           []string{"</mark>"},
		"require_field_match": false,
		"fields": map[string]any{
			"name":          map[string]any{"fragment_size": 150, "number_of_fragments": 1},
			"description":   map[string]any{"fragment_size": 200, "number_of_fragments": 2},
			"category.name": map[string]any{"fragment_size": 100, "number_of_fragments": 1},
			"tags":          map[string]any{"fragment_size": 100, "number_of_fragments": 3},
		},
	}
}

// BuildSuggest assembles the autocomplete query for a normalized prefix.
func BuildSuggest(prefix, lang string, limit int) *Document {
	if limit <= 0 {
		limit = 10
	}

	return NewDocument().
		Paginate(0, limit*2). // overfetch to survive deduplication
		Source("id", "name", "description", "resourceType", "category", "tags", "popularity", "verified").
		Must(Bool{
			Should: []Clause{
				MultiMatch{
					Query:  prefix,
					Type:   "phrase_prefix",
					Fields: []string{"name^4", "name.autocomplete^3"},
					Boost:  3,
				},
				MultiMatch{
					Query:     prefix,
					Type:      "best_fields",
					Fields:    []string{"name^3", "category.name^2", "tags^1.5"},
					Analyzer:  language.SearchAnalyzer(lang),
					Fuzziness: "AUTO",
					Boost:     1.5,
				},
			},
			MinimumShouldMatch: 1,
		})
}

// BuildPopularSuggest aggregates the corpus for popular names and categories,
// used to prefill empty suggestion boxes.
func BuildPopularSuggest(limit int) *Document {
	if limit <= 0 {
		limit = 10
	}

	return NewDocument().
		Paginate(0, 0).
		Must(MatchAll{}).
		Aggs(map[string]any{
			"popular_names": map[string]any{
				"terms": map[string]any{
					"field": "name.exact",
					"size":  limit,
					"order": map[string]any{"avg_popularity": "desc"},
				},
				"aggs": map[string]any{
					"avg_popularity": map[string]any{"avg": map[string]any{"field": "popularity"}},
				},
			},
			"popular_categories": map[string]any{
				"terms": map[string]any{
					"field": "category.name.keyword",
					"size":  limit,
				},
			},
		})
}
