package query

// Facet names accepted in a search request.
const (
	FacetCategories    = "categories"
	FacetResourceTypes = "resourceTypes"
	FacetPlans         = "plans"
	FacetPriceRanges   = "priceRanges"
	FacetCities        = "cities"
	FacetRegions       = "regions"
	FacetVerified      = "verified"
	FacetTags          = "tags"
	FacetPopularity    = "popularity"
	FacetRating        = "rating"
)

// AllFacets returns every supported facet name.
func AllFacets() []string {
	return []string{
		FacetCategories, FacetResourceTypes, FacetPlans, FacetPriceRanges,
		FacetCities, FacetRegions, FacetVerified, FacetTags,
		FacetPopularity, FacetRating,
	}
}

// FacetAggs builds the aggregation block for the requested facet names.
// Unknown names are ignored. Global result statistics ride along with every
// faceted request.
func FacetAggs(names []string) map[string]any {
	aggs := make(map[string]any, len(names)+1)

	for _, name := range names {
		switch name {
		case FacetCategories:
			aggs["categories"] = map[string]any{
				"terms": map[string]any{"field": "category.id", "size": 50},
				"aggs": map[string]any{
					"category_names": map[string]any{
						"terms": map[string]any{"field": "category.name.keyword", "size": 1},
					},
				},
			}
		case FacetResourceTypes:
			aggs["resource_types"] = map[string]any{
				"terms": map[string]any{"field": "resourceType", "size": 10},
			}
		case FacetPlans:
			aggs["plans"] = map[string]any{
				"terms": map[string]any{
					"field": "plan",
					"size":  5,
					"order": map[string]any{"_key": "asc"},
				},
			}
		case FacetPriceRanges:
			aggs["price_ranges"] = map[string]any{
				"range": map[string]any{
					"field": "pricing.basePrice",
					"ranges": []map[string]any{
						{"key": "free", "to": 0.01},
						{"key": "low", "from": 0.01, "to": 50},
						{"key": "medium", "from": 50, "to": 200},
						{"key": "high", "from": 200, "to": 1000},
						{"key": "premium", "from": 1000},
					},
				},
			}
		case FacetCities:
			aggs["cities"] = map[string]any{
				"terms": map[string]any{"field": "address.city.keyword", "size": 20},
			}
		case FacetRegions:
			aggs["regions"] = map[string]any{
				"terms": map[string]any{"field": "address.region.keyword", "size": 20},
			}
		case FacetVerified:
			aggs["verified"] = map[string]any{
				"terms": map[string]any{
					"field": "verified",
					"size":  2,
					"order": map[string]any{"_key": "desc"},
				},
			}
		case FacetTags:
			aggs["tags"] = map[string]any{
				"terms": map[string]any{
					"field":         "tags.keyword",
					"size":          30,
					"min_doc_count": 2,
				},
			}
		case FacetPopularity:
			aggs["popularity"] = map[string]any{
				"range": map[string]any{
					"field": "popularity",
					"ranges": []map[string]any{
						{"key": "niche", "to": 0.3},
						{"key": "known", "from": 0.3, "to": 0.7},
						{"key": "popular", "from": 0.7},
					},
				},
			}
		case FacetRating:
			aggs["rating"] = map[string]any{
				"range": map[string]any{
					"field": "rating",
					"ranges": []map[string]any{
						{"key": "1-2", "from": 1, "to": 3},
						{"key": "3-4", "from": 3, "to": 4},
						{"key": "4-5", "from": 4, "to": 5.01},
					},
				},
			}
		}
	}

	if len(aggs) > 0 {
		aggs["global_stats"] = map[string]any{
			"global": map[string]any{},
			"aggs": map[string]any{
				"total_resources": map[string]any{"value_count": map[string]any{"field": "id"}},
				"avg_rating":      map[string]any{"avg": map[string]any{"field": "rating"}},
				"verified_count": map[string]any{
					"filter": map[string]any{"term": map[string]any{"verified": true}},
				},
			},
		}
	}

	return aggs
}
