package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/domain"
)

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func baseParams() domain.SearchParams {
	return domain.SearchParams{
		Query:      "restaurant douala",
		Pagination: domain.Pagination{Page: 1, Limit: 20},
	}
}

func TestBuildSearch_TextualQuery(t *testing.T) {
	doc := BuildSearch(baseParams(), domain.LangFrench).Render()

	assert.Equal(t, true, doc["track_total_hits"])
	assert.Equal(t, "30s", doc["timeout"])
	assert.Equal(t, 0.1, doc["min_score"])
	assert.Equal(t, 0, doc["from"])
	assert.Equal(t, 20, doc["size"])

	boolQuery := doc["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]map[string]any)
	require.Len(t, must, 1)

	textual := must[0]["bool"].(map[string]any)
	disjuncts := textual["should"].([]map[string]any)
	assert.Len(t, disjuncts, 6)
	assert.Equal(t, 1, textual["minimum_should_match"])

	exact := disjuncts[0]["multi_match"].(map[string]any)
	assert.Equal(t, "phrase", exact["type"])
	assert.Equal(t, []string{"name.exact^5", "category.name.keyword^3"}, exact["fields"])
	assert.Equal(t, 4.0, exact["boost"])

	// Quality boosts ride in the outer should.
	should := boolQuery["should"].([]map[string]any)
	require.Len(t, should, 3)

	// Highlighting is configured for textual queries.
	highlight := doc["highlight"].(map[string]any)
	assert.Equal(t, []string{"<mark>"}, highlight["pre_tags"])
	assert.Equal(t, false, highlight["require_field_match"])
}

func TestBuildSearch_ShortQueryBoostsExactMatch(t *testing.T) {
	params := baseParams()
	params.Query = "bar"

	doc := BuildSearch(params, domain.LangFrench).Render()

	boolQuery := doc["query"].(map[string]any)["bool"].(map[string]any)
	textual := boolQuery["must"].([]map[string]any)[0]["bool"].(map[string]any)
	disjuncts := textual["should"].([]map[string]any)

	exact := disjuncts[0]["multi_match"].(map[string]any)
	assert.Equal(t, 6.0, exact["boost"])

	// Single-word query also raises the prefix boost.
	prefix := disjuncts[2]["multi_match"].(map[string]any)
	assert.Equal(t, 3.5, prefix["boost"])
}

func TestBuildSearch_EmptyQueryMatchesAll(t *testing.T) {
	params := baseParams()
	params.Query = "  "

	doc := BuildSearch(params, domain.LangFrench).Render()

	boolQuery := doc["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]map[string]any)
	require.Len(t, must, 1)
	assert.Contains(t, must[0], "match_all")
	assert.NotContains(t, doc, "highlight")
}

func TestFilterClauses_PriceRangeSwapsInvertedBounds(t *testing.T) {
	clauses := FilterClauses(domain.SearchFilters{
		PriceRange: &domain.PriceRange{Min: floatPtr(500), Max: floatPtr(100)},
	})

	require.Len(t, clauses, 1)
	bounds := clauses[0].render()["range"].(map[string]any)["pricing.basePrice"].(map[string]any)
	assert.Equal(t, 100.0, bounds["gte"])
	assert.Equal(t, 500.0, bounds["lte"])
}

func TestFilterClauses_TagsCombineWithAnd(t *testing.T) {
	clauses := FilterClauses(domain.SearchFilters{
		Tags: []string{"bio", "livraison"},
	})

	require.Len(t, clauses, 2)
	first := clauses[0].render()["term"].(map[string]any)
	assert.Equal(t, "bio", first["tags.keyword"])
}

func TestFilterClauses_AllFilters(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clauses := FilterClauses(domain.SearchFilters{
		Categories:    []string{"cat-1", "cat-2"},
		ResourceTypes: []string{"BUSINESS"},
		Plans:         []string{"FREE"},
		Verified:      boolPtr(true),
		City:          "Douala",
		Location: &domain.GeoFilter{
			Location: domain.GeoLocation{Latitude: 4.05, Longitude: 9.77},
			RadiusKm: 10,
		},
		DateRange: &domain.DateRange{From: &from},
	})

	assert.Len(t, clauses, 7)

	var rendered []map[string]any
	for _, c := range clauses {
		rendered = append(rendered, c.render())
	}

	geo := rendered[4]["geo_distance"].(map[string]any)
	assert.Equal(t, "10km", geo["distance"])

	// City matches the keyword sub-field exactly or the analyzed field fuzzily.
	city := rendered[5]["bool"].(map[string]any)
	assert.Len(t, city["should"].([]map[string]any), 2)
	assert.Equal(t, 1, city["minimum_should_match"])
}

func TestFilterClauses_NilFilters(t *testing.T) {
	assert.Nil(t, FilterClauses(domain.SearchFilters{}))
}

func TestApplySort_DistanceWithoutGeoFallsBackToScore(t *testing.T) {
	params := baseParams()
	params.Sort = domain.SortOptions{Field: domain.SortDistance, Order: domain.OrderAsc}

	doc := BuildSearch(params, domain.LangFrench).Render()

	sorts := doc["sort"].([]map[string]any)
	require.Len(t, sorts, 1)
	assert.Contains(t, sorts[0], "_score")
}

func TestApplySort_DistanceWithGeoFilter(t *testing.T) {
	params := baseParams()
	params.Sort = domain.SortOptions{Field: domain.SortDistance, Order: domain.OrderAsc}
	params.Filters = domain.SearchFilters{
		Location: &domain.GeoFilter{
			Location: domain.GeoLocation{Latitude: 4.05, Longitude: 9.77},
			RadiusKm: 25,
		},
	}

	doc := BuildSearch(params, domain.LangFrench).Render()

	sorts := doc["sort"].([]map[string]any)
	require.Len(t, sorts, 1)
	geoSort := sorts[0]["_geo_distance"].(map[string]any)
	assert.Equal(t, "asc", geoSort["order"])
	assert.Equal(t, "min", geoSort["mode"])
	assert.Equal(t, "arc", geoSort["distance_type"])
}

func TestApplySort_NameField(t *testing.T) {
	params := baseParams()
	params.Sort = domain.SortOptions{Field: domain.SortName, Order: domain.OrderAsc}

	doc := BuildSearch(params, domain.LangFrench).Render()

	sorts := doc["sort"].([]map[string]any)
	require.Len(t, sorts, 1)
	assert.Contains(t, sorts[0], "name.keyword")
}

func TestFacetAggs(t *testing.T) {
	aggs := FacetAggs([]string{FacetCategories, FacetVerified, FacetTags, "bogus"})

	require.Contains(t, aggs, "categories")
	require.Contains(t, aggs, "verified")
	require.Contains(t, aggs, "tags")
	require.Contains(t, aggs, "global_stats")
	assert.NotContains(t, aggs, "bogus")

	categories := aggs["categories"].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, 50, categories["size"])

	tags := aggs["tags"].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, 2, tags["min_doc_count"])
}

func TestFacetAggs_EmptyRequest(t *testing.T) {
	assert.Empty(t, FacetAggs(nil))
}

func TestBuildSuggest(t *testing.T) {
	doc := BuildSuggest("resto", domain.LangFrench, 5).Render()

	assert.Equal(t, 10, doc["size"]) // overfetched for deduplication
	assert.Contains(t, doc, "_source")

	boolQuery := doc["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]map[string]any)
	require.Len(t, must, 1)
	inner := must[0]["bool"].(map[string]any)
	assert.Len(t, inner["should"].([]map[string]any), 2)
}

func TestBuildPopularSuggest(t *testing.T) {
	doc := BuildPopularSuggest(10).Render()

	assert.Equal(t, 0, doc["size"])
	aggs := doc["aggs"].(map[string]any)
	assert.Contains(t, aggs, "popular_names")
	assert.Contains(t, aggs, "popular_categories")
}
