package service

import (
	"sort"
	"strings"

	"github.com/romapi/search-service/internal/domain"
	"github.com/romapi/search-service/internal/engine"
	"github.com/romapi/search-service/internal/language"
)

// transform converts a raw engine result into domain results: hits are
// rescored for the user's language, facet aggregations are decoded and
// pagination is resolved against the total.
func (s *SearchService) transform(res *engine.Result, params domain.SearchParams, lang string, confidence float64) *domain.SearchResults {
	hits := make([]domain.SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, s.hitFromEngine(h, lang))
	}

	// Language boosting can reorder hits within the page.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	total := int64(res.Total)
	return &domain.SearchResults{
		Hits:    hits,
		Total:   total,
		Facets:  facetsFromAggs(res.Aggs),
		TookMs:  res.TookMs,
		Page:    params.Pagination.Page,
		Limit:   params.Pagination.Limit,
		HasMore: int64(params.Pagination.Offset()+len(hits)) < total,
		Metadata: domain.ResultMetadata{
			Query:              params.Query,
			Language:           lang,
			LanguageConfidence: confidence,
		},
	}
}

// hitFromEngine maps an indexed document onto a search hit and adapts its
// score to the requesting user's language.
func (s *SearchService) hitFromEngine(h engine.Hit, userLang string) domain.SearchHit {
	doc := h.Source

	hit := domain.SearchHit{
		ID:           doc.ID,
		Name:         doc.Name,
		Description:  doc.Description,
		ResourceType: doc.ResourceType,
		Category:     doc.Category,
		Plan:         doc.Plan,
		Verified:     doc.Verified,
		Location:     hitLocation(doc),
		Contact:      hitContact(doc.Contact),
		Tags:         doc.Tags,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		Score:        h.Score,
		Highlight:    h.Highlight,
	}

	contentLang, contentConf := s.contentLanguage(doc)
	hit.Language = contentLang
	hit.LanguageConfidence = contentConf

	boost := language.RelevanceBoost(userLang, contentLang, contentConf)
	hit.Score = h.Score * boost
	hit.LanguageAdaptation = &domain.LanguageAdaptation{
		UserLanguage:         userLang,
		ContentLanguage:      contentLang,
		RelevanceBoost:       boost,
		TranslationAvailable: contentLang != userLang && language.IsSupported(contentLang),
	}

	return hit
}

// contentLanguage resolves the language of a document, trusting the indexed
// value when present and detecting from the text otherwise.
func (s *SearchService) contentLanguage(doc domain.ResourceDoc) (string, float64) {
	if language.IsSupported(doc.Language) {
		return doc.Language, 1.0
	}

	text := strings.TrimSpace(doc.Name + " " + doc.Description)
	detection := s.detector.Detect(text)
	return detection.Language, detection.Confidence
}

func hitLocation(doc domain.ResourceDoc) *domain.HitLocation {
	if doc.Location == nil && doc.Address == nil {
		return nil
	}

	loc := &domain.HitLocation{}
	if doc.Location != nil {
		loc.Latitude = doc.Location.Lat
		loc.Longitude = doc.Location.Lon
	}
	if doc.Address != nil {
		loc.City = doc.Address.City
		loc.Region = doc.Address.Region
		loc.Country = doc.Address.Country
	}
	return loc
}

func hitContact(c domain.ContactInfo) *domain.ContactInfo {
	if c.Phone == "" && c.Email == "" && c.Website == "" {
		return nil
	}
	cp := c
	return &cp
}

// facetsFromAggs decodes the facet aggregation tree. Missing aggregations
// simply leave their facet empty, so partial facet requests work.
func facetsFromAggs(aggs engine.Aggregations) domain.SearchFacets {
	return domain.SearchFacets{
		Categories:    categoryBuckets(aggs["categories"]),
		ResourceTypes: facetBuckets(aggs["resource_types"]),
		Plans:         facetBuckets(aggs["plans"]),
		PriceRanges:   facetBuckets(aggs["price_ranges"]),
		Cities:        facetBuckets(aggs["cities"]),
		Regions:       facetBuckets(aggs["regions"]),
		Verified:      facetBuckets(aggs["verified"]),
		Tags:          facetBuckets(aggs["tags"]),
		Popularity:    facetBuckets(aggs["popularity"]),
		Rating:        facetBuckets(aggs["rating"]),
		GlobalStats:   globalStats(aggs["global_stats"]),
	}
}

func facetBuckets(agg engine.Agg) []domain.FacetBucket {
	if len(agg.Buckets) == 0 {
		return nil
	}

	out := make([]domain.FacetBucket, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		out = append(out, domain.FacetBucket{
			Key:   b.KeyString(),
			Count: b.DocCount,
		})
	}
	return out
}

// categoryBuckets keys on the category ID and labels each bucket with the
// category name carried by the nested aggregation.
func categoryBuckets(agg engine.Agg) []domain.FacetBucket {
	if len(agg.Buckets) == 0 {
		return nil
	}

	out := make([]domain.FacetBucket, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		fb := domain.FacetBucket{
			Key:   b.KeyString(),
			Count: b.DocCount,
		}
		if names, ok := b.Sub["category_names"]; ok && len(names.Buckets) > 0 {
			fb.Label = names.Buckets[0].KeyString()
		}
		out = append(out, fb)
	}
	return out
}

func globalStats(agg engine.Agg) *domain.GlobalStats {
	if agg.Sub == nil {
		return nil
	}

	stats := &domain.GlobalStats{}
	if total, ok := agg.Sub["total_resources"]; ok && total.Value != nil {
		stats.TotalResources = int(*total.Value)
	}
	if avg, ok := agg.Sub["avg_rating"]; ok && avg.Value != nil {
		stats.AverageRating = *avg.Value
	}
	if verified, ok := agg.Sub["verified_count"]; ok && verified.DocCount != nil {
		stats.VerifiedCount = *verified.DocCount
	}
	return stats
}
