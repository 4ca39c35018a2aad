package filterstate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/romapi/search-service/internal/domain"
)

// Signature normalizes a filter combination into a stable string used as
// the popularity counter member. Volatile fields (geo location, price and
// date ranges, free-form tags) are left out so equivalent selections
// aggregate under one signature. Returns "" when no countable filter is
// set.
func Signature(filters domain.SearchFilters) string {
	var parts []string

	if len(filters.Categories) > 0 {
		parts = append(parts, "categories="+sortedJoin(filters.Categories))
	}
	if len(filters.ResourceTypes) > 0 {
		parts = append(parts, "types="+sortedJoin(filters.ResourceTypes))
	}
	if len(filters.Plans) > 0 {
		parts = append(parts, "plans="+sortedJoin(filters.Plans))
	}
	if filters.Verified != nil {
		parts = append(parts, fmt.Sprintf("verified=%t", *filters.Verified))
	}
	if filters.City != "" {
		parts = append(parts, "city="+strings.ToLower(filters.City))
	}
	if filters.Region != "" {
		parts = append(parts, "region="+strings.ToLower(filters.Region))
	}
	if filters.Country != "" {
		parts = append(parts, "country="+strings.ToLower(filters.Country))
	}

	return strings.Join(parts, "|")
}

func sortedJoin(values []string) string {
	sorted := make([]string, len(values))
	for i, v := range values {
		sorted[i] = strings.ToLower(v)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
