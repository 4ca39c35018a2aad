package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/romapi/search-service/internal/domain"
	apperrors "github.com/romapi/search-service/pkg/errors"
)

const (
	maxRadiusKm          = 1000.0
	defaultAddressRadius = 10.0
)

// SearchNearby searches within a radius around a point, sorted by distance
// from it. Each located hit carries its distance from the origin.
func (s *SearchService) SearchNearby(ctx context.Context, origin domain.GeoLocation, radiusKm float64, params domain.SearchParams) (*domain.SearchResults, error) {
	if !origin.IsValid() {
		return nil, apperrors.InvalidInput("invalid coordinates")
	}
	if radiusKm <= 0 || radiusKm > maxRadiusKm {
		return nil, apperrors.InvalidInput(fmt.Sprintf("radius must be between 0 and %g km", maxRadiusKm))
	}

	params.Filters.Location = &domain.GeoFilter{
		Location: origin,
		RadiusKm: radiusKm,
	}
	params.Sort = domain.SortOptions{Field: domain.SortDistance, Order: domain.OrderAsc}

	results, err := s.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	enrichDistances(results, origin)
	return results, nil
}

// SearchByAddress geocodes a free-form address and searches around it. When
// geocoding fails entirely the address text still narrows the search.
func (s *SearchService) SearchByAddress(ctx context.Context, address string, radiusKm float64, params domain.SearchParams) (*domain.SearchResults, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.InvalidInput("address is required")
	}
	if radiusKm <= 0 {
		radiusKm = defaultAddressRadius
	}

	if s.geocoder == nil {
		return s.searchByAddressText(ctx, address, params)
	}

	geo, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		s.logger.WarnContext(ctx, "geocoding failed, falling back to text filters",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		return s.searchByAddressText(ctx, address, params)
	}

	if geo.City != "" && params.Filters.City == "" {
		params.Filters.City = geo.City
	}
	if geo.Region != "" && params.Filters.Region == "" {
		params.Filters.Region = geo.Region
	}
	if geo.Country != "" && params.Filters.Country == "" {
		params.Filters.Country = geo.Country
	}

	results, err := s.SearchNearby(ctx, geo.Location, radiusKm, params)
	if err != nil {
		return nil, err
	}

	loc := geo.Location
	results.Metadata.Geocoded = &loc
	return results, nil
}

// SearchByCity searches resources located in the given city.
func (s *SearchService) SearchByCity(ctx context.Context, city string, params domain.SearchParams) (*domain.SearchResults, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, apperrors.InvalidInput("city is required")
	}
	params.Filters.City = city
	return s.Search(ctx, params)
}

// SearchByRegion searches resources located in the given region.
func (s *SearchService) SearchByRegion(ctx context.Context, region string, params domain.SearchParams) (*domain.SearchResults, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, apperrors.InvalidInput("region is required")
	}
	params.Filters.Region = region
	return s.Search(ctx, params)
}

// searchByAddressText derives place filters from the raw address when no
// coordinates could be resolved.
func (s *SearchService) searchByAddressText(ctx context.Context, address string, params domain.SearchParams) (*domain.SearchResults, error) {
	city, country := parseAddressComponents(address)
	if city != "" && params.Filters.City == "" {
		params.Filters.City = city
	}
	if country != "" && params.Filters.Country == "" {
		params.Filters.Country = country
	}
	return s.Search(ctx, params)
}

// parseAddressComponents extracts a probable city and country from a
// comma-separated address.
func parseAddressComponents(address string) (city, country string) {
	parts := strings.Split(address, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	last := strings.ToLower(parts[len(parts)-1])
	switch {
	case strings.Contains(last, "cameroun"), strings.Contains(last, "cameroon"):
		country = "CM"
		parts = parts[:len(parts)-1]
	case strings.Contains(last, "france"):
		country = "FR"
		parts = parts[:len(parts)-1]
	}

	if len(parts) > 0 {
		// The city is conventionally the last component before the country.
		city = parts[len(parts)-1]
	}
	return city, country
}

// enrichDistances fills in the distance of every located hit from the
// search origin.
func enrichDistances(results *domain.SearchResults, origin domain.GeoLocation) {
	for i := range results.Hits {
		loc := results.Hits[i].Location
		if loc == nil {
			continue
		}
		point := domain.GeoLocation{Latitude: loc.Latitude, Longitude: loc.Longitude}
		if !point.IsValid() || (point.Latitude == 0 && point.Longitude == 0) {
			continue
		}
		d := domain.DistanceKm(origin, point)
		loc.DistanceKm = &d
	}
}
