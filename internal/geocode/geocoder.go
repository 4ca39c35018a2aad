// Package geocode resolves free-form addresses to coordinates through the
// Nominatim API, with an in-process cache and layered fallbacks so the
// address search path keeps working when the upstream is slow or down.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/romapi/search-service/internal/domain"
)

const (
	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	userAgent = "ROMAPI-Search-Service/1.0"

	cacheTTL        = 24 * time.Hour
	maxCacheEntries = 1000
)

// Result is a resolved address.
type Result struct {
	Location    domain.GeoLocation `json:"location"`
	DisplayName string             `json:"display_name,omitempty"`
	City        string             `json:"city,omitempty"`
	Region      string             `json:"region,omitempty"`
	Country     string             `json:"country,omitempty"`
	Confidence  float64            `json:"confidence"`
	Source      string             `json:"source"`
}

// Doer abstracts the HTTP client so the circuit-breaker wrapper plugs in.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Geocoder resolves addresses via Nominatim.
type Geocoder struct {
	client  Doer
	baseURL string
	logger  *slog.Logger
	cache   *resultCache
}

// NewGeocoder creates a geocoder. An empty baseURL falls back to the
// public Nominatim endpoint.
func NewGeocoder(client Doer, baseURL string, logger *slog.Logger) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Geocoder{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		cache:   newResultCache(maxCacheEntries, cacheTTL),
	}
}

// nominatimPlace is one entry of a Nominatim search response.
type nominatimPlace struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Address     *nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	Road        string `json:"road"`
	Postcode    string `json:"postcode"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Geocode resolves an address to coordinates. Resolution order: in-process
// cache, Nominatim, the city part of the address, then the static table of
// known cities. Every returned location is range-validated.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	normalized := normalizeAddress(address)
	if normalized == "" {
		return nil, fmt.Errorf("geocode: empty address")
	}

	if cached, ok := g.cache.get(normalized); ok {
		hit := *cached
		hit.Source = "cache"
		return &hit, nil
	}

	result, err := g.query(ctx, normalized)
	if err == nil {
		g.cache.put(normalized, result)
		return result, nil
	}

	g.logger.WarnContext(ctx, "geocoding failed, trying fallbacks",
		slog.String("address", normalized),
		slog.String("error", err.Error()),
	)

	if fallback := g.cityFallback(ctx, normalized); fallback != nil {
		g.cache.put(normalized, fallback)
		return fallback, nil
	}

	if static := staticLookup(normalized); static != nil {
		g.cache.put(normalized, static)
		return static, nil
	}

	return nil, fmt.Errorf("geocode %q: %w", address, err)
}

// ReverseGeocode resolves coordinates back to an address.
func (g *Geocoder) ReverseGeocode(ctx context.Context, location domain.GeoLocation) (*Result, error) {
	if !location.IsValid() {
		return nil, fmt.Errorf("reverse geocode: coordinates out of range")
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(location.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(location.Longitude, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "fr,en")

	var place nominatimPlace
	if err := g.fetch(ctx, g.baseURL+"/reverse?"+params.Encode(), &place); err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}

	result := placeToResult(place, "nominatim")
	result.Location = location
	return result, nil
}

func (g *Geocoder) query(ctx context.Context, address string) (*Result, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")
	params.Set("countrycodes", "cm,fr")
	params.Set("accept-language", "fr,en")

	var places []nominatimPlace
	if err := g.fetch(ctx, g.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("no match for %q", address)
	}

	result := placeToResult(places[0], "nominatim")

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, fmt.Errorf("malformed coordinates for %q", address)
	}
	result.Location = domain.GeoLocation{Latitude: lat, Longitude: lon}
	if !result.Location.IsValid() {
		return nil, fmt.Errorf("coordinates out of range for %q", address)
	}

	return result, nil
}

func (g *Geocoder) fetch(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// cityFallback retries with only the part before the first comma, which is
// usually the city, at reduced confidence.
func (g *Geocoder) cityFallback(ctx context.Context, address string) *Result {
	city, rest, found := strings.Cut(address, ",")
	if !found || strings.TrimSpace(city) == "" || strings.TrimSpace(rest) == "" {
		return nil
	}

	result, err := g.query(ctx, strings.TrimSpace(city))
	if err != nil {
		return nil
	}

	result.Confidence -= 0.2
	if result.Confidence < 0.3 {
		result.Confidence = 0.3
	}
	result.Source = "fallback"
	return result
}

func placeToResult(place nominatimPlace, source string) *Result {
	result := &Result{
		DisplayName: place.DisplayName,
		Confidence:  confidence(place),
		Source:      source,
	}

	if addr := place.Address; addr != nil {
		result.City = firstNonEmpty(addr.City, addr.Town, addr.Village)
		result.Region = addr.State
		result.Country = strings.ToUpper(addr.CountryCode)
	}

	return result
}

// confidence scores how precisely Nominatim pinned the address.
func confidence(place nominatimPlace) float64 {
	score := 0.8

	if place.Address == nil {
		score -= 0.2
	} else {
		if place.Address.Road != "" {
			score += 0.1
		}
		if place.Address.Postcode != "" {
			score += 0.1
		}
	}

	switch place.Type {
	case "city", "town":
		if score < 0.7 {
			score = 0.7
		}
	case "village":
		if score < 0.6 {
			score = 0.6
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.1 {
		score = 0.1
	}
	return score
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
