package geocode

import (
	"strings"

	"github.com/romapi/search-service/internal/domain"
)

// staticCities covers the cities that dominate the traffic. They answer
// even when Nominatim is completely unreachable.
var staticCities = map[string]Result{
	"yaounde": {
		Location: domain.GeoLocation{Latitude: 3.8480, Longitude: 11.5021},
		City:     "Yaoundé", Region: "Centre", Country: "CM",
	},
	"douala": {
		Location: domain.GeoLocation{Latitude: 4.0511, Longitude: 9.7679},
		City:     "Douala", Region: "Littoral", Country: "CM",
	},
	"bamenda": {
		Location: domain.GeoLocation{Latitude: 5.9631, Longitude: 10.1591},
		City:     "Bamenda", Region: "Nord-Ouest", Country: "CM",
	},
	"bafoussam": {
		Location: domain.GeoLocation{Latitude: 5.4781, Longitude: 10.4167},
		City:     "Bafoussam", Region: "Ouest", Country: "CM",
	},
	"garoua": {
		Location: domain.GeoLocation{Latitude: 9.3265, Longitude: 13.3958},
		City:     "Garoua", Region: "Nord", Country: "CM",
	},
	"paris": {
		Location: domain.GeoLocation{Latitude: 48.8566, Longitude: 2.3522},
		City:     "Paris", Region: "Île-de-France", Country: "FR",
	},
	"lyon": {
		Location: domain.GeoLocation{Latitude: 45.7640, Longitude: 4.8357},
		City:     "Lyon", Region: "Auvergne-Rhône-Alpes", Country: "FR",
	},
	"marseille": {
		Location: domain.GeoLocation{Latitude: 43.2965, Longitude: 5.3698},
		City:     "Marseille", Region: "Provence-Alpes-Côte d'Azur", Country: "FR",
	},
}

const staticConfidence = 0.5

// staticLookup scans the normalized address for a known city name.
func staticLookup(normalized string) *Result {
	for name, entry := range staticCities {
		if strings.Contains(normalized, name) {
			result := entry
			result.Confidence = staticConfidence
			result.Source = "static"
			return &result
		}
	}
	return nil
}
