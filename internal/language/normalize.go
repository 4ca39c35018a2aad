package language

import (
	"regexp"
	"strings"

	"github.com/romapi/search-service/internal/domain"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Common domain-vocabulary misspellings, per language. Keys are matched on
// word boundaries against the lowercased query.
var frenchTypos = map[string]string{
	"resturant":  "restaurant",
	"restaurent": "restaurant",
	"hotell":     "hotel",
	"hotele":     "hotel",
	"entreprize": "entreprise",
	"entreprice": "entreprise",
	"servise":    "service",
	"servic":     "service",
	"tecnologie": "technologie",
	"technologi": "technologie",
	"financ":     "finance",
	"educaton":   "education",
	"educatoin":  "education",
	"transpor":   "transport",
	"trasport":   "transport",
}

var englishTypos = map[string]string{
	"resturant":  "restaurant",
	"restaurent": "restaurant",
	"hotell":     "hotel",
	"compeny":    "company",
	"companie":   "company",
	"tecnology":  "technology",
	"technologi": "technology",
	"bussiness":  "business",
	"busines":    "business",
	"servise":    "service",
	"servic":     "service",
	"financ":     "finance",
	"educaton":   "education",
	"transpor":   "transport",
}

// Normalize lowercases the query, collapses whitespace runs, and corrects
// common misspellings for the given language.
func Normalize(query, lang string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")

	typos := frenchTypos
	if lang == domain.LangEnglish {
		typos = englishTypos
	}

	words := strings.Split(normalized, " ")
	for i, word := range words {
		if corrected, ok := typos[word]; ok {
			words[i] = corrected
		}
	}

	return strings.Join(words, " ")
}
