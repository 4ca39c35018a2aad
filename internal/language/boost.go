package language

import (
	"github.com/romapi/search-service/internal/domain"
)

// RelevanceBoost returns the score multiplier for a hit given the user's
// language and the detected content language with its confidence. Matching
// content is promoted, the French/English pair is treated as mutually
// intelligible for this corpus, and confidently foreign content is demoted.
func RelevanceBoost(userLang, contentLang string, confidence float64) float64 {
	switch {
	case userLang == contentLang:
		return 1.0 + confidence*0.3
	case isFrEnPair(userLang, contentLang):
		return 1.0 + confidence*0.1
	case confidence > 0.8:
		return 0.95
	default:
		return 0.85
	}
}

func isFrEnPair(a, b string) bool {
	return (a == domain.LangFrench && b == domain.LangEnglish) ||
		(a == domain.LangEnglish && b == domain.LangFrench)
}
