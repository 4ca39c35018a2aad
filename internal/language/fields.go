package language

import (
	"github.com/romapi/search-service/internal/domain"
)

// Index analyzers per language.
const (
	AnalyzerFrench       = "french_analyzer"
	AnalyzerEnglish      = "english_analyzer"
	AnalyzerMultilingual = "multilingual_analyzer"

	SearchAnalyzerFrench  = "french_search_analyzer"
	SearchAnalyzerEnglish = "english_search_analyzer"
)

// Analyzer returns the index analyzer for the given language.
func Analyzer(lang string) string {
	switch lang {
	case domain.LangFrench:
		return AnalyzerFrench
	case domain.LangEnglish:
		return AnalyzerEnglish
	default:
		return AnalyzerMultilingual
	}
}

// SearchAnalyzer returns the query-time analyzer for the given language.
// Auto falls back to the multilingual analyzer.
func SearchAnalyzer(lang string) string {
	switch lang {
	case domain.LangFrench:
		return SearchAnalyzerFrench
	case domain.LangEnglish:
		return SearchAnalyzerEnglish
	default:
		return AnalyzerMultilingual
	}
}

var baseFields = []string{"name^3", "description^2", "category.name^2", "tags"}

var frenchFields = []string{
	"name.french^3.5",
	"description.french^2.5",
	"category.name.french^2.5",
	"tags.french^1.8",
}

var englishFields = []string{
	"name.english^3.5",
	"description.english^2.5",
	"category.name.english^2.5",
	"tags.english^1.8",
}

// autoFields unions both language sub-fields at slightly reduced boosts so
// neither language dominates when the user's language is unknown.
var autoFields = []string{
	"name.french^3.2", "name.english^3.2",
	"description.french^2.2", "description.english^2.2",
	"category.name.french^2.2", "category.name.english^2.2",
	"tags.french^1.6", "tags.english^1.6",
}

// SearchFields returns the boosted field list to query for the given
// language, language-specific sub-fields first, base fields after.
func SearchFields(lang string) []string {
	var fields []string
	switch lang {
	case domain.LangFrench:
		fields = frenchFields
	case domain.LangEnglish:
		fields = englishFields
	default:
		fields = autoFields
	}
	out := make([]string, 0, len(fields)+len(baseFields))
	out = append(out, fields...)
	out = append(out, baseFields...)
	return out
}
