package language

import (
	"regexp"
	"sort"
	"strings"

	"github.com/romapi/search-service/internal/domain"
)

// Candidate is one scored language hypothesis.
type Candidate struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Detection is the outcome of detecting the language of a piece of text.
type Detection struct {
	Language   string      `json:"language"`
	Confidence float64     `json:"confidence"`
	Candidates []Candidate `json:"candidates"`
}

// IsSupported reports whether lang is a supported search language.
func IsSupported(lang string) bool {
	switch lang {
	case domain.LangFrench, domain.LangEnglish, domain.LangAuto:
		return true
	}
	return false
}

var frenchChars = regexp.MustCompile(`[àâäéèêëïîôöùûüÿç]`)

var frenchKeywords = wordSet(
	"le", "la", "les", "de", "du", "des", "un", "une", "et", "ou", "à",
	"pour", "avec", "dans", "sur", "par", "pas", "est", "sont",
	"restaurant", "hôtel", "entreprise", "service", "boutique", "marché",
	"douala", "yaoundé", "cameroun",
)

var englishKeywords = wordSet(
	"the", "a", "an", "and", "or", "to", "in", "on", "for", "with",
	"is", "are", "of", "at", "by", "from",
	"restaurant", "hotel", "company", "business", "service", "shop", "store", "market",
)

var frenchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:qu|d|l|n|s|t|j|m|c)'`),
	regexp.MustCompile(`\w+tion\b`),
	regexp.MustCompile(`\w+ment\b`),
	regexp.MustCompile(`\w+eur\b`),
	regexp.MustCompile(`\w+aise?\b`),
}

var englishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\w+ing\b`),
	regexp.MustCompile(`\w+ed\b`),
	regexp.MustCompile(`\w+ly\b`),
	regexp.MustCompile(`\w+tion\b`),
	regexp.MustCompile(`\bth(?:e|is|at|ere|ey)\b`),
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Detector scores text against per-language character, keyword, and
// morphological pattern heuristics. It is stateless and safe for concurrent
// use.
type Detector struct{}

// NewDetector creates a language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect determines the most likely language of the given text. Empty text
// defaults to French with middling confidence, both candidates tied. When
// neither language scores, French gets the benefit of the doubt: the corpus
// is predominantly Cameroonian.
func (d *Detector) Detect(text string) Detection {
	trimmed := strings.TrimSpace(strings.ToLower(text))
	if trimmed == "" {
		return Detection{
			Language:   domain.LangFrench,
			Confidence: 0.5,
			Candidates: []Candidate{
				{Language: domain.LangFrench, Confidence: 0.5},
				{Language: domain.LangEnglish, Confidence: 0.5},
			},
		}
	}

	frScore := d.score(trimmed, frenchChars, frenchKeywords, frenchPatterns)
	enScore := d.score(trimmed, nil, englishKeywords, englishPatterns)

	if frScore == 0 && enScore == 0 {
		frScore, enScore = 0.6, 0.4
	}

	total := frScore + enScore
	candidates := []Candidate{
		{Language: domain.LangFrench, Confidence: frScore / total},
		{Language: domain.LangEnglish, Confidence: enScore / total},
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	return Detection{
		Language:   candidates[0].Language,
		Confidence: candidates[0].Confidence,
		Candidates: candidates,
	}
}

// score combines three signals: accented characters (0.3), stop-word and
// domain keyword hits (0.2 per word), and morphological patterns (0.1 per
// match, capped at 0.5 per pattern family).
func (d *Detector) score(text string, chars *regexp.Regexp, keywords map[string]struct{}, patterns []*regexp.Regexp) float64 {
	var score float64

	if chars != nil && chars.MatchString(text) {
		score += 0.3
	}

	for _, word := range strings.Fields(text) {
		if _, ok := keywords[word]; ok {
			score += 0.2
		}
	}

	for _, pattern := range patterns {
		matches := len(pattern.FindAllString(text, -1))
		contribution := 0.1 * float64(matches)
		if contribution > 0.5 {
			contribution = 0.5
		}
		score += contribution
	}

	return score
}
