package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romapi/search-service/internal/domain"
)

func TestDetect_FrenchKeywords(t *testing.T) {
	d := NewDetector()

	det := d.Detect("restaurant douala")

	assert.Equal(t, domain.LangFrench, det.Language)
	assert.Greater(t, det.Confidence, 0.5)
	require.Len(t, det.Candidates, 2)
	assert.Equal(t, domain.LangFrench, det.Candidates[0].Language)
}

func TestDetect_FrenchAccents(t *testing.T) {
	d := NewDetector()

	det := d.Detect("hôtel à yaoundé")

	assert.Equal(t, domain.LangFrench, det.Language)
}

func TestDetect_English(t *testing.T) {
	d := NewDetector()

	det := d.Detect("the best consulting company")

	assert.Equal(t, domain.LangEnglish, det.Language)
	assert.Greater(t, det.Confidence, 0.5)
}

func TestDetect_EmptyText(t *testing.T) {
	d := NewDetector()

	det := d.Detect("   ")

	assert.Equal(t, domain.LangFrench, det.Language)
	assert.InDelta(t, 0.5, det.Confidence, 0.001)
	require.Len(t, det.Candidates, 2)
	assert.Equal(t, det.Candidates[0].Confidence, det.Candidates[1].Confidence)
}

func TestDetect_NoSignalDefaultsToFrench(t *testing.T) {
	d := NewDetector()

	det := d.Detect("xyzzy plugh")

	assert.Equal(t, domain.LangFrench, det.Language)
	assert.InDelta(t, 0.6, det.Confidence, 0.001)
}

func TestDetect_ConfidencesSumToOne(t *testing.T) {
	d := NewDetector()

	det := d.Detect("le restaurant near the market")

	var sum float64
	for _, c := range det.Candidates {
		sum += c.Confidence
	}
	assert.InDelta(t, 1.0, sum, 0.0001)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(domain.LangFrench))
	assert.True(t, IsSupported(domain.LangEnglish))
	assert.True(t, IsSupported(domain.LangAuto))
	assert.False(t, IsSupported("de"))
	assert.False(t, IsSupported(""))
}

func TestNormalize_TypoCorrection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		lang string
		want string
	}{
		{"french restaurant typo", "resturant  Douala", domain.LangFrench, "restaurant douala"},
		{"french enterprise typo", "Entreprize De Servise", domain.LangFrench, "entreprise de service"},
		{"english company typo", "compeny directory", domain.LangEnglish, "company directory"},
		{"english business typo", "bussiness  listings", domain.LangEnglish, "business listings"},
		{"no typos untouched", "restaurant douala", domain.LangFrench, "restaurant douala"},
		{"whitespace collapsed", "  hotel   yaoundé  ", domain.LangFrench, "hotel yaoundé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, tt.lang))
		})
	}
}

func TestRelevanceBoost(t *testing.T) {
	// Same language scales with confidence.
	assert.InDelta(t, 1.24, RelevanceBoost(domain.LangFrench, domain.LangFrench, 0.8), 0.0001)

	// The French/English pair gets a smaller lift.
	assert.InDelta(t, 1.08, RelevanceBoost(domain.LangFrench, domain.LangEnglish, 0.8), 0.0001)

	// Confidently foreign content is demoted.
	assert.InDelta(t, 0.95, RelevanceBoost(domain.LangFrench, "de", 0.9), 0.0001)

	// Uncertain foreign content is demoted further.
	assert.InDelta(t, 0.85, RelevanceBoost(domain.LangFrench, "de", 0.5), 0.0001)
}

func TestSearchFields(t *testing.T) {
	fr := SearchFields(domain.LangFrench)
	assert.Contains(t, fr, "name.french^3.5")
	assert.Contains(t, fr, "name^3")
	assert.NotContains(t, fr, "name.english^3.5")

	auto := SearchFields(domain.LangAuto)
	assert.Contains(t, auto, "name.french^3.2")
	assert.Contains(t, auto, "name.english^3.2")
}

func TestAnalyzers(t *testing.T) {
	assert.Equal(t, AnalyzerFrench, Analyzer(domain.LangFrench))
	assert.Equal(t, AnalyzerMultilingual, Analyzer(domain.LangAuto))
	assert.Equal(t, SearchAnalyzerEnglish, SearchAnalyzer(domain.LangEnglish))
	assert.Equal(t, AnalyzerMultilingual, SearchAnalyzer(domain.LangAuto))
}
