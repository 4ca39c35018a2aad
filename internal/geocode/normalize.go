package geocode

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// diacritics maps accented characters common in French and local place
// names to their base letters. Nominatim matches better on plain ASCII
// and the cache key must not depend on how the user typed the accent.
var diacritics = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ÿ", "y",
	"œ", "oe", "æ", "ae",
)

// normalizeAddress lowercases, strips diacritics and collapses whitespace.
func normalizeAddress(address string) string {
	s := strings.ToLower(strings.TrimSpace(address))
	s = diacritics.Replace(s)
	return whitespaceRun.ReplaceAllString(s, " ")
}
