package cache

import (
	"encoding/json"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/romapi/search-service/internal/domain"
)

const maxKeyLength = 100

// KeyForParams derives the deterministic cache key of a search request.
// Identical requests from the same user always produce the same key; the
// fallback path uses the same derivation to find cached results when the
// engine times out.
func KeyForParams(params domain.SearchParams) string {
	user := params.UserID
	if user == "" {
		user = "anonymous"
	}

	parts := []string{
		params.Query,
		marshalPart(params.Filters),
		marshalPart(params.Sort),
		marshalPart(params.Pagination),
		marshalPart(params.Facets),
		user,
	}

	return strings.Join(parts, "|")
}

func marshalPart(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// shorten keeps keys within Redis-friendly bounds: long keys keep a readable
// prefix and gain a hash suffix for uniqueness.
func shorten(key string) string {
	if len(key) <= maxKeyLength {
		return key
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return key[:50] + "_" + strconv.FormatUint(h.Sum64(), 36)
}
