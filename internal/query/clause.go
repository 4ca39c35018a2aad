// Package query builds search engine query documents from typed clauses.
// Callers compose leaf clauses into bool queries and render the whole
// document to the engine's wire format in one final step, so no ad hoc JSON
// maps leak into the orchestration layer.
package query

// Clause is a node of the query tree. Implementations render themselves to
// the engine's JSON-compatible representation.
type Clause interface {
	render() map[string]any
}

// MatchAll matches every document.
type MatchAll struct{}

func (MatchAll) render() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

// Term is an exact term filter, optionally boosted.
type Term struct {
	Field string
	Value any
	Boost float64
}

func (t Term) render() map[string]any {
	if t.Boost == 0 {
		return map[string]any{"term": map[string]any{t.Field: t.Value}}
	}
	return map[string]any{
		"term": map[string]any{
			t.Field: map[string]any{"value": t.Value, "boost": t.Boost},
		},
	}
}

// Terms matches documents whose field holds any of the given values.
type Terms struct {
	Field  string
	Values []string
}

func (t Terms) render() map[string]any {
	return map[string]any{"terms": map[string]any{t.Field: t.Values}}
}

// Range is a bounded range filter. Nil bounds are omitted.
type Range struct {
	Field string
	GTE   any
	LTE   any
	Boost float64
}

func (r Range) render() map[string]any {
	bounds := map[string]any{}
	if r.GTE != nil {
		bounds["gte"] = r.GTE
	}
	if r.LTE != nil {
		bounds["lte"] = r.LTE
	}
	if r.Boost != 0 {
		bounds["boost"] = r.Boost
	}
	return map[string]any{"range": map[string]any{r.Field: bounds}}
}

// GeoDistance restricts hits to a radius around a point.
type GeoDistance struct {
	Field    string
	Distance string
	Lat      float64
	Lon      float64
}

func (g GeoDistance) render() map[string]any {
	return map[string]any{
		"geo_distance": map[string]any{
			"distance": g.Distance,
			g.Field:    map[string]any{"lat": g.Lat, "lon": g.Lon},
		},
	}
}

// Match is a single-field analyzed match, optionally fuzzy.
type Match struct {
	Field     string
	Query     string
	Analyzer  string
	Fuzziness string
	Boost     float64
}

func (m Match) render() map[string]any {
	body := map[string]any{"query": m.Query}
	if m.Analyzer != "" {
		body["analyzer"] = m.Analyzer
	}
	if m.Fuzziness != "" {
		body["fuzziness"] = m.Fuzziness
	}
	if m.Boost != 0 {
		body["boost"] = m.Boost
	}
	return map[string]any{"match": map[string]any{m.Field: body}}
}

// MultiMatch queries several boosted fields at once.
type MultiMatch struct {
	Query              string
	Fields             []string
	Type               string
	Analyzer           string
	Fuzziness          string
	PrefixLength       int
	MaxExpansions      int
	MinimumShouldMatch string
	Boost              float64
}

func (m MultiMatch) render() map[string]any {
	body := map[string]any{
		"query":  m.Query,
		"fields": m.Fields,
	}
	if m.Type != "" {
		body["type"] = m.Type
	}
	if m.Analyzer != "" {
		body["analyzer"] = m.Analyzer
	}
	if m.Fuzziness != "" {
		body["fuzziness"] = m.Fuzziness
	}
	if m.PrefixLength > 0 {
		body["prefix_length"] = m.PrefixLength
	}
	if m.MaxExpansions > 0 {
		body["max_expansions"] = m.MaxExpansions
	}
	if m.MinimumShouldMatch != "" {
		body["minimum_should_match"] = m.MinimumShouldMatch
	}
	if m.Boost != 0 {
		body["boost"] = m.Boost
	}
	return map[string]any{"multi_match": body}
}

// Bool combines sub-clauses with must/filter/should semantics.
type Bool struct {
	Must               []Clause
	Filter             []Clause
	Should             []Clause
	MinimumShouldMatch int
}

func (b Bool) render() map[string]any {
	body := map[string]any{}
	if len(b.Must) > 0 {
		body["must"] = renderAll(b.Must)
	}
	if len(b.Filter) > 0 {
		body["filter"] = renderAll(b.Filter)
	}
	if len(b.Should) > 0 {
		body["should"] = renderAll(b.Should)
	}
	if b.MinimumShouldMatch > 0 {
		body["minimum_should_match"] = b.MinimumShouldMatch
	}
	return map[string]any{"bool": body}
}

func renderAll(clauses []Clause) []map[string]any {
	out := make([]map[string]any, 0, len(clauses))
	for _, c := range clauses {
		out = append(out, c.render())
	}
	return out
}
