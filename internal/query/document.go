package query

// Document accumulates the parts of a search request and renders them to the
// engine's wire format in one step.
type Document struct {
	root           Bool
	sorts          []map[string]any
	from           int
	size           int
	aggs           map[string]any
	highlight      map[string]any
	source         []string
	minScore       float64
	timeout        string
	trackTotalHits bool
}

// NewDocument creates an empty query document.
func NewDocument() *Document {
	return &Document{size: -1, from: -1}
}

// Must appends clauses that all hits have to satisfy and score against.
func (d *Document) Must(clauses ...Clause) *Document {
	d.root.Must = append(d.root.Must, clauses...)
	return d
}

// Filter appends non-scoring clauses that all hits have to satisfy.
func (d *Document) Filter(clauses ...Clause) *Document {
	d.root.Filter = append(d.root.Filter, clauses...)
	return d
}

// Should appends optional scoring clauses.
func (d *Document) Should(clauses ...Clause) *Document {
	d.root.Should = append(d.root.Should, clauses...)
	return d
}

// SortByField appends a field sort.
func (d *Document) SortByField(field, order string) *Document {
	d.sorts = append(d.sorts, map[string]any{field: map[string]any{"order": order}})
	return d
}

// SortByScore appends a relevance sort.
func (d *Document) SortByScore() *Document {
	d.sorts = append(d.sorts, map[string]any{"_score": map[string]any{"order": "desc"}})
	return d
}

// SortByDistance appends a geo distance sort from the given origin. The
// minimum distance of multi-valued fields is used, computed on the arc.
func (d *Document) SortByDistance(field string, lat, lon float64, order string) *Document {
	d.sorts = append(d.sorts, map[string]any{
		"_geo_distance": map[string]any{
			field:           map[string]any{"lat": lat, "lon": lon},
			"order":         order,
			"unit":          "km",
			"mode":          "min",
			"distance_type": "arc",
		},
	})
	return d
}

// Paginate sets the result window.
func (d *Document) Paginate(from, size int) *Document {
	d.from = from
	d.size = size
	return d
}

// Aggs sets the aggregations block.
func (d *Document) Aggs(aggs map[string]any) *Document {
	d.aggs = aggs
	return d
}

// Highlight sets the highlight block.
func (d *Document) Highlight(highlight map[string]any) *Document {
	d.highlight = highlight
	return d
}

// Source restricts the returned document fields.
func (d *Document) Source(fields ...string) *Document {
	d.source = fields
	return d
}

// MinScore drops hits scoring below the threshold.
func (d *Document) MinScore(score float64) *Document {
	d.minScore = score
	return d
}

// Timeout sets the engine-side execution timeout (e.g. "30s").
func (d *Document) Timeout(timeout string) *Document {
	d.timeout = timeout
	return d
}

// TrackTotalHits requests an exact total hit count.
func (d *Document) TrackTotalHits() *Document {
	d.trackTotalHits = true
	return d
}

// Render produces the engine's JSON-compatible query document.
func (d *Document) Render() map[string]any {
	doc := map[string]any{
		"query": d.root.render(),
	}
	if len(d.sorts) > 0 {
		doc["sort"] = d.sorts
	}
	if d.from >= 0 {
		doc["from"] = d.from
	}
	if d.size >= 0 {
		doc["size"] = d.size
	}
	if len(d.aggs) > 0 {
		doc["aggs"] = d.aggs
	}
	if len(d.highlight) > 0 {
		doc["highlight"] = d.highlight
	}
	if len(d.source) > 0 {
		doc["_source"] = d.source
	}
	if d.minScore > 0 {
		doc["min_score"] = d.minScore
	}
	if d.timeout != "" {
		doc["timeout"] = d.timeout
	}
	if d.trackTotalHits {
		doc["track_total_hits"] = true
	}
	return doc
}
