package engine

import (
	"encoding/json"
	"errors"
)

func asEngineError(err error, target **Error) bool {
	return errors.As(err, target)
}

// Aggregations is the decoded aggregation tree of an engine response.
type Aggregations map[string]Agg

// Agg is a single decoded aggregation. Bucket aggregations carry Buckets,
// metric aggregations carry Value, filter aggregations carry DocCount, and
// any nested aggregations land in Sub.
type Agg struct {
	Buckets  []Bucket
	Value    *float64
	DocCount *int
	Sub      Aggregations
}

// Bucket is one bucket of a bucket aggregation, with any sub-aggregations.
type Bucket struct {
	Key      any
	DocCount int
	Sub      Aggregations
}

// KeyString returns the bucket key as a string, converting the engine's
// boolean key_as_string convention and numeric keys.
func (b Bucket) KeyString() string {
	switch k := b.Key.(type) {
	case string:
		return k
	case bool:
		if k {
			return "true"
		}
		return "false"
	case float64:
		return json.Number(jsonNumber(k)).String()
	default:
		return ""
	}
}

func jsonNumber(f float64) string {
	data, _ := json.Marshal(f)
	return string(data)
}

// UnmarshalJSON decodes the heterogeneous aggregation JSON: the known keys
// (buckets, value, doc_count) are lifted into fields and everything else is
// treated as a nested aggregation.
func (a *Agg) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, val := range raw {
		switch key {
		case "buckets":
			if err := json.Unmarshal(val, &a.Buckets); err != nil {
				return err
			}
		case "value":
			if err := json.Unmarshal(val, &a.Value); err != nil {
				return err
			}
		case "doc_count":
			if err := json.Unmarshal(val, &a.DocCount); err != nil {
				return err
			}
		case "doc_count_error_upper_bound", "sum_other_doc_count", "value_as_string", "meta":
			// Bookkeeping fields, not sub-aggregations.
		default:
			var sub Agg
			if err := json.Unmarshal(val, &sub); err != nil {
				// Scalar metadata fields (e.g. "from"/"to" of range buckets)
				// are not aggregations; skip them.
				continue
			}
			if a.Sub == nil {
				a.Sub = Aggregations{}
			}
			a.Sub[key] = sub
		}
	}

	return nil
}

// UnmarshalJSON decodes a bucket: key and doc_count are lifted, other object
// fields become sub-aggregations.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var rawKey, rawKeyStr json.RawMessage

	for key, val := range raw {
		switch key {
		case "key":
			rawKey = val
		case "key_as_string":
			rawKeyStr = val
		case "doc_count":
			if err := json.Unmarshal(val, &b.DocCount); err != nil {
				return err
			}
		case "from", "to":
			// Range bucket bounds; the key already identifies the range.
		default:
			var sub Agg
			if err := json.Unmarshal(val, &sub); err != nil {
				continue
			}
			if b.Sub == nil {
				b.Sub = Aggregations{}
			}
			b.Sub[key] = sub
		}
	}

	// Prefer the string form of the key when the engine provides one
	// (booleans and dates come back as numbers otherwise).
	if rawKeyStr != nil {
		var s string
		if err := json.Unmarshal(rawKeyStr, &s); err == nil {
			b.Key = s
			return nil
		}
	}
	if rawKey != nil {
		if err := json.Unmarshal(rawKey, &b.Key); err != nil {
			return err
		}
	}

	return nil
}
