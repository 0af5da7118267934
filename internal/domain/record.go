package domain

import "strings"

// DefaultIDField is the identifier field present on every record.
const DefaultIDField = "id"

// Record is an open mapping from field name to value, as stored in the
// tree. Values are the usual JSON kinds: string, number, bool, nil,
// nested mapping, or sequence. Every record carries a unique identifier
// field.
type Record map[string]any

// At resolves a dotted field path ("address.city") against the record.
// Each segment indexes into the current value's mapping; a missing
// segment at any level reports absent (nil, false).
func (r Record) At(path string) (any, bool) {
	var cur any = map[string]any(r)
	for path != "" {
		seg, rest, _ := strings.Cut(path, ".")
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
		path = rest
	}
	return cur, true
}

// ID returns the record's identifier rendered as a string, or "" when
// the field is absent.
func (r Record) ID(field string) string {
	v, ok := r.At(field)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
