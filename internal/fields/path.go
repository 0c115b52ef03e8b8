package fields

import (
	"strings"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Get returns the top-level field of a record.
func Get(rec types.Record, key string) (any, bool) {
	if rec == nil || key == "" {
		return nil, false
	}
	v, ok := rec[key]
	return v, ok
}

// Lookup resolves a dot-separated path through nested maps. A missing
// intermediate key or a non-map intermediate value reports false.
// An exact top-level key wins over path splitting, so "client.name" stored
// flat is still found.
func Lookup(rec types.Record, path string) (any, bool) {
	if rec == nil || path == "" {
		return nil, false
	}
	if v, ok := rec[path]; ok {
		return v, true
	}
	var cur any = map[string]any(rec)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case types.Record:
		return m, true
	default:
		return nil, false
	}
}

// ID returns the record id as a string, or "" when absent.
func ID(rec types.Record, idField string) string {
	v, ok := Get(rec, idField)
	if !ok {
		return ""
	}
	return String(v)
}

// IDs returns the non-empty ids of records in order.
func IDs(records []types.Record, idField string) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if id := ID(rec, idField); id != "" {
			out = append(out, id)
		}
	}
	return out
}
