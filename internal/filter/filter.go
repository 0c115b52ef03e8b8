// Package filter narrows a record collection by text search, status and a
// date range, in that order. Apply never mutates its input.
package filter

import (
	"strings"
	"time"

	"github.com/mesh-intelligence/datatable/internal/fields"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Apply filters records using UTC for date interpretation.
func Apply(records []types.Record, state types.FilterState, cfg *types.TableConfig) []types.Record {
	return ApplyIn(records, state, cfg, time.UTC)
}

// ApplyIn filters records, reading zone-less dates and the range bounds in
// loc. Each step runs on the previous step's output.
func ApplyIn(records []types.Record, state types.FilterState, cfg *types.TableConfig, loc *time.Location) []types.Record {
	if cfg == nil {
		cfg = &types.TableConfig{}
	}
	out := make([]types.Record, 0, len(records))
	out = append(out, records...)

	out = bySearch(out, state.SearchTerm, cfg)
	out = byStatus(out, state.StatusFilters, cfg)
	out = byDate(out, state.DateStart, state.DateEnd, cfg.DateField, loc)
	return out
}

// bySearch keeps records where the folded term is a substring of any search
// field. Missing fields read as "".
func bySearch(records []types.Record, term string, cfg *types.TableConfig) []types.Record {
	term = strings.TrimSpace(term)
	if term == "" {
		return records
	}
	folder := fields.NewFolder(cfg.FoldAccents)
	needle := folder.Fold(term)

	kept := records[:0:0]
	for _, rec := range records {
		if matchesSearch(rec, needle, cfg.SearchFields, folder) {
			kept = append(kept, rec)
		}
	}
	return kept
}

func matchesSearch(rec types.Record, needle string, searchFields []string, folder *fields.Folder) bool {
	for _, field := range searchFields {
		v, ok := fields.Get(rec, field)
		if !ok {
			continue
		}
		if strings.Contains(folder.Fold(fields.String(v)), needle) {
			return true
		}
	}
	return false
}

// byStatus keeps records whose normalized status is selected. An empty
// selection keeps everything.
func byStatus(records []types.Record, selected []string, cfg *types.TableConfig) []types.Record {
	if len(selected) == 0 {
		return records
	}
	want := make(map[string]bool, len(selected))
	for _, s := range selected {
		want[fields.NormalizeStatus(s)] = true
	}

	kept := records[:0:0]
	for _, rec := range records {
		if want[fields.Status(rec, cfg)] {
			kept = append(kept, rec)
		}
	}
	return kept
}

// byDate keeps records dated within [start 00:00:00.000, end 23:59:59.999].
// Unset or malformed bounds are unbounded. While any bound is active, records
// without a readable date are dropped.
func byDate(records []types.Record, start, end, dateField string, loc *time.Location) []types.Record {
	lo, hasLo := StartOfDay(start, loc)
	hi, hasHi := EndOfDay(end, loc)
	if !hasLo && !hasHi {
		return records
	}

	kept := records[:0:0]
	for _, rec := range records {
		v, _ := fields.Get(rec, dateField)
		t, ok := fields.Timestamp(v, loc)
		if !ok {
			continue
		}
		if hasLo && t.Before(lo) {
			continue
		}
		if hasHi && t.After(hi) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// StartOfDay parses a bound and returns midnight of its day in loc.
func StartOfDay(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, ok := fields.ParseTime(s, loc)
	if !ok {
		return time.Time{}, false
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}

// EndOfDay parses a bound and returns the last millisecond of its day in loc.
func EndOfDay(s string, loc *time.Location) (time.Time, bool) {
	day, ok := StartOfDay(s, loc)
	if !ok {
		return time.Time{}, false
	}
	return day.AddDate(0, 0, 1).Add(-time.Millisecond), true
}
