package filter

import (
	"slices"
	"time"

	"github.com/mesh-intelligence/datatable/internal/fields"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// SearchDebounce is how long callers wait after the last keystroke before
// applying a new search term.
const SearchDebounce = 200 * time.Millisecond

// WithSearch returns s with a new search term.
func WithSearch(s types.FilterState, term string) types.FilterState {
	out := s.Clone()
	out.SearchTerm = term
	return out
}

// WithStatusToggled adds value to the status selection, or removes it when
// already selected.
func WithStatusToggled(s types.FilterState, value string) types.FilterState {
	out := s.Clone()
	value = fields.NormalizeStatus(value)
	if i := slices.Index(out.StatusFilters, value); i >= 0 {
		out.StatusFilters = slices.Delete(out.StatusFilters, i, i+1)
		return out
	}
	out.StatusFilters = append(out.StatusFilters, value)
	return out
}

// WithStatusFilters replaces the status selection. Duplicates are dropped.
func WithStatusFilters(s types.FilterState, values []string) types.FilterState {
	out := s.Clone()
	out.StatusFilters = make([]string, 0, len(values))
	for _, v := range values {
		v = fields.NormalizeStatus(v)
		if !slices.Contains(out.StatusFilters, v) {
			out.StatusFilters = append(out.StatusFilters, v)
		}
	}
	return out
}

// WithDateRange sets both date bounds. Empty strings clear a bound.
func WithDateRange(s types.FilterState, start, end string) types.FilterState {
	out := s.Clone()
	out.DateStart = start
	out.DateEnd = end
	return out
}

// Cleared drops search, status and date filters but keeps the sort.
func Cleared(s types.FilterState) types.FilterState {
	out := types.DefaultFilterState()
	out.SortColumn = s.SortColumn
	out.SortDirection = s.SortDirection
	return out
}

// Active reports whether any filter (not sort) is set.
func Active(s types.FilterState) bool {
	return s.SearchTerm != "" || len(s.StatusFilters) > 0 || s.DateStart != "" || s.DateEnd != ""
}
