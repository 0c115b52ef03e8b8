// Package order sorts record collections by one column with a terminal-status
// tie-break. Apply is stable and never mutates its input.
package order

import (
	"cmp"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/datatable/internal/fields"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// compareFunc compares two records by the active column, ascending.
type compareFunc func(a, b types.Record) int

// Apply sorts records reading zone-less dates in UTC.
func Apply(records []types.Record, state types.FilterState, cfg *types.TableConfig) []types.Record {
	return ApplyIn(records, state, cfg, time.UTC)
}

// ApplyIn sorts a copy of records by state.SortColumn in state.SortDirection.
// Records with a terminal status always follow non-terminal ones, in either
// direction and also when no column is set.
func ApplyIn(records []types.Record, state types.FilterState, cfg *types.TableConfig, loc *time.Location) []types.Record {
	if cfg == nil {
		cfg = &types.TableConfig{}
	}
	out := slices.Clone(records)
	if out == nil {
		out = []types.Record{}
	}

	terminal := cfg.HasTerminal()
	primary := comparator(state.SortColumn, cfg, loc)
	if !terminal && primary == nil {
		return out
	}
	desc := state.Descending()

	slices.SortStableFunc(out, func(a, b types.Record) int {
		if terminal {
			if c := cmp.Compare(rank(a, cfg), rank(b, cfg)); c != 0 {
				return c
			}
		}
		if primary == nil {
			return 0
		}
		c := primary(a, b)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func rank(rec types.Record, cfg *types.TableConfig) int {
	if fields.IsTerminal(rec, cfg) {
		return 1
	}
	return 0
}

// comparator resolves the comparison for column. The status field compares
// by declaration order; other undeclared columns compare as strings.
func comparator(column string, cfg *types.TableConfig, loc *time.Location) compareFunc {
	if column == "" {
		return nil
	}
	if cfg.StatusField != "" && column == cfg.StatusField {
		return func(a, b types.Record) int {
			return cmp.Compare(cfg.StatusIndex(fields.Status(a, cfg)), cfg.StatusIndex(fields.Status(b, cfg)))
		}
	}

	kind := types.ColumnString
	if col, ok := cfg.Column(column); ok {
		kind = col.Type
	}
	switch kind {
	case types.ColumnNumber:
		return func(a, b types.Record) int {
			return cmp.Compare(fields.Number(a[column]), fields.Number(b[column]))
		}
	case types.ColumnDate:
		return func(a, b types.Record) int {
			return cmp.Compare(fields.SortKey(a[column], loc), fields.SortKey(b[column], loc))
		}
	default:
		// Collators keep internal buffers; this one is owned by a single Apply call.
		c := collate.New(localeTag(cfg.Locale))
		return func(a, b types.Record) int {
			return c.CompareString(fields.String(a[column]), fields.String(b[column]))
		}
	}
}

func localeTag(locale string) language.Tag {
	if locale == "" {
		locale = types.DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und
	}
	return tag
}

// Toggle returns the state after the user activates column: a new column
// sorts descending, and the active column flips direction.
func Toggle(state types.FilterState, column string) types.FilterState {
	out := state.Clone()
	if out.SortColumn != column {
		out.SortColumn = column
		out.SortDirection = types.SortDesc
		return out
	}
	if out.Descending() {
		out.SortDirection = types.SortAsc
	} else {
		out.SortDirection = types.SortDesc
	}
	return out
}
