// Package export renders a record collection through a column list into
// delimited text or an XLSX workbook.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/datatable/internal/fields"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// DateLayout is the rendering of date cells.
const DateLayout = time.DateOnly

// Formatter renders one cell. It receives the resolved value (nil when the
// path is missing) and the whole record.
type Formatter func(value any, rec types.Record) string

// Column selects and formats one exported column. Location is the zone
// date cells render in; nil renders in UTC.
type Column struct {
	Path     string
	Label    string
	Kind     string
	Format   Formatter
	Location *time.Location
}

// FromConfig builds columns from declared export columns.
func FromConfig(cols []types.ExportColumn) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = Column{Path: c.Path, Label: c.Label, Kind: c.Kind}
	}
	return out
}

// Cell renders the column for rec.
func (c Column) Cell(rec types.Record) string {
	v, ok := fields.Lookup(rec, c.Path)
	if !ok {
		v = nil
	}
	if c.Format != nil {
		return c.Format(v, rec)
	}
	return formatDefault(v, c.Kind, c.Location)
}

// InLocation returns a copy of columns with Location set to loc on every
// column that has none.
func InLocation(columns []Column, loc *time.Location) []Column {
	out := make([]Column, len(columns))
	for i, c := range columns {
		if c.Location == nil {
			c.Location = loc
		}
		out[i] = c
	}
	return out
}

func formatDefault(v any, kind string, loc *time.Location) string {
	if v == nil {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, ok := v.(time.Time); ok {
		return t.In(loc).Format(DateLayout)
	}
	switch kind {
	case types.KindDate:
		if t, ok := fields.Timestamp(v, loc); ok {
			return t.In(loc).Format(DateLayout)
		}
	case types.KindCurrency:
		if n := fields.Number(v); n != fields.NegInf {
			return strconv.FormatFloat(n, 'f', 2, 64)
		}
	}
	return fields.String(v)
}

// Rows returns the header row followed by one row per record.
func Rows(records []types.Record, columns []Column) [][]string {
	rows := make([][]string, 0, len(records)+1)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	rows = append(rows, header)
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = c.Cell(rec)
		}
		rows = append(rows, row)
	}
	return rows
}

// ToDelimitedText renders comma-separated text with a header row. Lines are
// separated by "\n".
func ToDelimitedText(records []types.Record, columns []Column) string {
	return ToDelimitedTextWith(records, columns, ',')
}

// ToDelimitedTextWith renders delimited text using delim between fields.
func ToDelimitedTextWith(records []types.Record, columns []Column, delim rune) string {
	var b strings.Builder
	for i, row := range Rows(records, columns) {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteRune(delim)
			}
			b.WriteString(Escape(cell, delim))
		}
	}
	return b.String()
}

// Escape quotes a field that contains delim, a double quote, or a line
// break, doubling the quotes inside. Other fields are returned unchanged.
func Escape(field string, delim rune) string {
	if !strings.ContainsRune(field, delim) && !strings.ContainsAny(field, "\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Filename returns "{base}_{YYYY-MM-DD}.csv".
func Filename(base string, t time.Time) string {
	return filename(base, t, "csv")
}

// XLSXFilename returns "{base}_{YYYY-MM-DD}.xlsx".
func XLSXFilename(base string, t time.Time) string {
	return filename(base, t, "xlsx")
}

func filename(base string, t time.Time, ext string) string {
	return base + "_" + t.Format(DateLayout) + "." + ext
}
