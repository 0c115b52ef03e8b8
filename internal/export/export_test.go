package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

func invoiceColumns() []Column {
	return []Column{
		{Path: "number", Label: "Invoice"},
		{Path: "client.name", Label: "Client"},
		{Path: "total", Label: "Total", Kind: types.KindCurrency},
		{Path: "issued_at", Label: "Issued", Kind: types.KindDate},
		{Path: "note", Label: "Note"},
	}
}

func invoices() []types.Record {
	return []types.Record{
		{
			"number":    "INV-1",
			"client":    map[string]any{"name": "Acme, Inc."},
			"total":     1200.5,
			"issued_at": "2024-03-01T15:04:05Z",
			"note":      `He said "hi", then left`,
		},
		{
			"number":    "INV-2",
			"total":     "n/a",
			"issued_at": time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC),
			"note":      "line one\nline two",
		},
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Acme", want: "Acme"},
		{name: "quote and comma", in: `He said "hi", then left`, want: `"He said ""hi"", then left"`},
		{name: "newline", in: "a\nb", want: "\"a\nb\""},
		{name: "carriage return", in: "a\rb", want: "\"a\rb\""},
		{name: "leading space stays bare", in: " padded", want: " padded"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in, ','))
		})
	}
	assert.Equal(t, `"a;b"`, Escape("a;b", ';'))
	assert.Equal(t, "a,b", Escape("a,b", ';'))
}

func TestToDelimitedText(t *testing.T) {
	got := ToDelimitedText(invoices(), invoiceColumns())
	lines := strings.SplitN(got, "\n", 2)
	assert.Equal(t, "Invoice,Client,Total,Issued,Note", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `INV-1,"Acme, Inc.",1200.50,2024-03-01,"He said ""hi"", then left"`))
}

func TestRoundTrip(t *testing.T) {
	records := invoices()
	out := ToDelimitedText(records, invoiceColumns())

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"INV-1", "Acme, Inc.", "1200.50", "2024-03-01", `He said "hi", then left`}, rows[1])
	assert.Equal(t, []string{"INV-2", "", "n/a", "2024-04-02", "line one\nline two"}, rows[2])
}

func TestDateCellLocation(t *testing.T) {
	east := time.FixedZone("UTC+2", 2*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)
	rec := types.Record{
		"issued_at": "2024-03-01T22:30:00Z",
		"paid_at":   time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC),
		"sent_at":   "2024-03-02",
	}

	tests := []struct {
		name string
		path string
		loc  *time.Location
		want string
	}{
		{name: "utc when unset", path: "issued_at", want: "2024-03-01"},
		{name: "string crosses midnight east", path: "issued_at", loc: east, want: "2024-03-02"},
		{name: "time value crosses midnight east", path: "paid_at", loc: east, want: "2024-03-02"},
		{name: "date-only string keeps its day", path: "sent_at", loc: west, want: "2024-03-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := Column{Path: tt.path, Label: "Date", Kind: types.KindDate, Location: tt.loc}
			assert.Equal(t, tt.want, col.Cell(rec))
		})
	}
}

func TestInLocation(t *testing.T) {
	east := time.FixedZone("UTC+2", 2*60*60)
	own := time.FixedZone("UTC+9", 9*60*60)
	cols := InLocation([]Column{{Path: "a"}, {Path: "b", Location: own}}, east)
	assert.Equal(t, east, cols[0].Location)
	assert.Equal(t, own, cols[1].Location)
}

func TestDelimiter(t *testing.T) {
	out := ToDelimitedTextWith([]types.Record{{"a": "x;y", "b": "z"}}, []Column{{Path: "a", Label: "A"}, {Path: "b", Label: "B"}}, ';')
	assert.Equal(t, "A;B\n\"x;y\";z", out)
}

func TestCustomFormatter(t *testing.T) {
	cols := []Column{{
		Path:  "status",
		Label: "Status",
		Format: func(v any, rec types.Record) string {
			if v == nil {
				return "unknown"
			}
			return strings.ToUpper(v.(string)) + "/" + rec["id"].(string)
		},
	}}
	out := ToDelimitedText([]types.Record{{"id": "1", "status": "paid"}, {"id": "2"}}, cols)
	assert.Equal(t, "Status\nPAID/1\nunknown", out)
}

func TestEmptyCollectionHasHeader(t *testing.T) {
	assert.Equal(t, "Invoice,Client,Total,Issued,Note", ToDelimitedText(nil, invoiceColumns()))
}

func TestFromConfig(t *testing.T) {
	cols := FromConfig([]types.ExportColumn{{Path: "client.name", Label: "Client", Kind: types.KindText}})
	require.Len(t, cols, 1)
	assert.Equal(t, "Acme", cols[0].Cell(types.Record{"client": map[string]any{"name": "Acme"}}))
	assert.Equal(t, "", cols[0].Cell(types.Record{"client": "flat"}))
}

func TestFilename(t *testing.T) {
	day := time.Date(2024, 7, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "invoices_2024-07-09.csv", Filename("invoices", day))
	assert.Equal(t, "invoices_2024-07-09.xlsx", XLSXFilename("invoices", day))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, invoices(), invoiceColumns(), "Invoices"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Invoices"}, f.GetSheetList())
	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Invoice", "Client", "Total", "Issued", "Note"}, rows[0])
	assert.Equal(t, []string{"INV-1", "Acme, Inc.", "1200.50", "2024-03-01", `He said "hi", then left`}, rows[1])
}

func TestWriteXLSXDefaultSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, invoiceColumns(), ""))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())
}
