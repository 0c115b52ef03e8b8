package fields

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil is empty", in: nil, want: ""},
		{name: "string passes through", in: "Acme", want: "Acme"},
		{name: "integral float has no decimals", in: float64(42), want: "42"},
		{name: "fractional float", in: 12.5, want: "12.5"},
		{name: "int", in: 7, want: "7"},
		{name: "bool", in: true, want: "true"},
		{name: "json number", in: json.Number("3.14"), want: "3.14"},
		{name: "slice joins with commas", in: []any{"a", 1.0, nil}, want: "a,1,"},
		{name: "time uses RFC3339", in: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), want: "2024-03-01T09:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{name: "float", in: 1.5, want: 1.5},
		{name: "int", in: 3, want: 3},
		{name: "numeric string", in: " 42 ", want: 42},
		{name: "numeric prefix", in: "12.5kg", want: 12.5},
		{name: "exponent", in: "1e3", want: 1000},
		{name: "negative", in: "-4", want: -4},
		{name: "non-numeric string", in: "abc", want: NegInf},
		{name: "empty string", in: "", want: NegInf},
		{name: "nil", in: nil, want: NegInf},
		{name: "bool", in: true, want: NegInf},
		{name: "NaN", in: math.NaN(), want: NegInf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.in))
		})
	}
}

func TestTimestamp(t *testing.T) {
	loc := time.UTC

	t.Run("date only", func(t *testing.T) {
		got, ok := Timestamp("2024-05-06", loc)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, loc), got)
	})

	t.Run("RFC3339 with millis", func(t *testing.T) {
		got, ok := Timestamp("2024-05-06T23:59:59.999Z", loc)
		assert.True(t, ok)
		assert.Equal(t, 999*time.Millisecond, time.Duration(got.Nanosecond()))
	})

	t.Run("space separated", func(t *testing.T) {
		_, ok := Timestamp("2024-05-06 10:30:00", loc)
		assert.True(t, ok)
	})

	t.Run("unix millis", func(t *testing.T) {
		got, ok := Timestamp(float64(0), loc)
		assert.True(t, ok)
		assert.Equal(t, int64(0), got.UnixMilli())
	})

	t.Run("malformed", func(t *testing.T) {
		_, ok := Timestamp("not a date", loc)
		assert.False(t, ok)
		assert.Equal(t, NegInf, SortKey("not a date", loc))
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := Timestamp(nil, loc)
		assert.False(t, ok)
	})
}

func TestLookup(t *testing.T) {
	rec := types.Record{
		"name":        "Invoice 7",
		"client":      map[string]any{"name": "Acme", "address": map[string]any{"city": "Lyon"}},
		"flat.dotted": "kept",
		"count":       3.0,
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{name: "top level", path: "name", want: "Invoice 7", wantOK: true},
		{name: "nested", path: "client.name", want: "Acme", wantOK: true},
		{name: "deeply nested", path: "client.address.city", want: "Lyon", wantOK: true},
		{name: "flat dotted key wins", path: "flat.dotted", want: "kept", wantOK: true},
		{name: "missing intermediate", path: "project.name", wantOK: false},
		{name: "non-map intermediate", path: "count.value", wantOK: false},
		{name: "empty path", path: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(rec, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIDs(t *testing.T) {
	records := []types.Record{{"id": 1.0}, {"id": "b"}, {"name": "no id"}}
	assert.Equal(t, []string{"1", "b"}, IDs(records, "id"))
}

func TestStatus(t *testing.T) {
	cfg := &types.TableConfig{
		StatusField:   "status",
		StatusOptions: []types.StatusOption{{Value: "in-progress"}, {Value: "archived", Terminal: true}},
	}

	assert.Equal(t, "in-progress", Status(types.Record{"status": "in_progress"}, cfg))
	assert.Equal(t, "", Status(types.Record{}, cfg))
	assert.Equal(t, "", Status(types.Record{"status": "new"}, &types.TableConfig{}))
	assert.True(t, IsTerminal(types.Record{"status": "archived"}, cfg))
	assert.False(t, IsTerminal(types.Record{"status": "in_progress"}, cfg))
}

func TestFolder(t *testing.T) {
	assert.Equal(t, "café", NewFolder(false).Fold("CAFÉ"))
	assert.Equal(t, "cafe", NewFolder(true).Fold("CAFÉ"))
	assert.Equal(t, "sao paulo", NewFolder(true).Fold("São Paulo"))
	assert.Equal(t, "", NewFolder(true).Fold(""))
}
