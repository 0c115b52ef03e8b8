package prefs

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

func leadsConfig() types.TableConfig {
	return types.TableConfig{InstanceID: "leads", StorageKey: "admin.leads"}
}

func TestFilterRoundTrip(t *testing.T) {
	mem := NewMemory()
	s := NewStore(mem)
	cfg := leadsConfig()

	_, ok := s.LoadFilter(cfg)
	assert.False(t, ok)

	want := types.FilterState{
		SearchTerm:    "acme",
		StatusFilters: []string{"new", "in-progress"},
		DateStart:     "2024-01-01",
		SortColumn:    "name",
		SortDirection: types.SortAsc,
	}
	require.NoError(t, s.SaveFilter(cfg, want))

	raw, ok, err := mem.Get("admin.leads")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"searchTerm":"acme","statusFilters":["new","in-progress"],"dateStart":"2024-01-01","dateEnd":"","sortColumn":"name","sortDirection":"asc"}`, raw)

	got, ok := s.LoadFilter(cfg)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestPageSizeRoundTrip(t *testing.T) {
	mem := NewMemory()
	s := NewStore(mem)
	cfg := leadsConfig()

	require.NoError(t, s.SavePageSize(cfg, 50))
	raw, _, _ := mem.Get("admin.leads.pagination")
	assert.JSONEq(t, `{"pageSize":50}`, raw)

	size, ok := s.LoadPageSize(cfg)
	assert.True(t, ok)
	assert.Equal(t, 50, size)
}

func TestNoStorageKeyDisablesPersistence(t *testing.T) {
	mem := NewMemory()
	s := NewStore(mem)
	cfg := types.TableConfig{InstanceID: "scratch"}

	require.NoError(t, s.SaveFilter(cfg, types.DefaultFilterState()))
	require.NoError(t, s.SavePageSize(cfg, 10))
	require.NoError(t, s.Reset(cfg))
	assert.Empty(t, mem.values)
	assert.Empty(t, s.Raw(cfg))
}

func TestCorruptValuesFallBackToDefaults(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "filter not json", key: "admin.leads", value: "{oops"},
		{name: "filter wrong shape", key: "admin.leads", value: `{"statusFilters":"new"}`},
		{name: "filter bad direction", key: "admin.leads", value: `{"sortDirection":"sideways"}`},
		{name: "page size zero", key: "admin.leads.pagination", value: `{"pageSize":0}`},
		{name: "page size text", key: "admin.leads.pagination", value: `"fifty"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemory()
			require.NoError(t, mem.Set(tt.key, tt.value))
			var logs bytes.Buffer
			s := NewStore(mem, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

			state, _ := s.LoadFilter(leadsConfig())
			assert.Equal(t, types.DefaultFilterState(), state)
			_, ok := s.LoadPageSize(leadsConfig())
			assert.False(t, ok)
			assert.Contains(t, logs.String(), "level=WARN")
		})
	}
}

func TestPartialFilterGetsDefaults(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.Set("admin.leads", `{"searchTerm":"x","statusFilters":null}`))
	got, ok := NewStore(mem).LoadFilter(leadsConfig())
	require.True(t, ok)
	assert.Equal(t, "x", got.SearchTerm)
	assert.Equal(t, []string{}, got.StatusFilters)
	assert.Equal(t, types.SortDesc, got.SortDirection)
}

func TestResetAndRaw(t *testing.T) {
	s := NewStore(nil)
	cfg := leadsConfig()
	require.NoError(t, s.SaveFilter(cfg, types.DefaultFilterState()))
	require.NoError(t, s.SavePageSize(cfg, 10))
	assert.Len(t, s.Raw(cfg), 2)

	require.NoError(t, s.Reset(cfg))
	assert.Empty(t, s.Raw(cfg))
}

type failingProvider struct{ err error }

func (f failingProvider) Get(string) (string, bool, error) { return "", false, f.err }
func (f failingProvider) Set(string, string) error         { return f.err }
func (f failingProvider) Delete(string) error              { return f.err }

func TestProviderErrors(t *testing.T) {
	boom := errors.New("disk full")
	s := NewStore(failingProvider{err: boom})
	cfg := leadsConfig()

	state, ok := s.LoadFilter(cfg)
	assert.False(t, ok)
	assert.Equal(t, types.DefaultFilterState(), state)

	assert.ErrorIs(t, s.SaveFilter(cfg, state), boom)
	assert.ErrorIs(t, s.SavePageSize(cfg, 10), boom)
	assert.ErrorIs(t, s.Reset(cfg), boom)
}
