package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  TableConfig
		wantErr error
	}{
		{
			name:    "empty instance id returns ErrInstanceIDEmpty",
			config:  TableConfig{},
			wantErr: ErrInstanceIDEmpty,
		},
		{
			name: "unknown column type returns ErrInvalidColumnType",
			config: TableConfig{
				InstanceID:      "leads",
				SortableColumns: []SortableColumn{{Key: "name", Type: "text"}},
			},
			wantErr: ErrInvalidColumnType,
		},
		{
			name: "empty column key returns ErrInvalidColumnKey",
			config: TableConfig{
				InstanceID:      "leads",
				SortableColumns: []SortableColumn{{Type: ColumnString}},
			},
			wantErr: ErrInvalidColumnKey,
		},
		{
			name:    "negative default page size returns ErrInvalidPageSize",
			config:  TableConfig{InstanceID: "leads", DefaultPageSize: -1},
			wantErr: ErrInvalidPageSize,
		},
		{
			name: "column referencing a missing field is valid",
			config: TableConfig{
				InstanceID:      "leads",
				SortableColumns: []SortableColumn{{Key: "does_not_exist", Type: ColumnNumber}},
			},
		},
		{
			name:   "minimal config is valid",
			config: TableConfig{InstanceID: "leads"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTableConfigNormalize(t *testing.T) {
	cfg := TableConfig{InstanceID: "leads"}.Normalize()
	assert.Equal(t, DefaultIDField, cfg.IDField)
	assert.Equal(t, DefaultLocale, cfg.Locale)
	assert.Equal(t, DefaultPageSize, cfg.DefaultPageSize)

	kept := TableConfig{InstanceID: "leads", IDField: "uuid", DefaultPageSize: 10}.Normalize()
	assert.Equal(t, "uuid", kept.IDField)
	assert.Equal(t, 10, kept.DefaultPageSize)
}

func TestTableConfigStatusHelpers(t *testing.T) {
	cfg := TableConfig{
		InstanceID: "projects",
		StatusOptions: []StatusOption{
			{Value: "planning"},
			{Value: "in-progress"},
			{Value: "archived", Terminal: true},
		},
	}

	assert.Equal(t, 1, cfg.StatusIndex("in-progress"))
	assert.Equal(t, -1, cfg.StatusIndex("unknown"))
	assert.True(t, cfg.IsTerminal("archived"))
	assert.False(t, cfg.IsTerminal("planning"))
	assert.True(t, cfg.HasTerminal())
	assert.False(t, TableConfig{}.HasTerminal())
}

func TestTableConfigNormalizeStatusOptions(t *testing.T) {
	raw := TableConfig{
		InstanceID: "leads",
		StatusOptions: []StatusOption{
			{Value: "new"},
			{Value: "in_progress"},
			{Value: "closed_lost", Terminal: true},
		},
	}
	cfg := raw.Normalize()

	assert.Equal(t, "in-progress", cfg.StatusOptions[1].Value)
	assert.Equal(t, "closed-lost", cfg.StatusOptions[2].Value)
	assert.Equal(t, "in_progress", raw.StatusOptions[1].Value, "normalize must not mutate the receiver")

	for _, c := range []TableConfig{raw, cfg} {
		assert.Equal(t, 1, c.StatusIndex("in-progress"))
		assert.Equal(t, 1, c.StatusIndex("in_progress"))
		assert.True(t, c.IsTerminal("closed-lost"))
		assert.True(t, c.IsTerminal("closed_lost"))
		assert.False(t, c.IsTerminal("new"))
	}
}

func TestTableConfigPaginationKey(t *testing.T) {
	assert.Equal(t, "", TableConfig{}.PaginationKey())
	assert.Equal(t, "leads_filters.pagination", TableConfig{StorageKey: "leads_filters"}.PaginationKey())
}

func TestLoadTableConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("decodes yaml and fills defaults", func(t *testing.T) {
		path := filepath.Join(dir, "leads.yaml")
		content := `instance_id: leads
storage_key: admin_leads
search_fields: [name, email]
status_field: status
status_options:
  - {value: new, label: New}
  - {value: lost, label: Lost, terminal: true}
date_field: created_at
sortable_columns:
  - {key: name, label: Name, type: string}
  - {key: created_at, label: Created, type: date}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadTableConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "leads", cfg.InstanceID)
		assert.Equal(t, []string{"name", "email"}, cfg.SearchFields)
		assert.True(t, cfg.IsTerminal("lost"))
		assert.Equal(t, DefaultIDField, cfg.IDField)
		col, ok := cfg.Column("created_at")
		assert.True(t, ok)
		assert.Equal(t, ColumnDate, col.Type)
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("instance_id: [unterminated"), 0o644))

		_, err := LoadTableConfig(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("rejects config without instance id", func(t *testing.T) {
		path := filepath.Join(dir, "anon.yaml")
		require.NoError(t, os.WriteFile(path, []byte("search_fields: [name]\n"), 0o644))

		_, err := LoadTableConfig(path)
		assert.ErrorIs(t, err, ErrInstanceIDEmpty)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTableConfig(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("read leaves defaults unset", func(t *testing.T) {
		path := filepath.Join(dir, "bare.yaml")
		require.NoError(t, os.WriteFile(path, []byte("instance_id: bare\n"), 0o644))

		cfg, err := ReadTableConfig(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.Locale)
		assert.Zero(t, cfg.DefaultPageSize)
	})
}

func TestFilterStateHelpers(t *testing.T) {
	s := DefaultFilterState()
	assert.True(t, s.Descending())
	assert.NotNil(t, s.StatusFilters)
	assert.NoError(t, s.Validate())

	s.StatusFilters = append(s.StatusFilters, "new")
	clone := s.Clone()
	clone.StatusFilters[0] = "changed"
	assert.Equal(t, "new", s.StatusFilters[0])

	s.SortDirection = "sideways"
	assert.ErrorIs(t, s.Validate(), ErrInvalidSortDirection)

	s.SortDirection = SortAsc
	assert.False(t, s.Descending())
}
