package types

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sortable column value types.
const (
	ColumnString = "string"
	ColumnNumber = "number"
	ColumnDate   = "date"
)

// validColumnTypes is the set of recognized sortable column types.
var validColumnTypes = map[string]bool{
	ColumnString: true,
	ColumnNumber: true,
	ColumnDate:   true,
}

// Export column kinds select the default formatter.
const (
	KindText     = "text"
	KindDate     = "date"
	KindCurrency = "currency"
)

// Defaults applied by Normalize.
const (
	DefaultIDField  = "id"
	DefaultLocale   = "en"
	DefaultPageSize = 25
)

// PageSizeOptions lists the page sizes offered to the view layer.
var PageSizeOptions = []int{10, 25, 50, 100}

// StatusOption is one declared value of the status field. Declaration order
// is the pipeline order used when sorting by status.
type StatusOption struct {
	Value    string `yaml:"value" json:"value"`
	Label    string `yaml:"label" json:"label"`
	Terminal bool   `yaml:"terminal,omitempty" json:"terminal,omitempty"`
}

// SortableColumn declares a column the user may sort by.
type SortableColumn struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	Type  string `yaml:"type" json:"type"`
}

// ExportColumn declares one exported column. Path may be dot-separated.
type ExportColumn struct {
	Path  string `yaml:"path" json:"path"`
	Label string `yaml:"label" json:"label"`
	Kind  string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// TableConfig describes one table instance. It is supplied once and treated
// as immutable after Validate.
type TableConfig struct {
	InstanceID      string           `yaml:"instance_id" json:"instanceId"`
	SearchFields    []string         `yaml:"search_fields" json:"searchFields"`
	StatusField     string           `yaml:"status_field,omitempty" json:"statusField,omitempty"`
	StatusOptions   []StatusOption   `yaml:"status_options,omitempty" json:"statusOptions,omitempty"`
	DateField       string           `yaml:"date_field,omitempty" json:"dateField,omitempty"`
	SortableColumns []SortableColumn `yaml:"sortable_columns,omitempty" json:"sortableColumns,omitempty"`
	StorageKey      string           `yaml:"storage_key,omitempty" json:"storageKey,omitempty"`

	IDField         string         `yaml:"id_field,omitempty" json:"idField,omitempty"`
	Locale          string         `yaml:"locale,omitempty" json:"locale,omitempty"`
	FoldAccents     bool           `yaml:"fold_accents,omitempty" json:"foldAccents,omitempty"`
	DefaultPageSize int            `yaml:"default_page_size,omitempty" json:"defaultPageSize,omitempty"`
	ExportColumns   []ExportColumn `yaml:"export_columns,omitempty" json:"exportColumns,omitempty"`
	CacheKey        string         `yaml:"cache_key,omitempty" json:"cacheKey,omitempty"`
}

// Validate checks the structural parts of the config. Column keys that name
// fields absent from the data are not errors; they read as empty values.
func (c TableConfig) Validate() error {
	if c.InstanceID == "" {
		return ErrInstanceIDEmpty
	}
	if c.DefaultPageSize < 0 {
		return fmt.Errorf("%w: default page size %d", ErrInvalidPageSize, c.DefaultPageSize)
	}
	for _, col := range c.SortableColumns {
		if col.Key == "" {
			return ErrInvalidColumnKey
		}
		if !validColumnTypes[col.Type] {
			return fmt.Errorf("%w: %q on column %q", ErrInvalidColumnType, col.Type, col.Key)
		}
	}
	return nil
}

// Normalize returns a copy with defaults filled in.
func (c TableConfig) Normalize() TableConfig {
	if c.IDField == "" {
		c.IDField = DefaultIDField
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.DefaultPageSize == 0 {
		c.DefaultPageSize = DefaultPageSize
	}
	if len(c.StatusOptions) > 0 {
		opts := make([]StatusOption, len(c.StatusOptions))
		for i, opt := range c.StatusOptions {
			opt.Value = NormalizeStatus(opt.Value)
			opts[i] = opt
		}
		c.StatusOptions = opts
	}
	return c
}

// NormalizeStatus maps the legacy underscore encoding onto the hyphen one,
// so "in_progress" and "in-progress" compare equal.
func NormalizeStatus(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

// Column returns the sortable column declared for key.
func (c TableConfig) Column(key string) (SortableColumn, bool) {
	for _, col := range c.SortableColumns {
		if col.Key == key {
			return col, true
		}
	}
	return SortableColumn{}, false
}

// StatusIndex returns the declaration index of a status value, or -1 when
// the value is not declared. Both sides compare normalized.
func (c TableConfig) StatusIndex(value string) int {
	value = NormalizeStatus(value)
	for i, opt := range c.StatusOptions {
		if NormalizeStatus(opt.Value) == value {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether a status value is marked terminal.
func (c TableConfig) IsTerminal(value string) bool {
	value = NormalizeStatus(value)
	for _, opt := range c.StatusOptions {
		if NormalizeStatus(opt.Value) == value {
			return opt.Terminal
		}
	}
	return false
}

// HasTerminal reports whether any status option is terminal.
func (c TableConfig) HasTerminal() bool {
	for _, opt := range c.StatusOptions {
		if opt.Terminal {
			return true
		}
	}
	return false
}

// PaginationKey is the preference key holding the page size.
func (c TableConfig) PaginationKey() string {
	if c.StorageKey == "" {
		return ""
	}
	return c.StorageKey + ".pagination"
}

// ReadTableConfig reads and validates a YAML table config file without
// filling defaults.
func ReadTableConfig(path string) (TableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TableConfig{}, fmt.Errorf("read table config: %w", err)
	}
	var cfg TableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TableConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return TableConfig{}, err
	}
	return cfg, nil
}

// LoadTableConfig is ReadTableConfig followed by Normalize.
func LoadTableConfig(path string) (TableConfig, error) {
	cfg, err := ReadTableConfig(path)
	if err != nil {
		return TableConfig{}, err
	}
	return cfg.Normalize(), nil
}
