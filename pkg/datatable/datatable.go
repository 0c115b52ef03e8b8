// Package datatable is the public entry point to the table engine: create a
// Registry, register one TableConfig per displayed table, feed it records
// and read back the visible page, selection and exports.
//
//	reg := datatable.New(datatable.WithPreferences(store))
//	leads, err := reg.Register(cfg)
//	leads.SetRecords(rows)
//	page := leads.VisiblePage()
package datatable

import (
	"github.com/mesh-intelligence/datatable/internal/cache"
	"github.com/mesh-intelligence/datatable/internal/engine"
	"github.com/mesh-intelligence/datatable/internal/export"
	"github.com/mesh-intelligence/datatable/internal/paging"
	"github.com/mesh-intelligence/datatable/internal/prefs"
	"github.com/mesh-intelligence/datatable/internal/selection"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Version is the library version.
const Version = "0.1.0"

type (
	Registry = engine.Registry
	Instance = engine.Instance
	Option   = engine.Option

	Cache     = cache.Cache
	FetchFunc = cache.FetchFunc

	PreferenceStore = prefs.Store
	Provider        = prefs.Provider

	Action    = selection.Action
	Handler   = selection.Handler
	Confirmer = selection.Confirmer
	Result    = selection.Result
	Status    = selection.Status

	ExportColumn = export.Column
	Formatter    = export.Formatter

	Record           = types.Record
	TableConfig      = types.TableConfig
	FilterState      = types.FilterState
	PaginationState  = types.PaginationState
	SelectionSummary = types.SelectionSummary
)

// Bulk action outcomes.
const (
	Skipped   = selection.Skipped
	Aborted   = selection.Aborted
	Busy      = selection.Busy
	Succeeded = selection.Succeeded
	Failed    = selection.Failed
)

// Ellipsis marks a gap in Instance.PageNumbers.
const Ellipsis = paging.Ellipsis

var (
	New                = engine.New
	WithPreferences    = engine.WithPreferences
	WithCache          = engine.WithCache
	WithFetcher        = engine.WithFetcher
	WithLogger         = engine.WithLogger
	WithLocation       = engine.WithLocation
	WithSearchDebounce = engine.WithSearchDebounce

	NewCache = cache.New

	ToDelimitedText = export.ToDelimitedText
	Filename        = export.Filename
)

// NewPreferenceStore returns a store over p. A nil provider keeps
// preferences in memory.
func NewPreferenceStore(p Provider) *PreferenceStore {
	return prefs.NewStore(p)
}

// OpenPreferences opens a named provider ("memory", "json", "sqlite" or
// "badger") under dataDir and wraps it in a store. The returned close
// function releases the provider.
func OpenPreferences(backend, dataDir string) (*PreferenceStore, func() error, error) {
	b, err := prefs.Open(backend, dataDir)
	if err != nil {
		return nil, nil, err
	}
	return prefs.NewStore(b), b.Close, nil
}

// LoadTableConfig reads a YAML table config.
func LoadTableConfig(path string) (TableConfig, error) {
	return types.LoadTableConfig(path)
}
