package types

import "errors"

// Record is one schema-less entity row (a lead, an invoice, a project).
// The engine only reads the field paths named in TableConfig.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Configuration errors returned by TableConfig.Validate and Registry.Register.
var (
	ErrInvalidConfig        = errors.New("invalid table config")
	ErrInstanceIDEmpty      = errors.New("instance id must not be empty")
	ErrInvalidColumnType    = errors.New("invalid sortable column type")
	ErrInvalidColumnKey     = errors.New("sortable column key must not be empty")
	ErrInvalidSortDirection = errors.New("invalid sort direction")
	ErrInvalidPageSize      = errors.New("page size must be positive")
	ErrDuplicateInstance    = errors.New("instance id already registered")
)

// Runtime errors.
var (
	ErrUnknownInstance = errors.New("unknown instance")
	ErrActionInFlight  = errors.New("bulk action already in flight")
	ErrNoSelection     = errors.New("no records selected")
	ErrNoFetcher       = errors.New("no fetch function configured")
	ErrProviderClosed  = errors.New("preference provider is closed")
	ErrUnknownProvider = errors.New("unknown preference provider")
)
