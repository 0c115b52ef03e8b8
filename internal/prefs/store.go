package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// pagination is the value stored under TableConfig.PaginationKey.
type pagination struct {
	PageSize int `json:"pageSize"`
}

// Store reads and writes the preferences of table instances. Tables without
// a storage key are never persisted. Unreadable values are logged and
// replaced by defaults.
type Store struct {
	p      Provider
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for load and save events.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a Store over p. A nil provider stores in memory.
func NewStore(p Provider, opts ...StoreOption) *Store {
	if p == nil {
		p = NewMemory()
	}
	s := &Store{p: p, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the underlying provider.
func (s *Store) Provider() Provider {
	return s.p
}

// LoadFilter returns the persisted filter state, or the default state and
// false when nothing usable is stored.
func (s *Store) LoadFilter(cfg types.TableConfig) (types.FilterState, bool) {
	def := types.DefaultFilterState()
	raw, ok := s.get(cfg.StorageKey)
	if !ok {
		return def, false
	}

	state := types.DefaultFilterState()
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logger.Warn("ignoring corrupt filter preference", "key", cfg.StorageKey, "error", err)
		return def, false
	}
	if err := state.Validate(); err != nil {
		s.logger.Warn("ignoring corrupt filter preference", "key", cfg.StorageKey, "error", err)
		return def, false
	}
	if state.StatusFilters == nil {
		state.StatusFilters = []string{}
	}
	if state.SortDirection == "" {
		state.SortDirection = types.SortDesc
	}
	s.logger.Debug("loaded filter preference", "key", cfg.StorageKey)
	return state, true
}

// SaveFilter persists state under the table's storage key.
func (s *Store) SaveFilter(cfg types.TableConfig, state types.FilterState) error {
	if cfg.StorageKey == "" {
		return nil
	}
	if state.StatusFilters == nil {
		state.StatusFilters = []string{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode filter state: %w", err)
	}
	if err := s.p.Set(cfg.StorageKey, string(data)); err != nil {
		return fmt.Errorf("save filter state %s: %w", cfg.StorageKey, err)
	}
	return nil
}

// LoadPageSize returns the persisted page size.
func (s *Store) LoadPageSize(cfg types.TableConfig) (int, bool) {
	key := cfg.PaginationKey()
	raw, ok := s.get(key)
	if !ok {
		return 0, false
	}
	var p pagination
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.PageSize <= 0 {
		s.logger.Warn("ignoring corrupt pagination preference", "key", key, "value", raw)
		return 0, false
	}
	return p.PageSize, true
}

// SavePageSize persists the page size. Only the size is stored.
func (s *Store) SavePageSize(cfg types.TableConfig, size int) error {
	key := cfg.PaginationKey()
	if key == "" {
		return nil
	}
	data, err := json.Marshal(pagination{PageSize: size})
	if err != nil {
		return fmt.Errorf("encode pagination: %w", err)
	}
	if err := s.p.Set(key, string(data)); err != nil {
		return fmt.Errorf("save pagination %s: %w", key, err)
	}
	return nil
}

// Reset deletes every preference of the table.
func (s *Store) Reset(cfg types.TableConfig) error {
	if cfg.StorageKey == "" {
		return nil
	}
	for _, key := range []string{cfg.StorageKey, cfg.PaginationKey()} {
		if err := s.p.Delete(key); err != nil {
			return fmt.Errorf("reset %s: %w", key, err)
		}
	}
	return nil
}

// Raw returns the stored strings for the table's keys, for display.
func (s *Store) Raw(cfg types.TableConfig) map[string]string {
	out := map[string]string{}
	if cfg.StorageKey == "" {
		return out
	}
	for _, key := range []string{cfg.StorageKey, cfg.PaginationKey()} {
		if v, ok := s.get(key); ok {
			out[key] = v
		}
	}
	return out
}

func (s *Store) get(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	v, ok, err := s.p.Get(key)
	if err != nil {
		s.logger.Warn("preference read failed", "key", key, "error", err)
		return "", false
	}
	return v, ok
}
