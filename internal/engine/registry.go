// Package engine wires the filter, sort, paging, selection, export, cache
// and preference components into per-table instances held by a Registry.
//
// Every piece of mutable state is owned by exactly one Instance, keyed by
// its instance id. Two instances never share filter, paging or selection
// state, even when they display the same records.
package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mesh-intelligence/datatable/internal/cache"
	"github.com/mesh-intelligence/datatable/internal/filter"
	"github.com/mesh-intelligence/datatable/internal/prefs"
	"github.com/mesh-intelligence/datatable/internal/selection"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Registry holds the table instances of one engine.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance

	prefs     *prefs.Store
	cache     *cache.Cache
	selection *selection.Manager
	fetch     cache.FetchFunc
	logger    *slog.Logger
	loc       *time.Location
	debounce  time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithPreferences sets the preference store. The default keeps preferences
// in memory.
func WithPreferences(s *prefs.Store) Option {
	return func(r *Registry) {
		if s != nil {
			r.prefs = s
		}
	}
}

// WithCache sets the read-through cache shared by all instances.
func WithCache(c *cache.Cache) Option {
	return func(r *Registry) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithFetcher sets the function Refresh calls on a cache miss.
func WithFetcher(f cache.FetchFunc) Option {
	return func(r *Registry) { r.fetch = f }
}

// WithSelection sets the selection manager.
func WithSelection(m *selection.Manager) Option {
	return func(r *Registry) {
		if m != nil {
			r.selection = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLocation sets the zone used for zone-less dates and date bounds.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithSearchDebounce overrides the search debounce interval.
func WithSearchDebounce(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// New returns an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		instances: map[string]*Instance{},
		logger:    slog.New(slog.DiscardHandler),
		loc:       time.UTC,
		debounce:  filter.SearchDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.prefs == nil {
		r.prefs = prefs.NewStore(prefs.NewMemory(), prefs.WithLogger(r.logger))
	}
	if r.cache == nil {
		r.cache = cache.New(cache.WithLogger(r.logger))
	}
	if r.selection == nil {
		r.selection = selection.NewManager(selection.WithLogger(r.logger))
	}
	return r
}

// Cache returns the shared cache.
func (r *Registry) Cache() *cache.Cache {
	return r.cache
}

// Preferences returns the preference store.
func (r *Registry) Preferences() *prefs.Store {
	return r.prefs
}

// Register validates cfg and creates its instance, hydrating filter state
// and page size from the preference store.
func (r *Registry) Register(cfg types.TableConfig) (*Instance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("register table: %w", err)
	}
	cfg = cfg.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[cfg.InstanceID]; ok {
		return nil, fmt.Errorf("register %s: %w", cfg.InstanceID, types.ErrDuplicateInstance)
	}
	inst := newInstance(r, cfg)
	r.instances[cfg.InstanceID] = inst
	r.logger.Debug("registered table", "instance", cfg.InstanceID, "storage_key", cfg.StorageKey)
	return inst, nil
}

// Unregister drops the instance and its selection. Persisted preferences are
// kept.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	inst, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()
	if ok {
		inst.stop()
		r.selection.Clear(id)
	}
}

// Instance returns the registered instance.
func (r *Registry) Instance(id string) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownInstance, id)
	}
	return inst, nil
}

// IDs returns the registered instance ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
