// Package selection tracks which record ids each table instance has
// selected and runs bulk actions over a selection.
//
// A Manager is shared by every instance of an engine; its state is keyed by
// instance id and no instance reads or writes another instance's entries.
package selection

import (
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// idSet is an insertion-ordered set of ids.
type idSet struct {
	order []string
	index map[string]struct{}
}

func newIDSet() *idSet {
	return &idSet{index: map[string]struct{}{}}
}

func (s *idSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *idSet) add(id string) {
	if s.has(id) {
		return
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *idSet) remove(id string) {
	if !s.has(id) {
		return
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *idSet) ids() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Manager holds per-instance selections and in-flight bulk actions.
type Manager struct {
	mu       sync.Mutex
	sets     map[string]*idSet
	inFlight map[flightKey]string
	logger   *slog.Logger
}

type flightKey struct {
	instance string
	action   string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for bulk action events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sets:     map[string]*idSet{},
		inFlight: map[flightKey]string{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// set returns the instance's set, creating it. Callers hold m.mu.
func (m *Manager) set(instanceID string) *idSet {
	s, ok := m.sets[instanceID]
	if !ok {
		s = newIDSet()
		m.sets[instanceID] = s
	}
	return s
}

// Toggle flips the membership of one id.
func (m *Manager) Toggle(instanceID, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.set(instanceID)
	if s.has(id) {
		s.remove(id)
		return
	}
	s.add(id)
}

// Select adds ids without touching the rest of the selection.
func (m *Manager) Select(instanceID string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.set(instanceID)
	for _, id := range ids {
		s.add(id)
	}
}

// ToggleAll selects exactly filteredIDs, or clears the selection when every
// filtered id is already selected.
func (m *Manager) ToggleAll(instanceID string, filteredIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if allIn(m.set(instanceID), filteredIDs) {
		m.sets[instanceID] = newIDSet()
		return
	}
	s := newIDSet()
	for _, id := range filteredIDs {
		s.add(id)
	}
	m.sets[instanceID] = s
}

// Clear empties the instance's selection.
func (m *Manager) Clear(instanceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, instanceID)
}

// Prune drops selected ids that are no longer in sourceIDs and returns how
// many were dropped.
func (m *Manager) Prune(instanceID string, sourceIDs []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[instanceID]
	if !ok || len(s.order) == 0 {
		return 0
	}
	present := make(map[string]struct{}, len(sourceIDs))
	for _, id := range sourceIDs {
		present[id] = struct{}{}
	}
	kept := newIDSet()
	for _, id := range s.order {
		if _, ok := present[id]; ok {
			kept.add(id)
		}
	}
	dropped := len(s.order) - len(kept.order)
	m.sets[instanceID] = kept
	if dropped > 0 {
		m.logger.Debug("pruned selection", "instance", instanceID, "dropped", dropped)
	}
	return dropped
}

// Selected returns the selected ids in selection order.
func (m *Manager) Selected(instanceID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[instanceID]
	if !ok {
		return []string{}
	}
	return s.ids()
}

// IsSelected reports whether id is selected.
func (m *Manager) IsSelected(instanceID, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[instanceID]
	return ok && s.has(id)
}

// AllSelected reports whether every id in pageIDs is selected. An empty page
// is never all selected.
func (m *Manager) AllSelected(instanceID string, pageIDs []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[instanceID]
	return ok && allIn(s, pageIDs)
}

// Summary computes the selection state against the filtered id set.
func (m *Manager) Summary(instanceID string, filteredIDs, pageIDs []string) types.SelectionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[instanceID]
	if !ok {
		s = newIDSet()
	}
	sum := types.SelectionSummary{
		Count:             len(s.order),
		IDs:               s.ids(),
		AllSelectedOnPage: allIn(s, pageIDs),
	}
	switch {
	case sum.Count == 0:
		sum.State = types.SelectionNone
	case allIn(s, filteredIDs):
		sum.State = types.SelectionAll
	default:
		sum.State = types.SelectionPartial
	}
	return sum
}

func allIn(s *idSet, ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.has(id) {
			return false
		}
	}
	return true
}
