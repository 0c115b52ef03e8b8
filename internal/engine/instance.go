package engine

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bep/debounce"

	"github.com/mesh-intelligence/datatable/internal/export"
	"github.com/mesh-intelligence/datatable/internal/fields"
	"github.com/mesh-intelligence/datatable/internal/filter"
	"github.com/mesh-intelligence/datatable/internal/order"
	"github.com/mesh-intelligence/datatable/internal/paging"
	"github.com/mesh-intelligence/datatable/internal/selection"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Instance is one configured table. Its methods are safe for concurrent use.
type Instance struct {
	reg *Registry
	cfg types.TableConfig

	mu      sync.Mutex
	records []types.Record
	filter  types.FilterState
	page    types.PaginationState
	stopped bool

	debounced func(func())
}

func newInstance(r *Registry, cfg types.TableConfig) *Instance {
	inst := &Instance{
		reg:       r,
		cfg:       cfg,
		records:   []types.Record{},
		debounced: debounce.New(r.debounce),
	}
	inst.filter, _ = r.prefs.LoadFilter(cfg)

	size := cfg.DefaultPageSize
	if saved, ok := r.prefs.LoadPageSize(cfg); ok {
		size = saved
	}
	inst.page = paging.New(size)
	return inst
}

// ID returns the instance id.
func (i *Instance) ID() string {
	return i.cfg.InstanceID
}

// Config returns the normalized table config.
func (i *Instance) Config() types.TableConfig {
	return i.cfg
}

// CacheKey is the cache entry holding this table's records.
func (i *Instance) CacheKey() string {
	if i.cfg.CacheKey != "" {
		return i.cfg.CacheKey
	}
	return i.cfg.InstanceID
}

func (i *Instance) stop() {
	i.mu.Lock()
	i.stopped = true
	i.mu.Unlock()
	i.debounced(func() {})
}

// SetRecords replaces the source collection.
func (i *Instance) SetRecords(records []types.Record) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.records = append([]types.Record{}, records...)
}

// Records returns the source collection.
func (i *Instance) Records() []types.Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]types.Record{}, i.records...)
}

// Refresh loads the source collection through the cache.
func (i *Instance) Refresh(ctx context.Context) error {
	if i.reg.fetch == nil {
		return types.ErrNoFetcher
	}
	v, err := i.reg.cache.Fetch(ctx, i.CacheKey(), i.reg.fetch)
	if err != nil {
		return err
	}
	records, err := asRecords(v)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", i.cfg.InstanceID, err)
	}
	i.SetRecords(records)
	return nil
}

// Invalidate drops the instance's cache entry so the next Refresh fetches.
func (i *Instance) Invalidate() {
	i.reg.cache.Invalidate(i.CacheKey())
}

func asRecords(v any) ([]types.Record, error) {
	switch x := v.(type) {
	case []types.Record:
		return x, nil
	case []map[string]any:
		out := make([]types.Record, len(x))
		for n, m := range x {
			out[n] = m
		}
		return out, nil
	case []any:
		out := make([]types.Record, 0, len(x))
		for _, item := range x {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, m)
			case types.Record:
				out = append(out, m)
			default:
				return nil, fmt.Errorf("unexpected record type %T", item)
			}
		}
		return out, nil
	case nil:
		return []types.Record{}, nil
	default:
		return nil, fmt.Errorf("unexpected collection type %T", v)
	}
}

// FilterState returns a copy of the filter state.
func (i *Instance) FilterState() types.FilterState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.filter.Clone()
}

// SetFilterState replaces the filter state, returns to page 1 and persists
// the state. The new state applies even when persisting fails.
func (i *Instance) SetFilterState(s types.FilterState) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return i.updateFilter(func(types.FilterState) types.FilterState { return s.Clone() }, true)
}

// updateFilter applies fn to the filter state and persists the result.
func (i *Instance) updateFilter(fn func(types.FilterState) types.FilterState, resetPage bool) error {
	i.mu.Lock()
	next := fn(i.filter)
	if next.StatusFilters == nil {
		next.StatusFilters = []string{}
	}
	if next.SortDirection == "" {
		next.SortDirection = types.SortDesc
	}
	i.filter = next
	if resetPage {
		i.page = paging.First(i.page)
	}
	i.mu.Unlock()

	if err := i.reg.prefs.SaveFilter(i.cfg, next); err != nil {
		i.reg.logger.Warn("saving filter preference failed", "instance", i.cfg.InstanceID, "error", err)
		return err
	}
	return nil
}

// SetSearch applies a search term immediately.
func (i *Instance) SetSearch(term string) error {
	return i.updateFilter(func(s types.FilterState) types.FilterState { return filter.WithSearch(s, term) }, true)
}

// SearchDebounced applies term once no other call has arrived for the
// debounce interval. Only the last term of a burst is applied.
func (i *Instance) SearchDebounced(term string) {
	i.debounced(func() {
		i.mu.Lock()
		stopped := i.stopped
		i.mu.Unlock()
		if stopped {
			return
		}
		_ = i.SetSearch(term)
	})
}

// ToggleStatus adds or removes one status value from the filter.
func (i *Instance) ToggleStatus(value string) error {
	return i.updateFilter(func(s types.FilterState) types.FilterState { return filter.WithStatusToggled(s, value) }, true)
}

// SetStatusFilters replaces the status filter.
func (i *Instance) SetStatusFilters(values []string) error {
	return i.updateFilter(func(s types.FilterState) types.FilterState { return filter.WithStatusFilters(s, values) }, true)
}

// SetDateRange sets both date bounds; empty strings clear a bound.
func (i *Instance) SetDateRange(start, end string) error {
	return i.updateFilter(func(s types.FilterState) types.FilterState { return filter.WithDateRange(s, start, end) }, true)
}

// ClearFilters drops search, status and date filters, keeping the sort.
func (i *Instance) ClearFilters() error {
	return i.updateFilter(filter.Cleared, true)
}

// SortBy toggles the sort on column. The current page is kept.
func (i *Instance) SortBy(column string) error {
	return i.updateFilter(func(s types.FilterState) types.FilterState { return order.Toggle(s, column) }, false)
}

// PaginationState returns the page state with TotalItems from the current
// filtered collection.
func (i *Instance) PaginationState() types.PaginationState {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.syncTotalLocked(len(i.filteredLocked()))
	return i.page
}

// SetPaginationState moves to s.CurrentPage with s.PageSize, clamped.
// TotalItems is derived and ignored. A changed page size is persisted.
func (i *Instance) SetPaginationState(s types.PaginationState) error {
	i.mu.Lock()
	prevSize := i.page.PageSize
	total := len(i.filteredLocked())
	next := paging.Clamp(types.PaginationState{CurrentPage: s.CurrentPage, PageSize: s.PageSize, TotalItems: total})
	i.page = next
	i.mu.Unlock()

	if next.PageSize == prevSize {
		return nil
	}
	return i.savePageSize(next.PageSize)
}

// SetPageSize changes the page size and clamps the current page.
func (i *Instance) SetPageSize(size int) error {
	i.mu.Lock()
	i.syncTotalLocked(len(i.filteredLocked()))
	prevSize := i.page.PageSize
	i.page = paging.WithPageSize(i.page, size)
	next := i.page.PageSize
	i.mu.Unlock()

	if next == prevSize {
		return nil
	}
	return i.savePageSize(next)
}

func (i *Instance) savePageSize(size int) error {
	if err := i.reg.prefs.SavePageSize(i.cfg, size); err != nil {
		i.reg.logger.Warn("saving page size failed", "instance", i.cfg.InstanceID, "error", err)
		return err
	}
	return nil
}

// GoToPage moves to page n, clamped.
func (i *Instance) GoToPage(n int) {
	i.navigate(func(s types.PaginationState) types.PaginationState { return paging.GoTo(s, n) })
}

func (i *Instance) NextPage()  { i.navigate(paging.Next) }
func (i *Instance) PrevPage()  { i.navigate(paging.Prev) }
func (i *Instance) FirstPage() { i.navigate(paging.First) }
func (i *Instance) LastPage()  { i.navigate(paging.Last) }

func (i *Instance) navigate(fn func(types.PaginationState) types.PaginationState) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.syncTotalLocked(len(i.filteredLocked()))
	i.page = fn(i.page)
}

// syncTotalLocked records the filtered count and clamps the page.
func (i *Instance) syncTotalLocked(total int) {
	i.page = paging.WithTotal(i.page, total)
}

// filteredLocked runs filter then sort over the source collection.
func (i *Instance) filteredLocked() []types.Record {
	filtered := filter.ApplyIn(i.records, i.filter, &i.cfg, i.reg.loc)
	return order.ApplyIn(filtered, i.filter, &i.cfg, i.reg.loc)
}

// Filtered returns every record matching the filter, sorted as displayed.
func (i *Instance) Filtered() []types.Record {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.filteredLocked()
}

// view prunes the selection against the source and returns the filtered
// collection and the current page.
func (i *Instance) view() (filtered, page []types.Record) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pruneLocked()
	filtered = i.filteredLocked()
	i.syncTotalLocked(len(filtered))
	return filtered, paging.Slice(filtered, i.page)
}

// VisiblePage returns the records on the current page.
func (i *Instance) VisiblePage() []types.Record {
	_, page := i.view()
	return page
}

// PageNumbers returns the page buttons to show, with paging.Ellipsis gaps.
func (i *Instance) PageNumbers() []int {
	s := i.PaginationState()
	return paging.VisiblePageNumbers(s.CurrentPage, paging.TotalPages(s))
}

// ToggleSelected flips the selection of one record id.
func (i *Instance) ToggleSelected(id string) {
	i.reg.selection.Toggle(i.cfg.InstanceID, id)
}

// Select adds ids to the selection.
func (i *Instance) Select(ids ...string) {
	i.reg.selection.Select(i.cfg.InstanceID, ids...)
}

// IsSelected reports whether id is selected.
func (i *Instance) IsSelected(id string) bool {
	return i.reg.selection.IsSelected(i.cfg.InstanceID, id)
}

// ToggleSelectAll selects every filtered record, or clears the selection
// when all of them are already selected.
func (i *Instance) ToggleSelectAll() {
	filtered, _ := i.view()
	i.reg.selection.ToggleAll(i.cfg.InstanceID, fields.IDs(filtered, i.cfg.IDField))
}

// ClearSelection empties the selection.
func (i *Instance) ClearSelection() {
	i.reg.selection.Clear(i.cfg.InstanceID)
}

// SelectedIDs returns the selected ids in selection order.
func (i *Instance) SelectedIDs() []string {
	return i.reg.selection.Selected(i.cfg.InstanceID)
}

// SelectionSummary reports the selection against the filtered collection.
func (i *Instance) SelectionSummary() types.SelectionSummary {
	filtered, page := i.view()
	return i.reg.selection.Summary(
		i.cfg.InstanceID,
		fields.IDs(filtered, i.cfg.IDField),
		fields.IDs(page, i.cfg.IDField),
	)
}

// ExportCurrentView renders the filtered, sorted and unpaginated collection
// as delimited text. Nil columns use the configured export columns.
func (i *Instance) ExportCurrentView(columns []export.Column) string {
	return export.ToDelimitedText(i.Filtered(), i.columns(columns))
}

// ExportXLSX writes the same view as ExportCurrentView into a workbook.
func (i *Instance) ExportXLSX(w io.Writer, columns []export.Column, sheet string) error {
	return export.WriteXLSX(w, i.Filtered(), i.columns(columns), sheet)
}

func (i *Instance) columns(columns []export.Column) []export.Column {
	if columns == nil {
		columns = export.FromConfig(i.cfg.ExportColumns)
	}
	return export.InLocation(columns, i.reg.loc)
}

// pruneLocked drops selected ids that no longer name a loaded record.
func (i *Instance) pruneLocked() {
	i.reg.selection.Prune(i.cfg.InstanceID, fields.IDs(i.records, i.cfg.IDField))
}

// RunBulkAction executes action over the selection, after dropping ids of
// records that are no longer loaded. On success the action's cache keys, or
// the instance's own key when none are named, are invalidated before
// returning.
func (i *Instance) RunBulkAction(ctx context.Context, action selection.Action, confirm selection.Confirmer) selection.Result {
	i.mu.Lock()
	i.pruneLocked()
	i.mu.Unlock()
	res := i.reg.selection.Execute(ctx, i.cfg.InstanceID, action, confirm)
	if !res.OK() {
		return res
	}
	keys := action.InvalidateKeys
	if len(keys) == 0 {
		keys = []string{i.CacheKey()}
	}
	for _, k := range keys {
		i.reg.cache.Invalidate(k)
	}
	return res
}

// RunBulkActionAsync is RunBulkAction on a new goroutine. The channel
// receives one Result and is closed.
func (i *Instance) RunBulkActionAsync(ctx context.Context, action selection.Action, confirm selection.Confirmer) <-chan selection.Result {
	ch := make(chan selection.Result, 1)
	go func() {
		defer close(ch)
		ch <- i.RunBulkAction(ctx, action, confirm)
	}()
	return ch
}

// ActionInFlight reports whether the named bulk action is running.
func (i *Instance) ActionInFlight(name string) bool {
	return i.reg.selection.InFlight(i.cfg.InstanceID, name)
}
