package engine

import (
	"github.com/mesh-intelligence/datatable/internal/export"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// The methods below address an instance by id for rendering layers that do
// not hold Instance handles.

// VisiblePage returns the current page of the instance.
func (r *Registry) VisiblePage(id string) ([]types.Record, error) {
	inst, err := r.Instance(id)
	if err != nil {
		return nil, err
	}
	return inst.VisiblePage(), nil
}

// FilterState returns the instance's filter state.
func (r *Registry) FilterState(id string) (types.FilterState, error) {
	inst, err := r.Instance(id)
	if err != nil {
		return types.FilterState{}, err
	}
	return inst.FilterState(), nil
}

// SetFilterState replaces the instance's filter state.
func (r *Registry) SetFilterState(id string, s types.FilterState) error {
	inst, err := r.Instance(id)
	if err != nil {
		return err
	}
	return inst.SetFilterState(s)
}

// PaginationState returns the instance's pagination state.
func (r *Registry) PaginationState(id string) (types.PaginationState, error) {
	inst, err := r.Instance(id)
	if err != nil {
		return types.PaginationState{}, err
	}
	return inst.PaginationState(), nil
}

// SetPaginationState replaces the instance's page position and size.
func (r *Registry) SetPaginationState(id string, s types.PaginationState) error {
	inst, err := r.Instance(id)
	if err != nil {
		return err
	}
	return inst.SetPaginationState(s)
}

// SelectionSummary returns the instance's selection summary.
func (r *Registry) SelectionSummary(id string) (types.SelectionSummary, error) {
	inst, err := r.Instance(id)
	if err != nil {
		return types.SelectionSummary{}, err
	}
	return inst.SelectionSummary(), nil
}

// ExportCurrentView renders the instance's filtered and sorted records.
func (r *Registry) ExportCurrentView(id string, columns []export.Column) (string, error) {
	inst, err := r.Instance(id)
	if err != nil {
		return "", err
	}
	return inst.ExportCurrentView(columns), nil
}
