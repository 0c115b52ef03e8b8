package types

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// FilterState is the user-chosen filter and sort state of one instance.
// It is the only state persisted under TableConfig.StorageKey.
type FilterState struct {
	SearchTerm    string   `json:"searchTerm"`
	StatusFilters []string `json:"statusFilters"`
	DateStart     string   `json:"dateStart"`
	DateEnd       string   `json:"dateEnd"`
	SortColumn    string   `json:"sortColumn"`
	SortDirection string   `json:"sortDirection"`
}

// DefaultFilterState returns the empty state: no search, all statuses, no
// date bounds, no sort column.
func DefaultFilterState() FilterState {
	return FilterState{
		StatusFilters: []string{},
		SortDirection: SortDesc,
	}
}

// Clone returns a copy that shares no slices with s.
func (s FilterState) Clone() FilterState {
	out := s
	out.StatusFilters = append([]string{}, s.StatusFilters...)
	return out
}

// Validate rejects an unknown sort direction. An empty direction is allowed
// and read as descending.
func (s FilterState) Validate() error {
	switch s.SortDirection {
	case "", SortAsc, SortDesc:
		return nil
	default:
		return ErrInvalidSortDirection
	}
}

// Descending reports whether the state sorts descending.
func (s FilterState) Descending() bool {
	return s.SortDirection != SortAsc
}

// PaginationState is the page position of one instance. TotalItems is derived
// on every render; only PageSize is persisted.
type PaginationState struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalItems  int `json:"totalItems"`
}

// Selection states, computed from the selected and filtered id sets.
const (
	SelectionNone    = "none"
	SelectionPartial = "partial"
	SelectionAll     = "all"
)

// SelectionSummary describes the selection of one instance for the view layer.
type SelectionSummary struct {
	Count             int      `json:"count"`
	State             string   `json:"state"`
	IDs               []string `json:"ids"`
	AllSelectedOnPage bool     `json:"allSelectedOnPage"`
}

// Indeterminate reports whether a select-all control should render partially
// checked.
func (s SelectionSummary) Indeterminate() bool {
	return s.State == SelectionPartial
}
