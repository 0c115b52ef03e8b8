// Package paging slices a filtered collection into pages and computes the
// page numbers shown to the user. Every transition returns a clamped state.
package paging

import (
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Ellipsis marks a gap in VisiblePageNumbers.
const Ellipsis = -1

// Neighbours is how many pages either side of the current one stay visible.
const Neighbours = 2

// New returns page 1 of an empty collection with the given page size.
func New(pageSize int) types.PaginationState {
	return Clamp(types.PaginationState{CurrentPage: 1, PageSize: pageSize})
}

// TotalPages is ceil(TotalItems/PageSize), never less than 1.
func TotalPages(s types.PaginationState) int {
	size := pageSize(s.PageSize)
	if s.TotalItems <= 0 {
		return 1
	}
	return (s.TotalItems + size - 1) / size
}

// Clamp fixes the page size and keeps CurrentPage within [1, TotalPages].
func Clamp(s types.PaginationState) types.PaginationState {
	s.PageSize = pageSize(s.PageSize)
	if s.TotalItems < 0 {
		s.TotalItems = 0
	}
	s.CurrentPage = min(max(s.CurrentPage, 1), TotalPages(s))
	return s
}

func pageSize(n int) int {
	if n <= 0 {
		return types.DefaultPageSize
	}
	return n
}

// Slice returns the records on the current page. The result is empty when the
// page lies past the end.
func Slice[T any](records []T, s types.PaginationState) []T {
	size := pageSize(s.PageSize)
	page := max(s.CurrentPage, 1)
	start := (page - 1) * size
	if start >= len(records) {
		return []T{}
	}
	end := min(start+size, len(records))
	out := make([]T, end-start)
	copy(out, records[start:end])
	return out
}

// WithTotal records a new item count and clamps the page.
func WithTotal(s types.PaginationState, total int) types.PaginationState {
	s.TotalItems = total
	return Clamp(s)
}

// WithPageSize changes the page size and clamps the page. The current page
// number is kept when it still exists.
func WithPageSize(s types.PaginationState, size int) types.PaginationState {
	s.PageSize = size
	return Clamp(s)
}

// GoTo moves to page n, clamped.
func GoTo(s types.PaginationState, n int) types.PaginationState {
	s.CurrentPage = n
	return Clamp(s)
}

func Next(s types.PaginationState) types.PaginationState  { return GoTo(s, s.CurrentPage+1) }
func Prev(s types.PaginationState) types.PaginationState  { return GoTo(s, s.CurrentPage-1) }
func First(s types.PaginationState) types.PaginationState { return GoTo(s, 1) }
func Last(s types.PaginationState) types.PaginationState  { return GoTo(s, TotalPages(s)) }

// CanPrev reports whether a previous page exists.
func CanPrev(s types.PaginationState) bool {
	return s.CurrentPage > 1
}

// CanNext reports whether a next page exists.
func CanNext(s types.PaginationState) bool {
	return s.CurrentPage < TotalPages(s)
}

// VisiblePageNumbers lists page 1, the last page and up to Neighbours pages
// on each side of current, with Ellipsis between non-consecutive numbers.
func VisiblePageNumbers(current, total int) []int {
	if total < 1 {
		total = 1
	}
	current = min(max(current, 1), total)

	lo := max(current-Neighbours, 1)
	hi := min(current+Neighbours, total)

	pages := make([]int, 0, hi-lo+5)
	add := func(n int) {
		if len(pages) > 0 && pages[len(pages)-1] != n-1 {
			pages = append(pages, Ellipsis)
		}
		pages = append(pages, n)
	}
	if lo > 1 {
		add(1)
	}
	for n := lo; n <= hi; n++ {
		add(n)
	}
	if hi < total {
		add(total)
	}
	return pages
}

// Range returns the 1-based positions of the first and last item on the
// current page, or 0, 0 for an empty collection.
func Range(s types.PaginationState) (from, to int) {
	if s.TotalItems <= 0 {
		return 0, 0
	}
	size := pageSize(s.PageSize)
	from = (max(s.CurrentPage, 1)-1)*size + 1
	to = min(from+size-1, s.TotalItems)
	if from > s.TotalItems {
		return 0, 0
	}
	return from, to
}
