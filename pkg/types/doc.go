// Package types defines the records, table configuration, per-instance state
// and standard errors shared by every datatable component.
//
// A table instance is described once by a TableConfig and owns one
// FilterState, one PaginationState and one selection entry, all keyed by the
// instance id. Nothing in this package holds mutable state of its own.
package types
