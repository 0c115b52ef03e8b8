package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/datatable/internal/engine"
	"github.com/mesh-intelligence/datatable/internal/export"
	"github.com/mesh-intelligence/datatable/internal/paging"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// pageView is the JSON form of one rendered page.
type pageView struct {
	Instance   string                 `json:"instance"`
	Items      []types.Record         `json:"items"`
	Pagination types.PaginationState  `json:"pagination"`
	TotalPages int                    `json:"totalPages"`
	Pages      []int                  `json:"pages"`
	Filter     types.FilterState      `json:"filter"`
	Selection  types.SelectionSummary `json:"selection"`
}

func snapshot(inst *engine.Instance) pageView {
	items := inst.VisiblePage()
	pg := inst.PaginationState()
	return pageView{
		Instance:   inst.ID(),
		Items:      items,
		Pagination: pg,
		TotalPages: paging.TotalPages(pg),
		Pages:      inst.PageNumbers(),
		Filter:     inst.FilterState(),
		Selection:  inst.SelectionSummary(),
	}
}

// displayColumns picks the columns shown by view: the export columns when
// declared, else the id, search and status fields.
func displayColumns(cfg types.TableConfig) []export.Column {
	if len(cfg.ExportColumns) > 0 {
		return export.FromConfig(cfg.ExportColumns)
	}
	var cols []export.Column
	seen := map[string]bool{}
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		cols = append(cols, export.Column{Path: path, Label: strings.ToUpper(path)})
	}
	add(cfg.IDField)
	for _, f := range cfg.SearchFields {
		add(f)
	}
	add(cfg.StatusField)
	add(cfg.DateField)
	return cols
}

// renderPage writes the current page of inst to w, as a table or as JSON.
func renderPage(w io.Writer, inst *engine.Instance, jsonMode bool) error {
	v := snapshot(inst)
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	cols := displayColumns(inst.Config())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = c.Label
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t"))
	for _, rec := range v.Items {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.Cell(rec)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\npage %d/%d, %d items, %d selected\n",
		v.Pagination.CurrentPage, v.TotalPages, v.Pagination.TotalItems, v.Selection.Count)
	if len(v.Pages) > 1 {
		fmt.Fprintf(w, "pages: %s\n", pageLine(v.Pages, v.Pagination.CurrentPage))
	}
	return nil
}

// pageLine renders page buttons, marking the current page with brackets.
func pageLine(pages []int, current int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		switch {
		case p == paging.Ellipsis:
			parts[i] = "..."
		case p == current:
			parts[i] = "[" + strconv.Itoa(p) + "]"
		default:
			parts[i] = strconv.Itoa(p)
		}
	}
	return strings.Join(parts, " ")
}
