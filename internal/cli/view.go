package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// watchDebounce collapses the burst of events one save produces.
const watchDebounce = 150 * time.Millisecond

// viewFlags are the filter, sort and page controls shared by view, export
// and bulk. Only flags given on the command line change persisted state.
type viewFlags struct {
	search   string
	status   []string
	from     string
	to       string
	clear    bool
	sort     string
	order    string
	page     int
	pageSize int
}

func (vf *viewFlags) register(cmd *cobra.Command, withPaging bool) {
	f := cmd.Flags()
	f.StringVarP(&vf.search, "search", "s", "", "case-insensitive search term")
	f.StringSliceVar(&vf.status, "status", nil, "status values to keep (repeatable)")
	f.StringVar(&vf.from, "from", "", "earliest date, inclusive (YYYY-MM-DD)")
	f.StringVar(&vf.to, "to", "", "latest date, inclusive (YYYY-MM-DD)")
	f.BoolVar(&vf.clear, "clear", false, "clear search, status and date filters first")
	f.StringVar(&vf.sort, "sort", "", "sort column; repeating the current column flips the direction")
	f.StringVar(&vf.order, "order", "", "sort direction: asc or desc")
	if withPaging {
		f.IntVarP(&vf.page, "page", "p", 0, "page number")
		f.IntVar(&vf.pageSize, "page-size", 0, "rows per page")
	}
}

// apply pushes the changed flags into the instance: filters first, which
// return to page 1, then sort, page size and page.
func (vf *viewFlags) apply(cmd *cobra.Command, s *session) error {
	f := cmd.Flags()
	inst := s.table

	if vf.clear {
		if err := inst.ClearFilters(); err != nil {
			return err
		}
	}
	if f.Changed("search") {
		if err := inst.SetSearch(vf.search); err != nil {
			return err
		}
	}
	if f.Changed("status") {
		if err := inst.SetStatusFilters(vf.status); err != nil {
			return err
		}
	}
	if f.Changed("from") || f.Changed("to") {
		cur := inst.FilterState()
		from, to := cur.DateStart, cur.DateEnd
		if f.Changed("from") {
			from = vf.from
		}
		if f.Changed("to") {
			to = vf.to
		}
		if err := inst.SetDateRange(from, to); err != nil {
			return err
		}
	}

	switch {
	case f.Changed("order"):
		st := inst.FilterState()
		if f.Changed("sort") {
			st.SortColumn = vf.sort
		}
		st.SortDirection = vf.order
		if err := st.Validate(); err != nil {
			return fmt.Errorf("--order %q: %w", vf.order, err)
		}
		page := inst.PaginationState()
		if err := inst.SetFilterState(st); err != nil {
			return err
		}
		inst.GoToPage(page.CurrentPage)
	case f.Changed("sort"):
		if err := inst.SortBy(vf.sort); err != nil {
			return err
		}
	}

	if f.Lookup("page-size") != nil && f.Changed("page-size") {
		if vf.pageSize <= 0 {
			return fmt.Errorf("--page-size %d: %w", vf.pageSize, types.ErrInvalidPageSize)
		}
		if err := inst.SetPageSize(vf.pageSize); err != nil {
			return err
		}
	}
	if f.Lookup("page") != nil && f.Changed("page") {
		inst.GoToPage(vf.page)
	}
	return nil
}

func newViewCmd() *cobra.Command {
	var (
		tf    tableFlags
		vf    viewFlags
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print one page of a table",
		Long: "Filter, sort and page the record file through the table config and\n" +
			"print the visible page. With --watch the page is printed again\n" +
			"whenever the record file changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, tf)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := vf.apply(cmd, s); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			render := func() error { return renderPage(out, s.table, flags.jsonMode) }
			if !watch {
				return render()
			}
			first := true
			return watchFile(cmd.Context(), s, func() error {
				if !first {
					fmt.Fprintln(out)
				}
				first = false
				return render()
			})
		},
	}
	tf.register(cmd)
	vf.register(cmd, true)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render when the record file changes")
	return cmd
}

// watchFile calls render once the watch is in place, then reloads the
// record file and renders again after each change until ctx is done. The
// directory is watched because atomic writers replace the file by rename.
func watchFile(ctx context.Context, s *session, render func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return systemErr("watch: %w", err)
	}
	defer w.Close()

	path, err := filepath.Abs(s.dataPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return systemErr("watch %s: %w", filepath.Dir(path), err)
	}
	if err := s.cache.StartJanitor("@every 1m"); err != nil {
		return err
	}
	if err := render(); err != nil {
		return err
	}

	changed := make(chan struct{}, 1)
	debounced := debounce.New(watchDebounce)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounced(notify)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "path", path, "error", err)
		case <-changed:
			s.table.Invalidate()
			if err := s.table.Refresh(ctx); err != nil {
				s.logger.Warn("reload failed", "path", path, "error", err)
				continue
			}
			s.logger.Info("records reloaded", "path", path, "records", len(s.table.Records()))
			if err := render(); err != nil {
				return err
			}
		}
	}
}

