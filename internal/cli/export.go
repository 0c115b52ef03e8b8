package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datatable/internal/export"
)

// Export formats.
const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

func newExportCmd() *cobra.Command {
	var (
		tf     tableFlags
		vf     viewFlags
		format string
		outDir string
		base   string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered, sorted table",
		Long: "Write every record matching the current filters, in display order,\n" +
			"to {base}_{YYYY-MM-DD}.csv or .xlsx. Pagination does not apply.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatCSV && format != formatXLSX {
				return fmt.Errorf("--format %q: want %s or %s", format, formatCSV, formatXLSX)
			}
			s, err := openSession(cmd, tf)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := vf.apply(cmd, s); err != nil {
				return err
			}
			if base == "" {
				base = s.table.ID()
			}
			cols := s.table.Config().ExportColumns
			if len(cols) == 0 {
				return fmt.Errorf("table %q declares no export_columns", s.table.ID())
			}

			if stdout && format == formatCSV {
				fmt.Fprintln(cmd.OutOrStdout(), s.table.ExportCurrentView(nil))
				return nil
			}

			now := time.Now().In(s.settings.Location)
			name := export.Filename(base, now)
			if format == formatXLSX {
				name = export.XLSXFilename(base, now)
			}
			path := filepath.Join(outDir, name)
			if err := writeExport(path, format, s); err != nil {
				return err
			}
			s.logger.Info("exported", "instance", s.table.ID(), "path", path, "format", format)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	tf.register(cmd)
	vf.register(cmd, false)
	cmd.Flags().StringVarP(&format, "format", "f", formatCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&base, "name", "", "file name prefix (default: instance id)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print CSV to stdout instead of a file")
	return cmd
}

func writeExport(path, format string, s *session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return systemErr("create output dir: %w", err)
	}
	if format == formatCSV {
		if err := os.WriteFile(path, []byte(s.table.ExportCurrentView(nil)), 0o644); err != nil {
			return systemErr("write %s: %w", path, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return systemErr("create %s: %w", path, err)
	}
	if err := s.table.ExportXLSX(f, nil, export.DefaultSheet); err != nil {
		f.Close()
		return systemErr("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return systemErr("close %s: %w", path, err)
	}
	return nil
}
