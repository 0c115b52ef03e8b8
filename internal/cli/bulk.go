package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datatable/internal/selection"
	"github.com/mesh-intelligence/datatable/internal/source"
)

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Run an action over selected records",
	}
	cmd.AddCommand(newBulkDeleteCmd())
	return cmd
}

func newBulkDeleteCmd() *cobra.Command {
	var (
		tf  tableFlags
		vf  viewFlags
		ids []string
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete selected records from the record file",
		Long: "Select the records named by --ids, or every record matching the\n" +
			"filters when --ids is not given, confirm, and remove them from the\n" +
			"record file. Ids that are not in the file are ignored.",
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
			if len(ids) > 0 {
				s.table.Select(ids...)
			} else {
				s.table.ToggleSelectAll()
			}
			summary := s.table.SelectionSummary()

			idField := s.table.Config().IDField
			action := selection.Action{
				Name:           "delete",
				ConfirmMessage: fmt.Sprintf("Delete %d record(s) from %s?", summary.Count, s.dataPath),
				Handler: func(ctx context.Context, selected []string) error {
					n, err := source.DeleteIDs(s.dataPath, idField, selected)
					if err != nil {
						return err
					}
					s.logger.Info("records deleted", "path", s.dataPath, "removed", n)
					return nil
				},
			}

			confirm := promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = func(context.Context, string) (bool, error) { return true, nil }
			}

			res := s.table.RunBulkAction(cmd.Context(), action, confirm)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d record(s)\n", res.Action, res.Status, len(res.IDs))
			switch res.Status {
			case selection.Succeeded, selection.Aborted:
				return nil
			case selection.Failed:
				return systemErr("%s: %w", res.Action, res.Err)
			default:
				return res.Err
			}
		},
	}
	tf.register(cmd)
	vf.register(cmd, false)
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "record ids to delete (default: all filtered records)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// promptConfirmer asks on out and accepts "y" or "yes" read from in. End of
// input declines.
func promptConfirmer(in io.Reader, out io.Writer) selection.Confirmer {
	r := bufio.NewReader(in)
	return func(ctx context.Context, message string) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "%s [y/N]: ", message)
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
