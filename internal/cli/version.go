package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datatable/pkg/datatable"
)

const modulePath = "github.com/mesh-intelligence/datatable"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tablectl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tablectl v%s\nmodule: %s\n", datatable.Version, modulePath)
			return nil
		},
	}
}
