package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Long: "Write a default config.yaml when none exists, create the data\n" +
			"directory and open the configured preference backend once.",
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	v, configDir, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := decodeSettings(v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(st.DataDir, 0o755); err != nil {
		return systemErr("create data directory: %w", err)
	}

	backend, err := openBackend(st)
	if err != nil {
		return err
	}
	if err := backend.Close(); err != nil {
		return systemErr("close preferences: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config: %s\n", configDir)
	fmt.Fprintf(out, "data:   %s\n", st.DataDir)
	fmt.Fprintf(out, "prefs:  %s\n", st.PrefsBackend)
	fmt.Fprintln(out, "tablectl initialized successfully")
	return nil
}
