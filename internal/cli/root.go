// Package cli implements the tablectl command-line interface: it loads a
// table config and a record file, drives the table engine and prints the
// visible page, exports or bulk action outcomes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// NewRootCmd creates the top-level "tablectl" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tablectl",
		Short: "Filter, sort, page, select and export tabular records",
		Long: "tablectl drives the datatable engine over JSON or JSONL record files.\n" +
			"Filter and page size preferences persist between runs per table.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory for preferences (default: platform data dir)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newViewCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newBulkCmd())
	root.AddCommand(newPrefsCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// sysError marks failures of the environment rather than of user input.
type sysError struct{ err error }

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

func systemErr(format string, args ...any) error {
	return sysError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var se sysError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &se):
		return exitSysError
	default:
		return exitUserError
	}
}

// loadSettings resolves the config directory and reads config.yaml.
func loadSettings() (*viper.Viper, string, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, "", systemErr("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, "", systemErr("load config: %w", err)
	}
	return v, configDir, nil
}
