package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or reset the persisted preferences of a table",
	}
	cmd.AddCommand(newPrefsShowCmd())
	cmd.AddCommand(newPrefsResetCmd())
	return cmd
}

// prefsView is the JSON form of prefs show.
type prefsView struct {
	Instance   string            `json:"instance"`
	StorageKey string            `json:"storageKey"`
	Backend    string            `json:"backend"`
	Filter     types.FilterState `json:"filter"`
	PageSize   int               `json:"pageSize"`
	Raw        map[string]string `json:"raw"`
}

func newPrefsShowCmd() *cobra.Command {
	var tf tableFlags
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored filter state and page size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, tf)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := s.table.Config()
			v := prefsView{
				Instance:   cfg.InstanceID,
				StorageKey: cfg.StorageKey,
				Backend:    s.settings.PrefsBackend,
				Filter:     s.table.FilterState(),
				PageSize:   s.table.PaginationState().PageSize,
				Raw:        s.registry.Preferences().Raw(cfg),
			}
			out := cmd.OutOrStdout()
			if flags.jsonMode {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			if cfg.StorageKey == "" {
				fmt.Fprintf(out, "table %q has no storage_key; preferences are not persisted\n", cfg.InstanceID)
				return nil
			}
			fmt.Fprintf(out, "backend: %s\n", v.Backend)
			keys := make([]string, 0, len(v.Raw))
			for k := range v.Raw {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s = %s\n", k, v.Raw[k])
			}
			if len(keys) == 0 {
				fmt.Fprintln(out, "no stored preferences")
			}
			return nil
		},
	}
	tf.register(cmd)
	return cmd
}

func newPrefsResetCmd() *cobra.Command {
	var tf tableFlags
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored filter state and page size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, tf)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := s.table.Config()
			if err := s.registry.Preferences().Reset(cfg); err != nil {
				return systemErr("reset preferences: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "preferences of %q reset\n", cfg.InstanceID)
			return nil
		},
	}
	tf.register(cmd)
	return cmd
}
