package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datatable/internal/cache"
	"github.com/mesh-intelligence/datatable/internal/engine"
	"github.com/mesh-intelligence/datatable/internal/prefs"
	"github.com/mesh-intelligence/datatable/internal/source"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

// tableFlags names the table config and record file a command works on.
type tableFlags struct {
	table string
	data  string
}

func (tf *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&tf.table, "table", "t", "", "table config YAML file (required)")
	cmd.Flags().StringVarP(&tf.data, "data", "d", "", "JSON or JSONL record file (required)")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("data")
}

// session is one opened table: settings, logger, preferences, cache and the
// registered instance with its records loaded.
type session struct {
	settings settings
	logger   *slog.Logger
	cache    *cache.Cache
	registry *engine.Registry
	table    *engine.Instance
	dataPath string

	closers []func() error
}

// openSession loads config.yaml, sets up logging and the preference
// backend, registers the table and loads its records. The caller must
// call Close.
func openSession(cmd *cobra.Command, tf tableFlags) (*session, error) {
	v, _, err := loadSettings()
	if err != nil {
		return nil, err
	}
	st, err := decodeSettings(v)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	s := &session{settings: st, dataPath: tf.data}
	logger, closeLog, err := newLogger(st.LogLevel, flags.verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, systemErr("logging: %w", err)
	}
	s.logger = logger
	s.closers = append(s.closers, closeLog)

	cfg, err := types.ReadTableConfig(tf.table)
	if err != nil {
		s.Close()
		return nil, err
	}
	if cfg.Locale == "" && st.Locale != "" {
		cfg.Locale = st.Locale
	}

	backend, err := openBackend(st)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, backend.Close)

	s.cache = cache.New(cache.WithTTL(st.CacheTTL), cache.WithLogger(logger))
	s.closers = append(s.closers, func() error { s.cache.Stop(); return nil })

	s.registry = engine.New(
		engine.WithPreferences(prefs.NewStore(backend, prefs.WithLogger(logger))),
		engine.WithCache(s.cache),
		engine.WithFetcher(source.Fetcher(tf.data)),
		engine.WithLogger(logger),
		engine.WithLocation(st.Location),
	)
	s.table, err = s.registry.Register(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, func() error { s.registry.Unregister(cfg.InstanceID); return nil })

	if err := s.table.Refresh(cmd.Context()); err != nil {
		s.Close()
		return nil, fmt.Errorf("load records: %w", err)
	}
	logger.Debug("session opened", "instance", cfg.InstanceID, "records", len(s.table.Records()), "backend", st.PrefsBackend)
	return s, nil
}

// openBackend opens the configured preference backend under the data dir.
func openBackend(st settings) (prefs.Backend, error) {
	if st.PrefsBackend != prefs.BackendMemory {
		if err := os.MkdirAll(st.DataDir, 0o755); err != nil {
			return nil, systemErr("create data dir: %w", err)
		}
	}
	backend, err := prefs.Open(st.PrefsBackend, st.DataDir)
	if err != nil {
		if errors.Is(err, types.ErrUnknownProvider) {
			return nil, fmt.Errorf("config %s: %w", cfgKeyPrefsBackend, err)
		}
		return nil, systemErr("open preferences: %w", err)
	}
	return backend, nil
}

// Close releases everything in reverse order of acquisition.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
