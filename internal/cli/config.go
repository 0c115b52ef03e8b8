package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/datatable/internal/cache"
	"github.com/mesh-intelligence/datatable/internal/paths"
	"github.com/mesh-intelligence/datatable/internal/prefs"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyPrefsBackend = "prefs_backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyCacheTTL     = "cache_ttl"
	cfgKeyLogLevel     = "log_level"
	cfgKeyLocale       = "locale"
	cfgKeyTimezone     = "timezone"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# tablectl configuration

# Preference backend: memory, json, sqlite or badger
prefs_backend: json

# Data directory for preferences (optional; overridable by --data-dir)
# data_dir:

# How long fetched records stay fresh
cache_ttl: 30s

# debug, info, warn or error
log_level: warn

# Collation locale used when a table config does not name one
# locale: en

# Zone for dates without an offset and for date filter bounds
# timezone: UTC
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. A missing config.yaml
// is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyPrefsBackend, prefs.BackendJSON)
	v.SetDefault(cfgKeyCacheTTL, cache.DefaultTTL)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in configDir.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// settings is the decoded config.yaml.
type settings struct {
	PrefsBackend string
	DataDir      string
	CacheTTL     time.Duration
	LogLevel     string
	Locale       string
	Location     *time.Location
}

func decodeSettings(v *viper.Viper) (settings, error) {
	s := settings{
		PrefsBackend: v.GetString(cfgKeyPrefsBackend),
		CacheTTL:     v.GetDuration(cfgKeyCacheTTL),
		LogLevel:     v.GetString(cfgKeyLogLevel),
		Locale:       v.GetString(cfgKeyLocale),
		Location:     time.UTC,
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}
	s.DataDir = dataDir
	if tz := v.GetString(cfgKeyTimezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return settings{}, fmt.Errorf("%s %q: %w", cfgKeyTimezone, tz, err)
		}
		s.Location = loc
	}
	return s, nil
}

// resolveConfigDir returns the configuration directory: --config-dir flag >
// TABLECTL_CONFIG_DIR > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flags.configDir)
}
