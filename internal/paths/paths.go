// Package paths resolves the configuration, data and cache directories used
// by tablectl. Each resolver follows flag > config value > environment >
// platform default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name under every platform root.
const AppName = "tablectl"

// Environment variable overrides.
const (
	EnvConfigDir = "TABLECTL_CONFIG_DIR"
	EnvDataDir   = "TABLECTL_DATA_DIR"
	EnvCacheDir  = "TABLECTL_CACHE_DIR"
)

// platformDir holds platform lookups that tests replace.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	userCacheDir:  os.UserCacheDir,
}

// xdgDir returns $env/tablectl, or ~/fallback/tablectl when env is unset.
func xdgDir(env string, fallback ...string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tablectl (fallback ~/.config/tablectl)
// macOS:   ~/Library/Application Support/tablectl
// Windows: %APPDATA%/tablectl
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/tablectl (fallback ~/.local/share/tablectl)
// Others:  same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	}
	return DefaultConfigDir()
}

// DefaultCacheDir returns the platform cache directory, where logs go.
//
// Linux:   $XDG_CACHE_HOME/tablectl (fallback ~/.cache/tablectl)
// macOS:   ~/Library/Caches/tablectl
// Windows: %LocalAppData%/tablectl
func DefaultCacheDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CACHE_HOME", ".cache")
	}
	dir, err := platformDir.userCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns flag, else $TABLECTL_CONFIG_DIR, else the
// platform default. Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, EnvConfigDir, flag)
}

// ResolveDataDir returns flag, else the data_dir config value, else
// $TABLECTL_DATA_DIR, else the platform default.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, EnvDataDir, flag, configValue)
}

// ResolveCacheDir returns $TABLECTL_CACHE_DIR or the platform default.
func ResolveCacheDir() (string, error) {
	return resolve(DefaultCacheDir, EnvCacheDir)
}

func resolve(def func() (string, error), env string, explicit ...string) (string, error) {
	for _, v := range explicit {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Abs(v)
	}
	return def()
}
