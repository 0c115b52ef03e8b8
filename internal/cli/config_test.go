package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datatable/internal/export"
	"github.com/mesh-intelligence/datatable/internal/paths"
	"github.com/mesh-intelligence/datatable/internal/prefs"
	"github.com/mesh-intelligence/datatable/pkg/types"
)

func TestLoadConfigWritesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	t.Setenv(paths.EnvDataDir, "")

	v, err := loadConfig(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, defaultConfigYAML, string(data))

	st, err := decodeSettings(v)
	require.NoError(t, err)
	assert.Equal(t, prefs.BackendJSON, st.PrefsBackend)
	assert.Equal(t, 30*time.Second, st.CacheTTL)
	assert.Equal(t, "warn", st.LogLevel)
	assert.Equal(t, time.UTC, st.Location)
}

func TestDecodeSettings(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		flag    string
		check   func(t *testing.T, st settings)
		wantErr bool
	}{
		{
			name: "explicit values",
			yaml: "prefs_backend: badger\ncache_ttl: 5m\nlog_level: debug\nlocale: fr\ntimezone: Europe/Paris\n",
			check: func(t *testing.T, st settings) {
				assert.Equal(t, prefs.BackendBadger, st.PrefsBackend)
				assert.Equal(t, 5*time.Minute, st.CacheTTL)
				assert.Equal(t, "fr", st.Locale)
				assert.Equal(t, "Europe/Paris", st.Location.String())
			},
		},
		{
			name: "config data_dir",
			yaml: "data_dir: /srv/tables\n",
			check: func(t *testing.T, st settings) {
				assert.Equal(t, "/srv/tables", st.DataDir)
			},
		},
		{
			name: "flag wins over config data_dir",
			yaml: "data_dir: /srv/tables\n",
			flag: "/tmp/override",
			check: func(t *testing.T, st settings) {
				assert.Equal(t, "/tmp/override", st.DataDir)
			},
		},
		{
			name:    "unknown timezone",
			yaml:    "timezone: Mars/Olympus\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv(paths.EnvDataDir, "")
			require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(tt.yaml), 0o644))
			flags.dataDir = tt.flag
			t.Cleanup(func() { flags.dataDir = "" })

			v, err := loadConfig(dir)
			require.NoError(t, err)
			st, err := decodeSettings(v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, st)
		})
	}
}

func TestLoadConfigRejectsBrokenYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("cache_ttl: [\n"), 0o644))
	_, err := loadConfig(dir)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(paths.EnvCacheDir, dir)

	var stderr bytes.Buffer
	logger, closeLog, err := newLogger("info", true, &stderr)
	require.NoError(t, err)
	logger.Debug("hidden from file")
	logger.Info("cache miss", "key", "leads")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"cache miss"`)
	assert.NotContains(t, string(data), "hidden from file")
	assert.Contains(t, stderr.String(), "msg=\"cache miss\" key=leads")
	assert.Contains(t, stderr.String(), "hidden from file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel(" ERROR "))
	assert.Equal(t, slog.LevelWarn, parseLevel("loud"))
	assert.Equal(t, slog.LevelWarn, parseLevel(""))
}

func TestDisplayColumns(t *testing.T) {
	cfg := types.TableConfig{
		IDField:      "id",
		SearchFields: []string{"name", "id"},
		StatusField:  "status",
	}
	assert.Equal(t, []export.Column{
		{Path: "id", Label: "ID"},
		{Path: "name", Label: "NAME"},
		{Path: "status", Label: "STATUS"},
	}, displayColumns(cfg))

	cfg.ExportColumns = []types.ExportColumn{{Path: "client.name", Label: "Client"}}
	cols := displayColumns(cfg)
	require.Len(t, cols, 1)
	assert.Equal(t, "Client", cols[0].Label)
}
