package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marktime/internal/dates"
	"marktime/internal/document"
)

func TestLoadWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, defaultListen, cfg.Listen)
	require.Equal(t, "american", cfg.DateFormat)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.DateFormat = "european"
	cfg.Documents = []document.Source{{Location: "/srv/timelines/life.mw"}}
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", got.Timezone)
	require.Equal(t, dates.European, got.Format())
	require.Equal(t, []document.Source{{Name: "life", Location: "/srv/timelines/life.mw"}}, got.Documents)
	require.Equal(t, &BasicAuthConfig{Username: "u", Password: "p"}, got.BasicAuth)
}

func TestTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `listen = ":9090"
refresh = "0 * * * *"
max_occurrences = 10

[[documents]]
name = "work"
location = "https://example.com/work.mw"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Listen)
	require.Equal(t, "0 * * * *", cfg.RefreshCron)
	require.Equal(t, 10, cfg.MaxOccurrences)
	require.Len(t, cfg.Documents, 1)
	require.True(t, cfg.Documents[0].Remote())
	require.Equal(t, defaultCacheTTL*time.Second, cfg.CacheTTL())

	require.NoError(t, cfg.Save(path))
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: 127.0.0.1:1\nlog_level: info\n"), 0o600))

	t.Setenv("MARKTIME_LISTEN", "0.0.0.0:8081")
	t.Setenv("MARKTIME_LOG_LEVEL", "debug")
	t.Setenv("MARKTIME_MAX_OCCURRENCES", "42")
	t.Setenv("MARKTIME_BASIC_AUTH_USERNAME", "admin")
	t.Setenv("MARKTIME_BASIC_AUTH_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8081", cfg.Listen)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 42, cfg.MaxOccurrences)
	require.Equal(t, &BasicAuthConfig{Username: "admin", Password: "secret"}, cfg.BasicAuth)
}

func TestLoadOrDefaultWithoutPath(t *testing.T) {
	t.Setenv("MARKTIME_TIMEZONE", "Asia/Seoul")
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	require.Equal(t, "Asia/Seoul", cfg.Timezone)
	require.Equal(t, defaultListen, cfg.Listen)
}

func TestNormalize(t *testing.T) {
	cfg := &Config{DateFormat: "klingon", LogFormat: "xml", BasicAuth: &BasicAuthConfig{}}
	cfg.Normalize()
	require.Equal(t, "american", cfg.DateFormat)
	require.Equal(t, "console", cfg.LogFormat)
	require.Nil(t, cfg.BasicAuth)
	require.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Not/AZone"
	require.Equal(t, time.UTC, cfg.Location())
}
