package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"marktime/internal/dates"
	"marktime/internal/document"
)

// NOTE: configuration is read from YAML, or TOML when the file name ends in
// .toml. MARKTIME_* environment variables override scalar fields after the
// file is read.

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" toml:"username" json:"username"`
	Password string `yaml:"password" toml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" toml:"listen" json:"listen"`

	// Timezone is the IANA timezone absolute dates without an offset are
	// read in, and occurrences are displayed in (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" toml:"timezone" json:"timezone"`

	// DateFormat is the default numeric date order: "american" (M/d/y) or
	// "european" (d/M/y). A dateFormat directive in a document wins.
	DateFormat string `yaml:"date_format" toml:"date_format" json:"date_format"`

	// Documents are the timelines served by the API.
	Documents []document.Source `yaml:"documents" toml:"documents" json:"documents"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic re-reading of Documents.
	RefreshCron string `yaml:"refresh" toml:"refresh" json:"refresh"`

	// CacheTTLSeconds bounds how old parsed documents may get before a
	// request triggers a reload.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" toml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// CacheDir holds the HTTP cache of remote documents.
	CacheDir string `yaml:"cache_dir" toml:"cache_dir" json:"cache_dir"`

	LogLevel  string `yaml:"log_level" toml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format" json:"log_format"`

	// MaxOccurrences caps recurrence expansion per event.
	MaxOccurrences int `yaml:"max_occurrences" toml:"max_occurrences" json:"max_occurrences"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" toml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen         = "127.0.0.1:8080"
	defaultTimezone       = "UTC"
	defaultRefresh        = "*/15 * * * *"
	defaultCacheTTL       = 300
	defaultCacheDir       = "./var/doc-cache"
	defaultMaxOccurrences = 5000
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		Timezone:        defaultTimezone,
		DateFormat:      "american",
		Documents:       []document.Source{},
		RefreshCron:     defaultRefresh,
		CacheTTLSeconds: defaultCacheTTL,
		CacheDir:        defaultCacheDir,
		LogLevel:        "info",
		LogFormat:       "console",
		MaxOccurrences:  defaultMaxOccurrences,
		BasicAuth:       nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch strings.ToLower(c.DateFormat) {
	case "european", "d/m/y":
		c.DateFormat = "european"
	default:
		// Unknown value; fall back to american like the parser does.
		c.DateFormat = "american"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = defaultCacheTTL
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat != "json" {
		c.LogFormat = "console"
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = defaultMaxOccurrences
	}
	if c.Documents == nil {
		c.Documents = []document.Source{}
	}
	for i := range c.Documents {
		if c.Documents[i].Name == "" {
			base := filepath.Base(c.Documents[i].Location)
			c.Documents[i].Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Format is the configured default date order.
func (c *Config) Format() dates.DateFormat {
	if c.DateFormat == "european" {
		return dates.European
	}
	return dates.American
}

// CacheTTL is CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load loads configuration from the given path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - decode YAML (or TOML) into Config
//   - apply MARKTIME_* environment overrides
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			applyEnv(cfg)
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("config: decode toml: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(&cfg)
	cfg.Normalize()

	return &cfg, nil
}

// LoadOrDefault is Load for an optional path: without one it returns the
// defaults with environment overrides applied and writes nothing.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg := DefaultConfig()
	applyEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

// applyEnv overrides scalar fields from MARKTIME_* variables, e.g.
// MARKTIME_LISTEN or MARKTIME_LOG_LEVEL.
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("MARKTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	strs := map[string]*string{
		"listen":      &cfg.Listen,
		"timezone":    &cfg.Timezone,
		"date_format": &cfg.DateFormat,
		"refresh":     &cfg.RefreshCron,
		"cache_dir":   &cfg.CacheDir,
		"log_level":   &cfg.LogLevel,
		"log_format":  &cfg.LogFormat,
	}
	ints := map[string]*int{
		"cache_ttl_seconds": &cfg.CacheTTLSeconds,
		"max_occurrences":   &cfg.MaxOccurrences,
	}
	for key, dst := range strs {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	for key, dst := range ints {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	_ = v.BindEnv("basic_auth.username")
	_ = v.BindEnv("basic_auth.password")
	if v.IsSet("basic_auth.username") || v.IsSet("basic_auth.password") {
		cfg.BasicAuth = &BasicAuthConfig{
			Username: v.GetString("basic_auth.username"),
			Password: v.GetString("basic_auth.password"),
		}
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML, or TOML for .toml paths.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".marktime-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
