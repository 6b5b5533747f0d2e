// Package config loads bmsearch configuration from defaults, the user's
// config file, an explicit file and BMSEARCH_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
	"github.com/Aman-CERP/bmsearch/internal/scanner"
	"github.com/Aman-CERP/bmsearch/internal/search"
)

// Config represents the complete bmsearch configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Browsers BrowsersConfig `yaml:"browsers" json:"browsers"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// BrowsersConfig selects which bookmark stores are read.
type BrowsersConfig struct {
	// Enabled lists browser families to scan, in scan order.
	// Empty means every supported family.
	Enabled []string `yaml:"enabled" json:"enabled"`

	// Roots overrides the base directory of a family, keyed by family name.
	Roots map[string]string `yaml:"roots" json:"roots"`
}

// SearchConfig configures indexing and querying.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit"`

	// Transliteration is "pinyin" or "none".
	Transliteration string `yaml:"transliteration" json:"transliteration"`

	Weights search.Weights `yaml:"weights" json:"weights"`

	// CacheSize bounds the daemon's query result cache. 0 disables it.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// WatchConfig configures live index updates.
type WatchConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Debounce coalesces bursts of writes. 0 rebuilds on every event.
	Debounce time.Duration `yaml:"debounce" json:"debounce"`

	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	ForcePolling bool          `yaml:"force_polling" json:"force_polling"`

	// MinRebuildInterval spaces watch-triggered rebuilds. Changes arriving
	// sooner are folded into the next rebuild. 0 disables the limit.
	MinRebuildInterval time.Duration `yaml:"min_rebuild_interval" json:"min_rebuild_interval"`
}

// ServerConfig configures the daemon.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`

	// MetricsAddr is the listen address for /metrics and /healthz.
	// Empty disables the HTTP listener.
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Browsers: BrowsersConfig{
			Enabled: []string{},
			Roots:   map[string]string{},
		},
		Search: SearchConfig{
			DefaultLimit:    20,
			MaxLimit:        500,
			Transliteration: search.TransliterationPinyin,
			Weights:         search.DefaultWeights(),
			CacheSize:       256,
		},
		Watch: WatchConfig{
			Enabled:      true,
			Debounce:           200 * time.Millisecond,
			PollInterval:       5 * time.Second,
			MinRebuildInterval: time.Second,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/bmsearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/bmsearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bmsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "bmsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "bmsearch", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	_, err := os.Stat(GetUserConfigPath())
	return err == nil
}

// Load builds the effective configuration, in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (GetUserConfigPath), if present
//  3. explicitPath, if non-empty (must exist)
//  4. Environment variables (BMSEARCH_*)
func Load(explicitPath string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); UserConfigExists() {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, bmerrors.New(bmerrors.ErrCodeConfigNotFound, "config file not found", err).
				WithDetail("path", explicitPath).
				WithSuggestion("Run 'bmsearch config init' to create one")
		}
		if err := cfg.loadYAML(explicitPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, bmerrors.ConfigError("invalid configuration", err)
	}

	return cfg, nil
}

// loadYAML overlays the values present in a YAML file onto c.
// Unknown keys are rejected so typos do not pass silently.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return bmerrors.ConfigError("failed to read config file", err).WithDetail("path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return bmerrors.ConfigError("failed to parse config file", err).WithDetail("path", path)
	}
	return nil
}

// applyEnvOverrides applies BMSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	envErr := func(key, v string, err error) error {
		return bmerrors.ConfigError("invalid environment override", err).
			WithDetail("variable", key).WithDetail("value", v)
	}

	if v := getenv("BMSEARCH_BROWSERS"); v != "" {
		c.Browsers.Enabled = splitList(v)
	}
	if v := getenv("BMSEARCH_TRANSLITERATION"); v != "" {
		c.Search.Transliteration = v
	}
	for key, dst := range map[string]*int{
		"BMSEARCH_DEFAULT_LIMIT": &c.Search.DefaultLimit,
		"BMSEARCH_MAX_LIMIT":     &c.Search.MaxLimit,
		"BMSEARCH_CACHE_SIZE":    &c.Search.CacheSize,
	} {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return envErr(key, v, err)
			}
			*dst = n
		}
	}
	if v := getenv("BMSEARCH_WATCH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envErr("BMSEARCH_WATCH_ENABLED", v, err)
		}
		c.Watch.Enabled = b
	}
	for key, dst := range map[string]*time.Duration{
		"BMSEARCH_WATCH_DEBOUNCE":       &c.Watch.Debounce,
		"BMSEARCH_POLL_INTERVAL":        &c.Watch.PollInterval,
		"BMSEARCH_MIN_REBUILD_INTERVAL": &c.Watch.MinRebuildInterval,
	} {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return envErr(key, v, err)
			}
			*dst = d
		}
	}
	if v := getenv("BMSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := getenv("BMSEARCH_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	for _, name := range c.Browsers.Enabled {
		if _, ok := scanner.FamilyByName(name); !ok {
			return fmt.Errorf("browsers.enabled: unknown browser %q", name)
		}
	}
	for name := range c.Browsers.Roots {
		if _, ok := scanner.FamilyByName(name); !ok {
			return fmt.Errorf("browsers.roots: unknown browser %q", name)
		}
	}

	if c.Search.DefaultLimit < 0 {
		return fmt.Errorf("search.default_limit must be non-negative, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < 1 {
		return fmt.Errorf("search.max_limit must be positive, got %d", c.Search.MaxLimit)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if _, ok := search.NewTransliterator(c.Search.Transliteration); !ok {
		return fmt.Errorf("search.transliteration must be 'pinyin' or 'none', got %s", c.Search.Transliteration)
	}
	if err := c.Search.Weights.Validate(); err != nil {
		return fmt.Errorf("search.weights: %w", err)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must be non-negative, got %d", c.Search.CacheSize)
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be non-negative, got %s", c.Watch.Debounce)
	}
	if c.Watch.MinRebuildInterval < 0 {
		return fmt.Errorf("watch.min_rebuild_interval must be non-negative, got %s", c.Watch.MinRebuildInterval)
	}
	if c.Watch.PollInterval <= 0 {
		return fmt.Errorf("watch.poll_interval must be positive, got %s", c.Watch.PollInterval)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// Families returns the browser families to scan, in order.
func (c *Config) Families() []scanner.Family {
	if len(c.Browsers.Enabled) == 0 {
		return scanner.DefaultFamilies()
	}
	var out []scanner.Family
	for _, name := range c.Browsers.Enabled {
		if f, ok := scanner.FamilyByName(name); ok {
			out = append(out, f)
		}
	}
	return out
}

// Resolver layers the configured root overrides over base.
func (c *Config) Resolver(base scanner.PathResolver) scanner.PathResolver {
	if len(c.Browsers.Roots) == 0 {
		return base
	}
	overrides := make(scanner.StaticResolver, len(c.Browsers.Roots))
	for name, dir := range c.Browsers.Roots {
		if f, ok := scanner.FamilyByName(name); ok {
			overrides[f.Name] = dir
		}
	}
	return scanner.OverrideResolver{Overrides: overrides, Base: base}
}

// SearchOptions returns the index build options.
func (c *Config) SearchOptions() search.Options {
	tr, _ := search.NewTransliterator(c.Search.Transliteration)
	return search.Options{Weights: c.Search.Weights, Transliterator: tr}
}

// ClampLimit maps a requested limit onto the configured bounds: a
// non-positive request means the default, and nothing exceeds the maximum.
func (c *Config) ClampLimit(n int) int {
	if n <= 0 {
		n = c.Search.DefaultLimit
	}
	if n > c.Search.MaxLimit {
		n = c.Search.MaxLimit
	}
	return n
}

// WriteYAML writes the configuration to a YAML file, creating its directory.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
