package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Flattening defaults
	MaxDepth       int    `yaml:"max_depth"`
	LabelSeparator string `yaml:"label_separator"`

	// Source catalog
	SourcesDir        string        `yaml:"sources_dir"`
	WatchSources      bool          `yaml:"watch_sources"`
	WatchDebounce     time.Duration `yaml:"watch_debounce"`
	ReloadStatsWindow time.Duration `yaml:"reload_stats_window"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:              "8090",
		MaxDepth:          3,
		LabelSeparator:    " | ",
		WatchSources:      true,
		WatchDebounce:     250 * time.Millisecond,
		ReloadStatsWindow: time.Hour,
		MaxUploadBytes:    5 << 20, // 5MB
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// NAVCORE_CONFIG if set, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("NAVCORE_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("NAVCORE_API_KEY", cfg.APIKey)
	cfg.MaxDepth = envInt("NAV_MAX_DEPTH", cfg.MaxDepth)
	cfg.LabelSeparator = envOr("NAV_LABEL_SEPARATOR", cfg.LabelSeparator)
	cfg.SourcesDir = envOr("NAV_SOURCES_DIR", cfg.SourcesDir)
	cfg.WatchSources = envBool("WATCH_SOURCES", cfg.WatchSources)
	cfg.WatchDebounce = envDuration("WATCH_DEBOUNCE", cfg.WatchDebounce)
	cfg.ReloadStatsWindow = envDuration("RELOAD_STATS_WINDOW", cfg.ReloadStatsWindow)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	d := Defaults()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.WatchDebounce < 0 {
		cfg.WatchDebounce = d.WatchDebounce
	}
	if cfg.ReloadStatsWindow <= 0 {
		cfg.ReloadStatsWindow = d.ReloadStatsWindow
	}
	if cfg.LabelSeparator == "" {
		cfg.LabelSeparator = d.LabelSeparator
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("NAVCORE_API_KEY is required")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("NAV_MAX_DEPTH must be >= 0, got %d", c.MaxDepth)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
