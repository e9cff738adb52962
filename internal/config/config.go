// Package config provides configuration loading for strata.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/omerida/dokuwiki-strata/internal/dialect"
)

// Config is the complete strata configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`

	// Debug logs the SQL and bound literals of failed statements.
	Debug bool `yaml:"debug"`

	// DefaultGraph is the graph imported triples are written to when none is
	// given. Empty means a fresh graph name per import.
	DefaultGraph string `yaml:"default_graph"`
}

// DatabaseConfig selects the data source.
type DatabaseConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// Dialect is the SQL dialect queries are compiled for.
	Dialect string `yaml:"dialect"`
}

// LogConfig configures the logger built by NewLogger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Environment variables read by ApplyEnv.
const (
	EnvDatabase     = "STRATA_DB"
	EnvDialect      = "STRATA_DIALECT"
	EnvDebug        = "STRATA_DEBUG"
	EnvLogLevel     = "STRATA_LOG_LEVEL"
	EnvDefaultGraph = "STRATA_DEFAULT_GRAPH"
)

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:    "strata.db",
			Dialect: "sqlite",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
// Unknown keys are rejected.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Unset or empty
// variables leave the field alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvDatabase); v != "" {
		c.Database.Path = v
	}
	if v := getenv(EnvDialect); v != "" {
		c.Database.Dialect = v
	}
	if v := getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		c.Debug = debug
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvDefaultGraph); v != "" {
		c.DefaultGraph = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := dialect.ForName(c.Database.Dialect); err != nil {
		return fmt.Errorf("database.dialect: %w", err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Dialect returns the configured SQL dialect.
func (c *Config) Dialect() (dialect.Dialect, error) {
	return dialect.ForName(c.Database.Dialect)
}

// NewLogger builds the logger described by c.Log writing to w. Debug mode
// forces the debug level.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
