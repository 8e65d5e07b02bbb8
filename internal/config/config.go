package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
)

// Store formats accepted in [store] format.
const (
	FormatSnapfile = "snapfile"
	FormatBolt     = "bolt"
)

type Config struct {
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
}

type StoreConfig struct {
	Path    string `toml:"path" env:"LAYERDB_PATH"`
	Format  string `toml:"format" env:"LAYERDB_FORMAT"`
	Sync    bool   `toml:"sync" env:"LAYERDB_SYNC"`
	KeyFile string `toml:"key_file" env:"LAYERDB_KEY_FILE"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"LAYERDB_LOG_LEVEL"`
	Format string `toml:"format" env:"LAYERDB_LOG_FORMAT"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Path:   "~/.layerdb/data.ldb",
			Format: FormatSnapfile,
			Sync:   true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a TOML config file, applies LAYERDB_* environment overrides
// and returns the result. If path is empty, ~/.layerdb/config.toml is used
// when it exists and defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = expandHome("~/.layerdb/config.toml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	} else {
		path = expandHome(path)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs error
	if strings.TrimSpace(c.Store.Path) == "" {
		errs = multierr.Append(errs, fmt.Errorf("store.path: must not be empty"))
	}
	switch c.Store.Format {
	case FormatSnapfile, FormatBolt:
	default:
		errs = multierr.Append(errs, fmt.Errorf("store.format: unknown format %q (want %q or %q)", c.Store.Format, FormatSnapfile, FormatBolt))
	}
	if c.Store.KeyFile != "" && c.Store.Format == FormatBolt {
		errs = multierr.Append(errs, fmt.Errorf("store.key_file: encryption is only supported by the %q format", FormatSnapfile))
	}
	if err := validateLogLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "text", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errs
}

func validateLogLevel(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("unknown level %q", s)
	}
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// StorePath returns the store path with ~ expanded.
func (c *Config) StorePath() string {
	return expandHome(c.Store.Path)
}
