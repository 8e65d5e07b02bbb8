package config

import (
	"strings"
	"testing"

	"go.uber.org/multierr"
)

const (
	errUnexpectedError = "unexpected error: %v"
	errExpectedValErr  = "expected validation error"
)

func TestConfigValidate_Valid(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Path = "/var/lib/layerdb/data.ldb"
	cfg.Store.KeyFile = "/etc/layerdb/store.key"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config should pass validation: %v", err)
	}
}

func TestConfigValidate_EmptyOptionalFields(t *testing.T) {
	cfg := Defaults()
	cfg.Store.KeyFile = ""
	cfg.Logging.Level = ""
	cfg.Logging.Format = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf(errUnexpectedError, err)
	}
}

func TestConfigValidate_InvalidStore(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"blank path", func(c *Config) { c.Store.Path = "   " }, "store.path"},
		{"unknown format", func(c *Config) { c.Store.Format = "sqlite" }, "store.format"},
		{"empty format", func(c *Config) { c.Store.Format = "" }, "store.format"},
		{"key with bolt", func(c *Config) {
			c.Store.Format = FormatBolt
			c.Store.KeyFile = "/etc/layerdb/store.key"
		}, "store.key_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal(errExpectedValErr)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error should mention %s: %v", tt.field, err)
			}
		})
	}
}

func TestConfigValidate_InvalidLogging(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	if err == nil {
		t.Fatal(errExpectedValErr)
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("error should mention logging.level: %v", err)
	}

	cfg = Defaults()
	cfg.Logging.Format = "xml"
	err = cfg.Validate()
	if err == nil {
		t.Fatal(errExpectedValErr)
	}
	if !strings.Contains(err.Error(), "logging.format") {
		t.Errorf("error should mention logging.format: %v", err)
	}
}

func TestConfigValidate_MultipleErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Path = ""
	cfg.Store.Format = "nope"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal(errExpectedValErr)
	}
	if n := len(multierr.Errors(err)); n != 3 {
		t.Errorf("expected 3 errors, got %d: %v", n, err)
	}
	for _, field := range []string{"store.path", "store.format", "logging.level"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s: %v", field, err)
		}
	}
}

func TestValidateLogLevel(t *testing.T) {
	valid := []string{"", "debug", "info", "warn", "warning", "error", "DEBUG", "Info", " warn "}
	for _, lvl := range valid {
		if err := validateLogLevel(lvl); err != nil {
			t.Errorf("validateLogLevel(%q): %v", lvl, err)
		}
	}
	invalid := []string{"trace", "fatal", "verbose", "1"}
	for _, lvl := range invalid {
		if err := validateLogLevel(lvl); err == nil {
			t.Errorf("validateLogLevel(%q) should fail", lvl)
		}
	}
}

func TestValidateLogLevel_WhitespaceOnly(t *testing.T) {
	if err := validateLogLevel("   "); err != nil {
		t.Errorf("whitespace-only level should be treated as empty: %v", err)
	}
}
