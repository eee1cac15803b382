package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSettings(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSettings() error {
	switch c.Settings.Backend {
	case BackendFile:
		switch strings.ToLower(filepath.Ext(c.Paths.SettingsFile)) {
		case ".toml", ".yaml", ".yml":
		default:
			return fmt.Errorf("paths.settings_file must end in .toml, .yaml or .yml (got %q)", c.Paths.SettingsFile)
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Paths.StorePath) == "" {
			return errors.New("paths.store_path must be set for the sqlite backend")
		}
	default:
		return fmt.Errorf("settings.backend: unsupported value %q (want %q or %q)", c.Settings.Backend, BackendFile, BackendSQLite)
	}

	if utf8.RuneCountInString(c.Settings.Separator) != 1 {
		return fmt.Errorf("settings.separator must be a single character (got %q)", c.Settings.Separator)
	}
	r, _ := utf8.DecodeRuneInString(c.Settings.Separator)
	if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		return fmt.Errorf("settings.separator %q would split key names", c.Settings.Separator)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
