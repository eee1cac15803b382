package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSettings()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(SettingsFileEnv); ok && strings.TrimSpace(value) != "" {
		if strings.TrimSpace(c.Paths.SettingsFile) == "" || c.Paths.SettingsFile == defaultSettingsFile {
			c.Paths.SettingsFile = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.SettingsFile) == "" {
		c.Paths.SettingsFile = defaultSettingsFile
	}
	if strings.TrimSpace(c.Paths.StorePath) == "" {
		c.Paths.StorePath = defaultStorePath
	}

	var err error
	if c.Paths.SettingsFile, err = expandPath(c.Paths.SettingsFile); err != nil {
		return fmt.Errorf("paths.settings_file: %w", err)
	}
	if c.Paths.StorePath, err = expandPath(c.Paths.StorePath); err != nil {
		return fmt.Errorf("paths.store_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSettings() {
	c.Settings.Backend = strings.ToLower(strings.TrimSpace(c.Settings.Backend))
	if c.Settings.Backend == "" {
		c.Settings.Backend = BackendFile
	}
	c.Settings.Profile = strings.TrimSpace(c.Settings.Profile)
	if c.Settings.Profile == "" {
		c.Settings.Profile = defaultProfile
	}
	if c.Settings.Separator == "" {
		c.Settings.Separator = defaultSeparator
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
