package config

import "fmt"

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
)

// Validate checks every setting, including values overridden by flags after Load
func (c *Config) Validate() error {
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("unsupported log level '%s': supported levels are debug, info, warn, error", c.LogLevel)
	}

	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("unsupported log format '%s': supported formats are text, json", c.LogFormat)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.MaxArchiveSize <= 0 {
		return fmt.Errorf("max_archive_size must be positive, got %d", c.MaxArchiveSize)
	}

	if c.Database == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	return nil
}
