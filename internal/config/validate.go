package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SystemDir) == "" {
		return errors.New("paths.system_dir must be set")
	}
	if c.Paths.OutputDir == c.Paths.SystemDir {
		return errors.New("paths.output_dir and paths.system_dir must differ")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.Retries > 10 {
		return fmt.Errorf("download.retries must be at most 10, got %d", c.Download.Retries)
	}
	for i, strategy := range c.Download.Strategies {
		if strings.TrimSpace(strategy.Name) == "" {
			return fmt.Errorf("download.strategies[%d].name must be set", i)
		}
		if len(strategy.Clients) == 0 {
			return fmt.Errorf("download.strategies[%d].clients must not be empty", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
