package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCookies()
	c.normalizeFormat()
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MP4GET_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = value
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.SystemDir) == "" {
		c.Paths.SystemDir = defaultSystemDir
	}

	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.SystemDir, err = expandPath(c.Paths.SystemDir); err != nil {
		return fmt.Errorf("paths.system_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.SystemDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCookies() {
	if len(c.Cookies.FileCandidates) == 0 {
		c.Cookies.FileCandidates = defaultCookieFileCandidates()
	}
	if len(c.Cookies.Browsers) == 0 {
		c.Cookies.Browsers = defaultBrowsers()
	}
	for i, browser := range c.Cookies.Browsers {
		c.Cookies.Browsers[i] = strings.ToLower(strings.TrimSpace(browser))
	}
}

func (c *Config) normalizeFormat() {
	c.Format.MergeContainer = strings.ToLower(strings.TrimSpace(c.Format.MergeContainer))
	if c.Format.MergeContainer == "" {
		c.Format.MergeContainer = defaultMergeContainer
	}
	for i, proto := range c.Format.ExcludedProtocols {
		c.Format.ExcludedProtocols[i] = strings.ToLower(strings.TrimSpace(proto))
	}
}

func (c *Config) normalizeDownload() {
	if c.Download.Workers <= 0 {
		c.Download.Workers = defaultWorkers
	}
	if c.Download.Workers > 8 {
		c.Download.Workers = 8
	}
	if c.Download.Retries < 0 {
		c.Download.Retries = defaultRetries
	}
	if c.Download.RetryDelaySeconds <= 0 {
		c.Download.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if c.Download.SocketTimeoutSeconds <= 0 {
		c.Download.SocketTimeoutSeconds = defaultSocketTimeoutSeconds
	}
	if c.Download.MinFileBytes < 0 {
		c.Download.MinFileBytes = defaultMinFileBytes
	}
	if strings.TrimSpace(c.Download.UserAgent) == "" {
		c.Download.UserAgent = defaultUserAgent
	}
	if len(c.Download.Strategies) == 0 {
		c.Download.Strategies = defaultStrategies()
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
