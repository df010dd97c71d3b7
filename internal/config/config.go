package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// OutputDir receives the final merged media files.
	OutputDir string `toml:"output_dir"`
	// SystemDir holds run support files: the run lock, the history
	// database, exported browser cookies, and logs.
	SystemDir string `toml:"system_dir"`
	LogDir    string `toml:"log_dir"`
}

// Cookies configures the credential resolution chain.
type Cookies struct {
	// FileCandidates are probed in order before any browser store.
	// Relative paths are resolved against the working directory.
	FileCandidates []string `toml:"file_candidates"`
	// Browsers are probed in order after the file candidates.
	Browsers []string `toml:"browsers"`
}

// Format configures representation selection.
type Format struct {
	// MaxHeight caps the selected resolution; 0 means unlimited.
	MaxHeight int `toml:"max_height"`
	// ExcludedProtocols lists delivery protocols skipped during selection
	// because they are unreliable for restricted content.
	ExcludedProtocols []string `toml:"excluded_protocols"`
	// MergeContainer is the container the retrieval engine merges into.
	MergeContainer string `toml:"merge_container"`
}

// Strategy describes one player client profile tier handed to the retrieval
// engine. Tiers are walked in order when the active one keeps failing to
// serve fragments.
type Strategy struct {
	Name       string   `toml:"name"`
	UseCookies bool     `toml:"use_cookies"`
	Clients    []string `toml:"clients"`
}

// Download configures execution of individual jobs.
type Download struct {
	// Workers bounds concurrent downloads (clamped to 1..8).
	Workers int `toml:"workers"`
	// Retries is the per-attempt bound for transient failures.
	Retries int `toml:"retries"`
	// RetryDelaySeconds is the base delay; attempt n waits n times this.
	RetryDelaySeconds int `toml:"retry_delay_seconds"`
	// SocketTimeoutSeconds is passed to the retrieval engine.
	SocketTimeoutSeconds int `toml:"socket_timeout_seconds"`
	// MinFileBytes rejects suspiciously small outputs as failures.
	MinFileBytes int64 `toml:"min_file_bytes"`
	// RateLimit caps per-download bandwidth (e.g. "4M"); empty means unlimited.
	RateLimit string `toml:"rate_limit"`
	UserAgent string `toml:"user_agent"`
	// Strategies are the client profile tiers, most reliable first.
	Strategies []Strategy `toml:"strategies"`
}

// History configures the persisted run outcome store.
type History struct {
	Enabled bool `toml:"enabled"`
	// Keep bounds how many recent runs are retained; 0 keeps all.
	Keep int `toml:"keep"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mp4get.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Cookies  Cookies  `toml:"cookies"`
	Format   Format   `toml:"format"`
	Download Download `toml:"download"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mp4get/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mp4get.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run depends on. Failure here
// is a run-wide precondition error: nothing can be downloaded without them.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.SystemDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the run history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.SystemDir, "history.db")
}

// LockPath returns the location of the run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.SystemDir, "run.lock")
}

// YtDlpBinary returns the retrieval engine executable name.
func (c *Config) YtDlpBinary() string {
	return "yt-dlp"
}

// FFmpegBinary returns the merge tool executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
