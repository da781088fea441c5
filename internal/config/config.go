package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Budget contains the rolling-window spend controls.
type Budget struct {
	Daily              float64 `toml:"daily"`
	WarningUtilization float64 `toml:"warning_utilization"`
	WindowHours        int     `toml:"window_hours"`
}

// Cache contains transcription cache settings. An empty Path disables
// persistence; entries then live only for the process lifetime.
type Cache struct {
	TTLHours int    `toml:"ttl_hours"`
	Capacity int    `toml:"capacity"`
	Path     string `toml:"path"`
}

// Optimizer contains audio optimization thresholds.
type Optimizer struct {
	SizeThresholdBytes int64 `toml:"size_threshold_bytes"`
}

// Transcriber contains configuration for the speech-to-text backend.
type Transcriber struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxRetries     int     `toml:"max_retries"`
	PerMinuteRate  float64 `toml:"per_minute_rate"`
}

// Parsing contains the order-parsing cost adder.
type Parsing struct {
	PerRequestCost float64 `toml:"per_request_cost"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ordervox.
//
// Sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Budget: daily spend ceiling and alert threshold
//   - Cache: transcription cache TTL, capacity, persistence path
//   - Optimizer: re-encoding decision thresholds
//   - Transcriber: speech-to-text backend connection and pricing
//   - Parsing: fixed per-request order parsing cost
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Budget      Budget      `toml:"budget"`
	Cache       Cache       `toml:"cache"`
	Optimizer   Optimizer   `toml:"optimizer"`
	Transcriber Transcriber `toml:"transcriber"`
	Parsing     Parsing     `toml:"parsing"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ordervox/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("ordervox.toml")
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

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Cache.Path != "" {
		if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
			return err
		}
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Transcriber.APIKey = strings.TrimSpace(c.Transcriber.APIKey)
	c.Transcriber.BaseURL = strings.TrimSpace(c.Transcriber.BaseURL)
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	c.Logging.Format = strings.TrimSpace(c.Logging.Format)
	c.Logging.Level = strings.TrimSpace(c.Logging.Level)

	if c.Transcriber.APIKey == "" {
		c.Transcriber.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	return nil
}

// EnsureDirectories creates required directories for service operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.Cache.Path), 0o755); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
	}
	return nil
}

// CacheTTL returns the cache TTL as a duration. Zero disables expiry.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLHours <= 0 {
		return 0
	}
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// BudgetWindow returns the rolling accounting window as a duration.
func (c *Config) BudgetWindow() time.Duration {
	hours := c.Budget.WindowHours
	if hours <= 0 {
		hours = defaultBudgetWindowHours
	}
	return time.Duration(hours) * time.Hour
}

// TranscribeTimeout returns the per-call transcription timeout.
func (c *Config) TranscribeTimeout() time.Duration {
	seconds := c.Transcriber.TimeoutSeconds
	if seconds <= 0 {
		seconds = defaultTranscriberTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
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
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
