// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"ordervox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Transcriber.APIKey = "test-key"
	cfg.Transcriber.MaxRetries = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithDailyBudget overrides the daily budget on the test config.
func WithDailyBudget(budget float64) ConfigOption {
	return func(c *config.Config) {
		c.Budget.Daily = budget
	}
}

// WithMaxRetries overrides the transcriber retry count.
func WithMaxRetries(retries int) ConfigOption {
	return func(c *config.Config) {
		c.Transcriber.MaxRetries = retries
	}
}
