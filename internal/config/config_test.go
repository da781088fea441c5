package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ordervox/internal/config"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "ordervox")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7910" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Budget.Daily != 5.00 {
		t.Fatalf("unexpected daily budget: %v", cfg.Budget.Daily)
	}
	if cfg.Budget.WarningUtilization != 0.8 {
		t.Fatalf("unexpected warning utilization: %v", cfg.Budget.WarningUtilization)
	}
	if cfg.Optimizer.SizeThresholdBytes != 500*1024 {
		t.Fatalf("unexpected size threshold: %d", cfg.Optimizer.SizeThresholdBytes)
	}
	if cfg.Transcriber.PerMinuteRate != 0.006 {
		t.Fatalf("unexpected per-minute rate: %v", cfg.Transcriber.PerMinuteRate)
	}
	if cfg.Transcriber.APIKey != "env-key" {
		t.Fatalf("expected transcriber key from env, got %q", cfg.Transcriber.APIKey)
	}
	if cfg.Parsing.PerRequestCost != 0.002 {
		t.Fatalf("unexpected parsing cost: %v", cfg.Parsing.PerRequestCost)
	}
}

func TestLoadParsesOverridesAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	content := strings.Join([]string{
		"[paths]",
		`data_dir = "~/ordervox-data"`,
		"[budget]",
		"daily = 12.5",
		"[cache]",
		`path = "~/cache/transcriptions.json"`,
		"[transcriber]",
		`api_key = "file-key"`,
		"per_minute_rate = 0.01",
	}, "\n")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "ordervox-data") {
		t.Fatalf("data dir not expanded: %q", cfg.Paths.DataDir)
	}
	if cfg.Cache.Path != filepath.Join(tempHome, "cache", "transcriptions.json") {
		t.Fatalf("cache path not expanded: %q", cfg.Cache.Path)
	}
	if cfg.Budget.Daily != 12.5 {
		t.Fatalf("budget override lost: %v", cfg.Budget.Daily)
	}
	if cfg.Transcriber.APIKey != "file-key" {
		t.Fatalf("unexpected api key: %q", cfg.Transcriber.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero budget", func(c *config.Config) { c.Budget.Daily = 0 }},
		{"warning at 1", func(c *config.Config) { c.Budget.WarningUtilization = 1.0 }},
		{"negative retries", func(c *config.Config) { c.Transcriber.MaxRetries = -1 }},
		{"zero cache capacity", func(c *config.Config) { c.Cache.Capacity = 0 }},
		{"zero size threshold", func(c *config.Config) { c.Optimizer.SizeThresholdBytes = 0 }},
		{"empty bind", func(c *config.Config) { c.Paths.APIBind = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Budget.Daily != config.Default().Budget.Daily {
		t.Fatalf("sample diverges from defaults: %v", cfg.Budget.Daily)
	}
}
