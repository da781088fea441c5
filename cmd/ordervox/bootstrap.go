package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"ordervox/internal/config"
	"ordervox/internal/logging"
	"ordervox/internal/metrics"
	"ordervox/internal/optimizer"
	"ordervox/internal/orders"
	"ordervox/internal/pipeline"
	"ordervox/internal/services/whisper"
	"ordervox/internal/transcache"
	"ordervox/internal/usage"
)

// components bundles everything a command needs to process orders.
type components struct {
	logger   *slog.Logger
	store    *usage.Store
	tracker  *usage.Tracker
	cache    *transcache.Cache
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
}

func buildComponents(cfg *config.Config) (*components, error) {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := usage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open usage store: %w", err)
	}

	tracker := usage.NewTracker(store, usage.TrackerConfig{
		DailyBudget:        cfg.Budget.Daily,
		WarningUtilization: cfg.Budget.WarningUtilization,
		Window:             cfg.BudgetWindow(),
	}, logger)

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath = filepath.Join(cfg.Paths.DataDir, "transcriptions.json")
	}
	cache := transcache.New(transcache.Options{
		TTL:      cfg.CacheTTL(),
		Capacity: cfg.Cache.Capacity,
		Path:     cachePath,
	}, logger)

	opt := optimizer.New(optimizer.Config{
		SizeThresholdBytes: cfg.Optimizer.SizeThresholdBytes,
		PerMinuteRate:      cfg.Transcriber.PerMinuteRate,
	}, nil)

	client, err := whisper.New(cfg.Transcriber, cfg.TranscribeTimeout())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init transcriber: %w", err)
	}

	m := metrics.New()

	p, err := pipeline.New(cfg, opt, cache, tracker, client, orders.NewKeywordParser(), m, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &components{
		logger:   logger,
		store:    store,
		tracker:  tracker,
		cache:    cache,
		metrics:  m,
		pipeline: p,
	}, nil
}

func (c *components) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}
