// Package pipeline composes admission control, the transcription
// cache, audio optimization, and the speech-to-text boundary into the
// per-request ordering flow.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ordervox/internal/audio"
	"ordervox/internal/config"
	"ordervox/internal/logging"
	"ordervox/internal/metrics"
	"ordervox/internal/optimizer"
	"ordervox/internal/orders"
	"ordervox/internal/services"
	"ordervox/internal/transcache"
	"ordervox/internal/usage"
)

// Transcriber is the boundary to the billable speech-to-text backend.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, format audio.Format) (string, error)
}

// Result is the outcome of one voice-order request.
type Result struct {
	RequestID         string
	TranscriptionText string
	Items             []orders.Item
	Cached            bool
	Optimized         bool
	Cost              float64
	Optimization      optimizer.Result
}

// Pipeline processes inbound voice-order audio end to end.
type Pipeline struct {
	cfg         *config.Config
	optimizer   *optimizer.Optimizer
	cache       *transcache.Cache
	tracker     *usage.Tracker
	transcriber Transcriber
	parser      orders.Parser
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New constructs a pipeline with initialized dependencies.
func New(cfg *config.Config, opt *optimizer.Optimizer, cache *transcache.Cache, tracker *usage.Tracker,
	transcriber Transcriber, parser orders.Parser, m *metrics.Metrics, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil || opt == nil || cache == nil || tracker == nil || transcriber == nil || parser == nil || m == nil {
		return nil, errors.New("pipeline requires config, optimizer, cache, tracker, transcriber, parser, and metrics")
	}
	return &Pipeline{
		cfg:         cfg,
		optimizer:   opt,
		cache:       cache,
		tracker:     tracker,
		transcriber: transcriber,
		parser:      parser,
		metrics:     m,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Process handles one inbound audio clip: admission check, cache
// lookup, optimization, transcription, and usage recording. Budget
// denial surfaces as services.ErrBudgetExceeded; cache hits are free
// and are served even when the budget is exhausted.
func (p *Pipeline) Process(ctx context.Context, raw []byte, format audio.Format) (*Result, error) {
	if len(raw) == 0 {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "process", "empty audio payload", nil)
	}

	requestID := uuid.NewString()
	key := audio.Fingerprint(raw)
	logger := p.logger.With(logging.String(logging.FieldRequestID, requestID))

	allowed, admitErr := p.tracker.Admit(ctx)

	// Hits never incur spend, so they bypass admission entirely.
	if entry, ok := p.cache.Get(key); ok {
		return p.finish(ctx, logger, requestID, entry, true, optimizer.Result{})
	}

	if admitErr != nil {
		// Fail toward denying spend when budget state is unreadable.
		p.metrics.RequestsDenied.Inc()
		return nil, services.Wrap(services.ErrBudgetExceeded, "pipeline", "admit", "budget state unavailable", admitErr)
	}
	if !allowed {
		p.metrics.RequestsDenied.Inc()
		return nil, services.Wrap(services.ErrBudgetExceeded, "pipeline", "admit",
			"daily budget exhausted, only cached requests are served", nil)
	}

	var optResult optimizer.Result
	entry, shared, err := p.cache.GetOrCompute(ctx, key, func(fillCtx context.Context) (string, float64, error) {
		text, cost, fillResult, fillErr := p.fill(fillCtx, logger, raw, format)
		if fillErr != nil {
			return "", 0, fillErr
		}
		optResult = fillResult
		return text, cost, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Error("transcription failed", logging.Error(err), logging.String(logging.FieldCacheKey, key))
		return nil, err
	}

	// shared covers both stored entries and another caller's in-flight
	// fill; in either case this request incurred no new spend.
	if shared {
		optResult = optimizer.Result{}
	}
	return p.finish(ctx, logger, requestID, entry, shared, optResult)
}

// fill runs the paid path for a cache miss: optimize, transcribe with
// bounded retries, and price the attempt.
func (p *Pipeline) fill(ctx context.Context, logger *slog.Logger, raw []byte, format audio.Format) (string, float64, optimizer.Result, error) {
	asset := audio.NewAsset(int64(len(raw)), format)
	analysis := p.optimizer.Analyze(asset)
	result := p.optimizer.Optimize(asset)

	// Transcription is billed at the optimized size; the parsing
	// collaborator adds its fixed per-request cost.
	cost := analysis.EstimatedCost - result.CostSavingsEstimate + p.cfg.Parsing.PerRequestCost

	logger.Debug("cache miss, transcribing",
		logging.Int64("size_bytes", asset.SizeBytes),
		logging.String("format", string(asset.Format)),
		logging.Bool("optimized", result.Optimized()),
		logging.Float64("compression_ratio", result.CompressionRatio),
		logging.Float64(logging.FieldCost, cost))

	start := time.Now()
	text, err := p.transcribeWithRetry(ctx, raw, format)
	p.metrics.TranscriptionSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.TranscriptionFailures.Inc()
		return "", 0, optimizer.Result{}, err
	}
	return text, cost, result, nil
}

const (
	retryInitialBackoff = 500 * time.Millisecond
	retryMaxBackoff     = 5 * time.Second
)

func (p *Pipeline) transcribeWithRetry(ctx context.Context, data []byte, format audio.Format) (string, error) {
	attempts := 1 + p.cfg.Transcriber.MaxRetries
	delay := retryInitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := p.transcriber.Transcribe(ctx, data, format)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !services.Retryable(err) || attempt == attempts {
			break
		}
		p.logger.Warn("transcription attempt failed, retrying",
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		if next := delay * 2; next <= retryMaxBackoff {
			delay = next
		}
	}
	return "", lastErr
}

// finish records usage, updates metrics, and parses the transcript.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, requestID string, entry transcache.Entry, cached bool, optResult optimizer.Result) (*Result, error) {
	cost := 0.0
	optimized := false
	if !cached {
		cost = entry.CostAtComputation
		optimized = optResult.Optimized()
	}

	if err := p.tracker.RecordRequest(ctx, requestID, cost, cached, optimized); err != nil {
		// The spend already happened; losing one record skews stats
		// but must not fail the served request.
		logger.Warn("failed to record usage", logging.Error(err))
	}

	p.metrics.RequestsTotal.Inc()
	if cached {
		p.metrics.CacheHits.Inc()
	} else {
		p.metrics.CacheMisses.Inc()
		p.metrics.SpendTotal.Add(cost)
	}
	if optimized {
		p.metrics.OptimizedRequests.Inc()
	}
	if stats, err := p.tracker.CurrentStats(ctx); err == nil {
		p.metrics.BudgetUtilization.Set(stats.BudgetUtilization)
	}

	items, err := p.parser.Parse(entry.TranscriptionText)
	if err != nil {
		// Parsing degradation never blocks the transcription result.
		logger.Warn("order parsing failed", logging.Error(err))
		items = nil
	}

	logger.Info("request complete",
		logging.Bool("cached", cached),
		logging.Bool("optimized", optimized),
		logging.Float64(logging.FieldCost, cost),
		logging.Int("items", len(items)))

	return &Result{
		RequestID:         requestID,
		TranscriptionText: entry.TranscriptionText,
		Items:             items,
		Cached:            cached,
		Optimized:         optimized,
		Cost:              cost,
		Optimization:      optResult,
	}, nil
}
