package pipeline_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"ordervox/internal/audio"
	"ordervox/internal/config"
	"ordervox/internal/metrics"
	"ordervox/internal/optimizer"
	"ordervox/internal/orders"
	"ordervox/internal/pipeline"
	"ordervox/internal/services"
	"ordervox/internal/testsupport"
	"ordervox/internal/transcache"
	"ordervox/internal/usage"
)

type fakeTranscriber struct {
	invocations atomic.Int64
	fn          func(attempt int64) (string, error)
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ audio.Format) (string, error) {
	attempt := f.invocations.Add(1)
	if f.fn != nil {
		return f.fn(attempt)
	}
	return "two burgers and fries", nil
}

type fixture struct {
	cfg         *config.Config
	pipeline    *pipeline.Pipeline
	tracker     *usage.Tracker
	transcriber *fakeTranscriber
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	tracker := testsupport.MustOpenTracker(t, cfg)

	opt := optimizer.New(optimizer.Config{
		SizeThresholdBytes: cfg.Optimizer.SizeThresholdBytes,
		PerMinuteRate:      cfg.Transcriber.PerMinuteRate,
	}, nil)
	cache := transcache.New(transcache.Options{
		TTL:      cfg.CacheTTL(),
		Capacity: cfg.Cache.Capacity,
	}, nil)
	transcriber := &fakeTranscriber{}

	p, err := pipeline.New(cfg, opt, cache, tracker, transcriber, orders.NewKeywordParser(), metrics.New(), nil)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return &fixture{cfg: cfg, pipeline: p, tracker: tracker, transcriber: transcriber}
}

func TestEndToEndMissThenHit(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// 800 KB of wav exceeds the threshold and is not mp3: ratio is
	// 1.5 * min(4.0, 800/200) = 6.0.
	raw := make([]byte, 800*1024)
	for i := range raw {
		raw[i] = byte(i)
	}

	first, err := fx.pipeline.Process(ctx, raw, audio.FormatWAV)
	if err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if first.Cached {
		t.Fatal("first request must be a cache miss")
	}
	if !first.Optimized {
		t.Fatal("large wav must be optimized")
	}
	if math.Abs(first.Optimization.CompressionRatio-6.0) > 1e-9 {
		t.Fatalf("compression ratio: got %v want 6.0", first.Optimization.CompressionRatio)
	}
	wantSize := int64(math.Round(float64(800*1024) / 6.0))
	if first.Optimization.OptimizedSizeBytes != wantSize {
		t.Fatalf("optimized size: got %d want %d", first.Optimization.OptimizedSizeBytes, wantSize)
	}

	// Cost is the modeled transcription cost plus the parsing adder.
	durationMs := int64(800*1024) * 8 / 1411
	wantCost := float64(durationMs)/60000*fx.cfg.Transcriber.PerMinuteRate + fx.cfg.Parsing.PerRequestCost
	if math.Abs(first.Cost-wantCost) > 1e-9 {
		t.Fatalf("cost: got %v want %v", first.Cost, wantCost)
	}
	if first.TranscriptionText != "two burgers and fries" {
		t.Fatalf("unexpected transcript: %q", first.TranscriptionText)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected parsed items, got %+v", first.Items)
	}

	// Identical raw bytes hit the cache at zero cost.
	second, err := fx.pipeline.Process(ctx, raw, audio.FormatWAV)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if !second.Cached {
		t.Fatal("second request must be a cache hit")
	}
	if second.Cost != 0 {
		t.Fatalf("cache hit must be free, got cost %v", second.Cost)
	}
	if second.TranscriptionText != first.TranscriptionText {
		t.Fatal("hit must return the cached transcript")
	}
	if got := fx.transcriber.invocations.Load(); got != 1 {
		t.Fatalf("expected single backend call, got %d", got)
	}

	stats, err := fx.tracker.CurrentStats(ctx)
	if err != nil {
		t.Fatalf("CurrentStats: %v", err)
	}
	if stats.TotalRequests != 2 {
		t.Fatalf("expected 2 usage records, got %d", stats.TotalRequests)
	}
	if math.Abs(stats.TotalCost-wantCost) > 1e-9 {
		t.Fatalf("window cost: got %v want %v", stats.TotalCost, wantCost)
	}
	if stats.CacheHitRate != 0.5 {
		t.Fatalf("cache hit rate: got %v want 0.5", stats.CacheHitRate)
	}
}

func TestBudgetDenialStillServesCachedRequests(t *testing.T) {
	fx := newFixture(t, testsupport.WithDailyBudget(5.00))
	ctx := context.Background()

	known := []byte("a known order clip")
	if _, err := fx.pipeline.Process(ctx, known, audio.FormatMP3); err != nil {
		t.Fatalf("seed Process: %v", err)
	}

	// Exhaust the budget out of band.
	if err := fx.tracker.RecordRequest(ctx, "burn", 5.00, false, false); err != nil {
		t.Fatalf("record: %v", err)
	}

	// New content would incur spend and is denied.
	_, err := fx.pipeline.Process(ctx, []byte("brand new clip"), audio.FormatMP3)
	if !errors.Is(err, services.ErrBudgetExceeded) {
		t.Fatalf("expected budget denial, got %v", err)
	}

	// Cached content is free and keeps flowing.
	result, err := fx.pipeline.Process(ctx, known, audio.FormatMP3)
	if err != nil {
		t.Fatalf("cached Process during denial: %v", err)
	}
	if !result.Cached || result.Cost != 0 {
		t.Fatalf("expected free cached result, got %+v", result)
	}
}

func TestTransientFailuresAreRetried(t *testing.T) {
	fx := newFixture(t, testsupport.WithMaxRetries(2))
	ctx := context.Background()

	fx.transcriber.fn = func(attempt int64) (string, error) {
		if attempt == 1 {
			return "", services.Wrap(services.ErrTransient, "whisper", "transcribe", "flaky", nil)
		}
		return "a salad", nil
	}

	result, err := fx.pipeline.Process(ctx, []byte("clip"), audio.FormatMP3)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.TranscriptionText != "a salad" {
		t.Fatalf("unexpected transcript: %q", result.TranscriptionText)
	}
	if got := fx.transcriber.invocations.Load(); got != 2 {
		t.Fatalf("expected retry, got %d invocations", got)
	}
}

func TestTerminalFailuresAreNotRetriedOrCached(t *testing.T) {
	fx := newFixture(t, testsupport.WithMaxRetries(3))
	ctx := context.Background()

	boom := services.Wrap(services.ErrValidation, "whisper", "transcribe", "unsupported input", nil)
	fx.transcriber.fn = func(int64) (string, error) { return "", boom }

	_, err := fx.pipeline.Process(ctx, []byte("clip"), audio.FormatMP3)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := fx.transcriber.invocations.Load(); got != 1 {
		t.Fatalf("terminal errors must not retry, got %d invocations", got)
	}

	// The failure was not cached; the next attempt recomputes.
	fx.transcriber.fn = nil
	result, err := fx.pipeline.Process(ctx, []byte("clip"), audio.FormatMP3)
	if err != nil {
		t.Fatalf("recovery Process: %v", err)
	}
	if result.Cached {
		t.Fatal("recovery must be a fresh computation")
	}

	// Failed attempts complete no request, so only the success is in
	// the usage log.
	stats, err := fx.tracker.CurrentStats(ctx)
	if err != nil {
		t.Fatalf("CurrentStats: %v", err)
	}
	if stats.TotalRequests != 1 {
		t.Fatalf("expected 1 usage record, got %d", stats.TotalRequests)
	}
}

func TestEmptyPayloadRejected(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.pipeline.Process(context.Background(), nil, audio.FormatMP3); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
