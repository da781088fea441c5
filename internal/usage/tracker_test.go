package usage

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"ordervox/internal/config"
)

func newTestTracker(t *testing.T, budget float64) *Tracker {
	t.Helper()

	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = base
	cfg.Paths.LogDir = base + "/logs"

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewTracker(store, TrackerConfig{
		DailyBudget:        budget,
		WarningUtilization: 0.8,
		Window:             24 * time.Hour,
	}, nil)
}

func TestConcurrentRecordsSumWithoutLostUpdates(t *testing.T) {
	tracker := newTestTracker(t, 100)
	ctx := context.Background()

	const writers = 16
	const perWriter = 10
	const cost = 0.01

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if err := tracker.RecordRequest(ctx, "", cost, false, false); err != nil {
					t.Errorf("RecordRequest: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	stats, err := tracker.CurrentStats(ctx)
	if err != nil {
		t.Fatalf("CurrentStats: %v", err)
	}
	if stats.TotalRequests != writers*perWriter {
		t.Fatalf("lost records: got %d want %d", stats.TotalRequests, writers*perWriter)
	}
	want := float64(writers*perWriter) * cost
	if math.Abs(stats.TotalCost-want) > 1e-9 {
		t.Fatalf("total cost: got %v want %v", stats.TotalCost, want)
	}
}

func TestWindowExcludesOldRecords(t *testing.T) {
	tracker := newTestTracker(t, 5)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// One record 25 hours ago, outside the trailing window.
	tracker.now = func() time.Time { return base.Add(-25 * time.Hour) }
	if err := tracker.RecordRequest(ctx, "old", 3.00, false, false); err != nil {
		t.Fatalf("record old: %v", err)
	}

	tracker.now = func() time.Time { return base }
	if err := tracker.RecordRequest(ctx, "new", 1.00, false, true); err != nil {
		t.Fatalf("record new: %v", err)
	}

	stats, err := tracker.CurrentStats(ctx)
	if err != nil {
		t.Fatalf("CurrentStats: %v", err)
	}
	if stats.TotalRequests != 1 {
		t.Fatalf("expected old record excluded, got %d requests", stats.TotalRequests)
	}
	if math.Abs(stats.TotalCost-1.00) > 1e-9 {
		t.Fatalf("total cost: got %v want 1.00", stats.TotalCost)
	}
	if stats.OptimizationRate != 1.0 {
		t.Fatalf("optimization rate: got %v want 1.0", stats.OptimizationRate)
	}

	// The excluded record is still in the log until pruned.
	removed, err := tracker.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned record, got %d", removed)
	}
}

func TestAlertAndAdmissionBoundaries(t *testing.T) {
	tracker := newTestTracker(t, 5.00)
	ctx := context.Background()

	assertState := func(wantAlert Alert, wantAdmit bool) {
		t.Helper()
		alert, err := tracker.CheckBudgetAlert(ctx)
		if err != nil {
			t.Fatalf("CheckBudgetAlert: %v", err)
		}
		if alert != wantAlert {
			t.Fatalf("alert: got %q want %q", alert, wantAlert)
		}
		allow, err := tracker.Admit(ctx)
		if err != nil {
			t.Fatalf("Admit: %v", err)
		}
		if allow != wantAdmit {
			t.Fatalf("admit: got %v want %v", allow, wantAdmit)
		}
	}

	assertState(AlertNone, true)

	if err := tracker.RecordRequest(ctx, "", 2.00, false, false); err != nil {
		t.Fatalf("record: %v", err)
	}
	assertState(AlertNone, true)

	// 4.00 of 5.00 is utilization 0.8, the warning boundary.
	if err := tracker.RecordRequest(ctx, "", 2.00, false, false); err != nil {
		t.Fatalf("record: %v", err)
	}
	assertState(AlertWarning, true)

	// Crossing 5.00 flips to exceeded and denies paid work.
	if err := tracker.RecordRequest(ctx, "", 1.00, false, false); err != nil {
		t.Fatalf("record: %v", err)
	}
	assertState(AlertExceeded, false)
}

func TestCacheHitRateCountsFreeRequests(t *testing.T) {
	tracker := newTestTracker(t, 5)
	ctx := context.Background()

	if err := tracker.RecordRequest(ctx, "", 0.02, false, true); err != nil {
		t.Fatalf("record miss: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := tracker.RecordRequest(ctx, "", 0, true, false); err != nil {
			t.Fatalf("record hit: %v", err)
		}
	}

	stats, err := tracker.CurrentStats(ctx)
	if err != nil {
		t.Fatalf("CurrentStats: %v", err)
	}
	if stats.TotalRequests != 4 {
		t.Fatalf("total requests: got %d want 4", stats.TotalRequests)
	}
	if math.Abs(stats.CacheHitRate-0.75) > 1e-9 {
		t.Fatalf("cache hit rate: got %v want 0.75", stats.CacheHitRate)
	}
	if math.Abs(stats.AvgCostPerRequest-0.005) > 1e-9 {
		t.Fatalf("avg cost: got %v want 0.005", stats.AvgCostPerRequest)
	}
}

func TestSchemaMismatchDetected(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = base
	cfg.Paths.LogDir = base + "/logs"

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	store.Close()

	if _, err := Open(&cfg); err == nil {
		t.Fatal("expected schema mismatch error")
	}
}
