package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ordervox/internal/logging"
)

// Alert is a budget alert kind derived from window utilization.
type Alert string

const (
	AlertNone     Alert = ""
	AlertWarning  Alert = "BUDGET_WARNING"
	AlertExceeded Alert = "BUDGET_EXCEEDED"
)

// Stats is the derived budget state over the trailing window.
type Stats struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalCost         float64 `json:"total_cost"`
	AvgCostPerRequest float64 `json:"avg_cost_per_request"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	OptimizationRate  float64 `json:"optimization_rate"`
	BudgetUtilization float64 `json:"budget_utilization"`
	WithinBudget      bool    `json:"within_budget"`
}

// Alert returns the alert kind for the given warning threshold.
func (s Stats) Alert(warningUtilization float64) Alert {
	switch {
	case s.BudgetUtilization >= 1.0:
		return AlertExceeded
	case s.BudgetUtilization >= warningUtilization:
		return AlertWarning
	default:
		return AlertNone
	}
}

// TrackerConfig carries the budget constants for a tracker.
type TrackerConfig struct {
	DailyBudget        float64
	WarningUtilization float64
	Window             time.Duration
}

// Tracker is the sole owner of the usage log and the derived budget
// state. Safe for concurrent use.
type Tracker struct {
	store  *Store
	cfg    TrackerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker wraps a store with budget accounting.
func NewTracker(store *Store, cfg TrackerConfig, logger *slog.Logger) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	return &Tracker{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "usage"),
		now:    time.Now,
	}
}

// RecordRequest appends one usage record stamped with the completion
// time. Cache hits are recorded with zero cost so hit-rate and request
// totals stay accurate.
func (t *Tracker) RecordRequest(ctx context.Context, requestID string, cost float64, cached, optimized bool) error {
	record := Record{
		RequestID: requestID,
		Cost:      cost,
		Cached:    cached,
		Optimized: optimized,
		CreatedAt: t.now(),
	}
	if err := t.store.Append(ctx, record); err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	t.logger.Debug("recorded usage",
		logging.String(logging.FieldRequestID, requestID),
		logging.Float64(logging.FieldCost, cost),
		logging.Bool("cached", cached),
		logging.Bool("optimized", optimized))
	return nil
}

// CurrentStats derives budget state from the records inside the
// trailing window. The aggregate is computed in a single query, so
// concurrent appends never produce a torn read.
func (t *Tracker) CurrentStats(ctx context.Context) (Stats, error) {
	windowStart := t.now().Add(-t.cfg.Window)
	agg, err := t.store.aggregateSince(ctx, windowStart)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalRequests: agg.totalRequests,
		TotalCost:     agg.totalCost,
	}
	if agg.totalRequests > 0 {
		requests := float64(agg.totalRequests)
		stats.AvgCostPerRequest = agg.totalCost / requests
		stats.CacheHitRate = float64(agg.cachedCount) / requests
		stats.OptimizationRate = float64(agg.optimizedCount) / requests
	}
	if t.cfg.DailyBudget > 0 {
		stats.BudgetUtilization = agg.totalCost / t.cfg.DailyBudget
	}
	stats.WithinBudget = stats.BudgetUtilization < 1.0
	return stats, nil
}

// CheckBudgetAlert returns the active alert for the current window.
func (t *Tracker) CheckBudgetAlert(ctx context.Context) (Alert, error) {
	stats, err := t.CurrentStats(ctx)
	if err != nil {
		return AlertNone, err
	}
	return stats.Alert(t.cfg.WarningUtilization), nil
}

// Admit decides whether paid work may proceed. It denies only when the
// budget is exceeded; cache hits are free and never pass through here.
// Errors fail toward denying spend.
func (t *Tracker) Admit(ctx context.Context) (bool, error) {
	stats, err := t.CurrentStats(ctx)
	if err != nil {
		return false, fmt.Errorf("admission check: %w", err)
	}
	if !stats.WithinBudget {
		t.logger.Warn("denying paid work, budget exceeded",
			logging.Float64("utilization", stats.BudgetUtilization),
			logging.Alert(string(AlertExceeded)))
		return false, nil
	}
	return true, nil
}

// Prune removes records that fell out of the trailing window.
func (t *Tracker) Prune(ctx context.Context) (int64, error) {
	return t.store.Prune(ctx, t.now().Add(-t.cfg.Window))
}
