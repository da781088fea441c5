package testsupport

import (
	"testing"

	"ordervox/internal/config"
	"ordervox/internal/usage"
)

// MustOpenTracker opens a usage store for tests, registers cleanup, and
// wraps it in a tracker using the config's budget settings.
func MustOpenTracker(t testing.TB, cfg *config.Config) *usage.Tracker {
	t.Helper()

	store, err := usage.Open(cfg)
	if err != nil {
		t.Fatalf("usage.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	return usage.NewTracker(store, usage.TrackerConfig{
		DailyBudget:        cfg.Budget.Daily,
		WarningUtilization: cfg.Budget.WarningUtilization,
		Window:             cfg.BudgetWindow(),
	}, nil)
}
