package main

import (
	"strings"
	"testing"

	"ordervox/internal/server"
	"ordervox/internal/usage"
)

func TestRenderStatusTable(t *testing.T) {
	status := &server.StatusResponse{
		Usage: usage.Stats{
			TotalRequests:     1250,
			TotalCost:         3.2151,
			AvgCostPerRequest: 0.0026,
			CacheHitRate:      0.42,
			OptimizationRate:  0.18,
			BudgetUtilization: 0.643,
			WithinBudget:      true,
		},
		CacheEntries: 512,
		CacheHits:    525,
		CacheMisses:  725,
	}

	out := renderStatus(status, false)
	for _, want := range []string{
		"1,250",
		"$3.2151",
		"42.0%",
		"64.3%",
		"yes",
		"512",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered status missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Alert:") {
		t.Fatalf("no alert expected:\n%s", out)
	}
}

func TestRenderStatusAlertColor(t *testing.T) {
	status := &server.StatusResponse{
		Usage: usage.Stats{BudgetUtilization: 1.2},
		Alert: string(usage.AlertExceeded),
	}

	plain := renderStatus(status, false)
	if !strings.Contains(plain, "Alert: BUDGET_EXCEEDED") {
		t.Fatalf("expected alert line:\n%s", plain)
	}
	if strings.Contains(plain, ansiRed) {
		t.Fatalf("no color expected without a terminal:\n%s", plain)
	}

	colored := renderStatus(status, true)
	if !strings.Contains(colored, ansiRed) {
		t.Fatalf("expected red alert line:\n%s", colored)
	}
}

func TestRenderAlertLineWarning(t *testing.T) {
	got := renderAlertLine(string(usage.AlertWarning), true)
	if !strings.HasPrefix(got, ansiYellow) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected yellow wrapped line, got %q", got)
	}
}
