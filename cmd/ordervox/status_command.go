package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ordervox/internal/server"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show budget and cache state of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := fetchStatus(ctx.apiAddress())
			if err != nil {
				return err
			}
			colorize := false
			if f, ok := cmd.OutOrStdout().(*os.File); ok {
				colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(status, colorize))
			return nil
		},
	}
}

func fetchStatus(addr string) (*server.StatusResponse, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("contact ordervox api at %s: %w (is the server running?)", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status request failed: %s: %s", resp.Status, body)
	}

	var status server.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &status, nil
}

func renderStatus(status *server.StatusResponse, colorize bool) string {
	p := message.NewPrinter(language.English)

	rows := []metricRow{
		{"Requests (24h)", p.Sprintf("%d", status.Usage.TotalRequests)},
		{"Total cost", p.Sprintf("$%.4f", status.Usage.TotalCost)},
		{"Avg cost/request", p.Sprintf("$%.4f", status.Usage.AvgCostPerRequest)},
		{"Cache hit rate", p.Sprintf("%.1f%%", status.Usage.CacheHitRate*100)},
		{"Optimization rate", p.Sprintf("%.1f%%", status.Usage.OptimizationRate*100)},
		{"Budget utilization", p.Sprintf("%.1f%%", status.Usage.BudgetUtilization*100)},
		{"Within budget", yesNo(status.Usage.WithinBudget)},
		{"Cache entries", p.Sprintf("%d", status.CacheEntries)},
		{"Cache hits", p.Sprintf("%d", status.CacheHits)},
		{"Cache misses", p.Sprintf("%d", status.CacheMisses)},
	}

	out := renderMetricTable(rows)
	if status.Alert != "" {
		out += "\n" + renderAlertLine(status.Alert, colorize)
	}
	return out
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
