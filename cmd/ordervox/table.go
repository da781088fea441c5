package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ordervox/internal/usage"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

// metricRow is one label/value line of the status table.
type metricRow struct {
	label string
	value string
}

// renderMetricTable renders the status metrics as a two-column table
// with right-aligned values.
func renderMetricTable(rows []metricRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.label, row.value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderAlertLine formats the budget alert under the table, colored by
// severity when writing to a terminal.
func renderAlertLine(alert string, colorize bool) string {
	line := "Alert: " + alert
	if !colorize {
		return line
	}
	color := ansiYellow
	if alert == string(usage.AlertExceeded) {
		color = ansiRed
	}
	return color + line + ansiReset
}
