// Package logging builds slog loggers for ordervox.
//
// Two output formats are supported: a compact console format for
// interactive use and JSON for log aggregation. Components attach a
// "component" attribute via NewComponentLogger; the console handler
// renders it as a message prefix instead of a key=value pair.
package logging
