// Package usage provides rolling-window spend accounting and admission
// control for the transcription budget.
//
// Every completed request appends one immutable usage record (cache
// hits included, at zero cost) to a SQLite-backed log. Budget state is
// derived on demand from the records inside the trailing window; there
// is no background timer. Admission fails closed: when the log cannot
// be read, paid work is denied.
package usage
