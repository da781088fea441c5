// Package optimizer decides whether re-encoding an audio clip is worth
// the transcription-cost savings it buys.
//
// Duration and cost are modeled from byte size and a per-format bitrate
// table rather than decoded from real audio headers. The estimator is
// pluggable for callers that want real accuracy; the table is the
// documented default behavior.
package optimizer
