// Package transcache deduplicates transcription spend across identical
// audio content.
//
// Entries are keyed by the content fingerprint of the raw audio bytes
// and are immutable once visible. The defining property is at most one
// concurrent computation per key: concurrent GetOrCompute callers for
// the same key collapse onto a single fill, and every waiter receives
// the fill's result. Failed fills are propagated to the waiters of that
// attempt only and are never stored, so a later call may retry.
//
// When a persistence path is configured, completed entries are
// snapshotted to disk so paid transcriptions survive restarts.
package transcache
