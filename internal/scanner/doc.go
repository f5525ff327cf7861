// Package scanner turns library folders on disk into catalog rows.
//
// A scan session walks each registered folder, fans discovered audio files
// out to a pool of extraction workers (tag metadata, duration, artwork
// swatches), and reconciles the results against the stored state inside one
// database transaction per folder. Files whose (size, mtime) fingerprint is
// unchanged are skipped without touching their tags; files that disappeared
// are deleted together with any entities they orphaned.
//
// Only one session runs at a time. Sessions are cancellable between files,
// and because every folder commits atomically a cancelled or crashed scan
// leaves each folder either fully reconciled or untouched. The optional
// filesystem watcher batches change events and triggers a rescan after a
// quiet period.
package scanner
