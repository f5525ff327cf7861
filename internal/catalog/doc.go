// Package catalog provides SQLite persistence for the music library.
//
// It stores the normalized entity graph produced by the scanner:
//   - Folders (user-selected library roots)
//   - Songs with their (size, mtime) fingerprints
//   - Artists, albums, and genres deduplicated by normalized name
//   - Manual and smart playlists (smart playlists persist only a rule tree)
//
// Entities are id-keyed rows with explicit foreign-key columns; no in-memory
// object graphs are handed out. All scanner writes go through per-folder
// transactions (BeginBatch/EndBatch) so a crash mid-scan never leaves a
// folder half-written. The database uses WAL mode so smart playlist
// evaluation can read committed state while a scan is writing.
package catalog
