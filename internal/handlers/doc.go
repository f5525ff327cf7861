// Package handlers implements the HTTP API: library browsing, scan control,
// folder management, and playlists (manual, smart, and M3U import/export).
package handlers
