package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"ok", "error"} {
		ScanFilesProcessed.WithLabelValues(status)
	}

	for _, status := range []string{"completed", "cancelled", "failed"} {
		ScanSessionsTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"insert", "update", "delete"} {
		ReconcileMutations.WithLabelValues(kind)
	}

	for _, op := range []string{"initialize_schema", "upsert_song", "delete_songs",
		"songs_by_folder", "song_views", "find_or_create_entity", "clean_orphans",
		"list_playlists", "save_playlist", "calculate_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	for _, status := range []string{"success", "error"} {
		RuleEvaluationsTotal.WithLabelValues(status)
	}
}
