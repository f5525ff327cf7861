package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunevault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunevault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunevault_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunevault_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunevault_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunevault_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunevault_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunevault_scan_runs_total",
			Help: "Total number of scan sessions started",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunevault_scan_is_running",
			Help: "1 if a scan session is currently running",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunevault_scan_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed scan session",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunevault_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan session",
		},
	)

	ScanFilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunevault_scan_files_discovered_total",
			Help: "Total number of audio files discovered by the walker",
		},
	)

	ScanFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunevault_scan_files_processed_total",
			Help: "Total number of files processed by extraction workers",
		},
		[]string{"status"}, // "ok", "error"
	)

	ScanExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tunevault_scan_extraction_duration_seconds",
			Help:    "Per-file metadata extraction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tunevault_scan_workers",
			Help: "Number of extraction workers in the current scan session",
		},
	)

	ScanSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunevault_scan_sessions_total",
			Help: "Total number of finished scan sessions by terminal status",
		},
		[]string{"status"}, // "completed", "cancelled", "failed"
	)

	ReconcileMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunevault_reconcile_mutations_total",
			Help: "Total number of catalog mutations applied by the reconciler",
		},
		[]string{"kind"}, // "insert", "update", "delete"
	)

	ReconcileBatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunevault_reconcile_batch_failures_total",
			Help: "Total number of per-folder reconcile transactions that failed",
		},
	)

	WatcherEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunevault_watcher_events_total",
			Help: "Total number of filesystem events received by the watcher",
		},
	)

	WatcherRescanTriggers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tunevault_watcher_rescan_triggers_total",
			Help: "Total number of rescans triggered by the filesystem watcher",
		},
	)
)

// Smart playlist metrics
var (
	RuleEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunevault_rule_evaluations_total",
			Help: "Total number of smart playlist evaluations",
		},
		[]string{"status"}, // "success", "error"
	)

	RuleEvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tunevault_rule_evaluation_duration_seconds",
			Help:    "Smart playlist evaluation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)
