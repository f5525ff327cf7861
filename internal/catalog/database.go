package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"tunevault/internal/logging"
	"tunevault/internal/metrics"
)

// Default timeout for single database operations.
const defaultTimeout = 5 * time.Second

// Catalog manages all database operations for the music library.
type Catalog struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	stats   LibraryStats
	statsMu sync.RWMutex
	txStart time.Time // transaction start time for metrics
}

// New opens (and if necessary creates) the catalog database at dbPath.
// dbPath must be the full path to the database file and its parent directory
// must already exist; use startup.LoadConfig to validate that beforehand.
// Pass ":memory:" for an ephemeral catalog in tests.
func New(ctx context.Context, dbPath string) (*Catalog, error) {
	logging.Info("Catalog database: %s", dbPath)

	// WAL keeps evaluator reads from blocking scanner writes; busy_timeout
	// prevents spurious "database is locked" errors under write contention.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000&_foreign_keys=ON", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{
		db:     db,
		dbPath: dbPath,
	}

	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Catalog initialized at %s", dbPath)
	return c, nil
}

func (c *Catalog) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	CREATE TABLE IF NOT EXISTS folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		last_scanned_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS artists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		norm_name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS albums (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist_id INTEGER,
		name TEXT NOT NULL,
		norm_name TEXT NOT NULL,
		UNIQUE(artist_id, norm_name)
	);

	CREATE INDEX IF NOT EXISTS idx_albums_artist ON albums(artist_id);

	CREATE TABLE IF NOT EXISTS genres (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		norm_name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS songs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder_id INTEGER NOT NULL,
		rel_path TEXT NOT NULL,
		title TEXT NOT NULL,
		artist_id INTEGER,
		album_id INTEGER,
		genre_id INTEGER,
		track_number INTEGER NOT NULL DEFAULT 0,
		disc_number INTEGER NOT NULL DEFAULT 0,
		year INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		file_size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL DEFAULT 0,
		swatch_light TEXT,
		swatch_dark TEXT,
		play_count INTEGER NOT NULL DEFAULT 0,
		date_added INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(folder_id, rel_path)
	);

	CREATE INDEX IF NOT EXISTS idx_songs_folder ON songs(folder_id);
	CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist_id);
	CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album_id);
	CREATE INDEX IF NOT EXISTS idx_songs_genre ON songs(genre_id);
	CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_songs_date_added ON songs(date_added);

	CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL DEFAULT 'manual',
		rules TEXT,
		sort_field TEXT NOT NULL DEFAULT '',
		sort_order TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS playlist_songs (
		playlist_id INTEGER NOT NULL,
		song_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (playlist_id, song_id),
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_playlist_songs ON playlist_songs(playlist_id, position);
	`

	_, err = c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginBatch starts a transaction for one folder's reconcile batch.
// The caller is responsible for calling EndBatch when done.
func (c *Catalog) BeginBatch() (*sql.Tx, error) {
	// Only transaction creation is guarded; the transaction itself is handed
	// to exactly one reconciling goroutine (per-folder locking lives in the
	// scanner, not here).
	c.mu.Lock()

	// Background context: the transaction's lifetime is managed by EndBatch,
	// a timeout context here would cancel it as soon as this function returns.
	tx, err := c.db.BeginTx(context.Background(), nil)
	if err == nil {
		c.txStart = time.Now()
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return tx, nil
}

// EndBatch commits the transaction, or rolls it back if err is non-nil.
func (c *Catalog) EndBatch(tx *sql.Tx, err error) error {
	c.mu.RLock()
	duration := time.Since(c.txStart).Seconds()
	c.mu.RUnlock()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// UpdateStats replaces the cached library statistics.
func (c *Catalog) UpdateStats(stats LibraryStats) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats = stats
}

// GetStats returns the cached library statistics.
func (c *Catalog) GetStats() LibraryStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// Vacuum optimizes the database.
func (c *Catalog) Vacuum() error {
	start := time.Now()
	var err error
	defer func() { recordQuery("vacuum", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err = c.db.ExecContext(ctx, "VACUUM")
	return err
}

// UpdateDBMetrics publishes database connection pool gauges.
func (c *Catalog) UpdateDBMetrics() {
	metrics.DBConnectionsOpen.Set(float64(c.db.Stats().OpenConnections))
}

// recordQuery records database query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// nullID converts a 0-means-unknown id into its nullable SQL form.
func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
