package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tunevault/internal/catalog"
	"tunevault/internal/logging"
	"tunevault/internal/metrics"
)

// ErrScanInProgress is returned by TriggerScan when a session is already
// running.
var ErrScanInProgress = errors.New("scan already in progress")

// jobBuffer bounds the walker-to-pool channel so discovery cannot race
// arbitrarily far ahead of extraction on huge libraries.
const jobBuffer = 256

// Manager owns scan scheduling: single-flight sessions, per-folder locks,
// periodic rescans, and progress reporting.
type Manager struct {
	cat     *catalog.Catalog
	exts    map[string]bool
	workers int

	mu      sync.Mutex
	current *session
	last    *session
	cancel  context.CancelFunc

	// folderLocks serializes reconciles per folder id, so a watcher-driven
	// scan of one folder cannot interleave with a full scan touching it.
	folderLocks sync.Map

	wg   sync.WaitGroup
	done chan struct{}
}

// NewManager creates a scan manager. exts is the audio extension allow-list
// and workers the extraction pool size (already resolved, never zero).
func NewManager(cat *catalog.Catalog, exts map[string]bool, workers int) *Manager {
	return &Manager{
		cat:     cat,
		exts:    exts,
		workers: workers,
		done:    make(chan struct{}),
	}
}

// TriggerScan starts a scan session over all registered folders. It returns
// immediately with the session id; the scan runs in the background. Only one
// session runs at a time.
func (m *Manager) TriggerScan(ctx context.Context) (string, error) {
	folders, err := m.cat.Folders(ctx)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		return "", ErrScanInProgress
	}

	sess := newSession(len(folders))
	scanCtx, cancel := context.WithCancel(context.Background())
	m.current = sess
	m.cancel = cancel
	m.mu.Unlock()

	metrics.ScanRunsTotal.Inc()
	metrics.ScanIsRunning.Set(1)
	logging.Info("Scan session %s started (%d folders, %d workers)",
		sess.id, len(folders), m.workers)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.runSession(scanCtx, sess, folders)
	}()

	return sess.id, nil
}

// CancelScan requests cancellation of the running session, if any. The
// session stops between files; folders already committed stay committed.
func (m *Manager) CancelScan() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return false
	}
	m.cancel()
	return true
}

// IsScanning reports whether a session is currently running.
func (m *Manager) IsScanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Progress returns the running session's snapshot, or the last finished
// one. ok is false when no session has ever run.
func (m *Manager) Progress() (Progress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return m.current.progress(), true
	}
	if m.last != nil {
		return m.last.progress(), true
	}
	return Progress{}, false
}

// Start launches the periodic rescan loop. A zero or negative interval
// disables it. Stop shuts the loop down.
func (m *Manager) Start(interval time.Duration) {
	if interval <= 0 {
		logging.Info("Periodic rescan disabled")
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				if _, err := m.TriggerScan(context.Background()); err != nil {
					if !errors.Is(err, ErrScanInProgress) {
						logging.Error("periodic rescan failed to start: %v", err)
					}
				}
			}
		}
	}()
}

// Stop cancels any running session and waits for all scanner goroutines.
func (m *Manager) Stop() {
	close(m.done)
	m.CancelScan()
	m.wg.Wait()
}

func (m *Manager) runSession(ctx context.Context, sess *session, folders []catalog.Folder) {
	rc := newReconciler(m.cat)
	var folderErrs int

	for _, folder := range folders {
		if ctx.Err() != nil {
			break
		}
		res, err := m.scanFolder(ctx, sess, rc, folder)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			if errors.Is(err, ErrRootMissing) {
				sess.warn(Warning{Path: folder.Path, Reason: err.Error()})
				logging.Warn("skipping folder %s: %v", folder.Path, err)
				sess.folderDone(ReconcileResult{})
				continue
			}
			// A failed batch marks only this folder; its rolled-back
			// reconcile is retried naturally on the next session.
			folderErrs++
			sess.warn(Warning{Path: folder.Path, Reason: err.Error()})
			sess.folderFailed()
			logging.Error("folder %s failed: %v", folder.Path, err)
			continue
		}
		sess.folderDone(res)
		logging.Info("Folder %s reconciled: +%d ~%d =%d -%d (%d errors)",
			folder.Path, res.Inserted, res.Updated, res.Unchanged, res.Deleted, res.Errors)
	}

	// Every folder failing means the store itself is unusable, not any one
	// folder's batch.
	var sessionErr error
	if len(folders) > 0 && folderErrs == len(folders) {
		sessionErr = fmt.Errorf("all %d folders failed", folderErrs)
	}

	status := StatusCompleted
	switch {
	case sessionErr != nil:
		status = StatusFailed
		metrics.ScanSessionsTotal.WithLabelValues("failed").Inc()
		logging.Error("Scan session %s failed: %v", sess.id, sessionErr)
	case ctx.Err() != nil:
		status = StatusCancelled
		metrics.ScanSessionsTotal.WithLabelValues("cancelled").Inc()
		logging.Info("Scan session %s cancelled", sess.id)
	default:
		metrics.ScanSessionsTotal.WithLabelValues("completed").Inc()
	}
	sess.finish(status, sessionErr)

	elapsed := time.Since(sess.startedAt)
	metrics.ScanIsRunning.Set(0)
	metrics.ScanLastRunTimestamp.SetToCurrentTime()
	metrics.ScanLastRunDuration.Set(elapsed.Seconds())

	if stats, err := m.cat.CalculateStats(context.Background()); err == nil {
		stats.LastScanTime = elapsed
		stats.LastScanText = elapsed.Truncate(time.Millisecond).String()
		m.cat.UpdateStats(stats)
	}

	if status == StatusCompleted {
		p := sess.progress()
		logging.Info("Scan session %s completed in %v: %d files, +%d ~%d =%d -%d (%d errors, %d warnings)",
			sess.id, elapsed.Truncate(time.Millisecond), p.FilesProcessed,
			p.Result.Inserted, p.Result.Updated, p.Result.Unchanged, p.Result.Deleted,
			p.Result.Errors, len(p.Warnings))
	}

	m.mu.Lock()
	m.last = sess
	m.current = nil
	m.mu.Unlock()
}

// scanFolder pipelines discovery and extraction for one folder, then
// reconciles the collected results under the folder's lock.
func (m *Manager) scanFolder(ctx context.Context, sess *session, rc *reconciler,
	folder catalog.Folder) (ReconcileResult, error) {

	jobs := make(chan DiscoveredFile, jobBuffer)
	results := make(chan ExtractedFile)

	walkErr := make(chan error, 1)
	go func() {
		defer close(jobs)
		walkErr <- walkFolder(ctx, folder, m.exts, jobs,
			func(w Warning) { sess.warn(w) },
			func() { sess.discovered.Add(1) })
	}()

	runPool(ctx, m.workers, jobs, results)

	var extracted []ExtractedFile
	for out := range results {
		sess.processed.Add(1)
		extracted = append(extracted, out)
	}

	if err := <-walkErr; err != nil {
		return ReconcileResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ReconcileResult{}, err
	}

	lock := m.folderLock(folder.ID)
	lock.Lock()
	defer lock.Unlock()

	// The lock wait can span a cancellation.
	if err := ctx.Err(); err != nil {
		return ReconcileResult{}, err
	}

	return rc.reconcileFolder(ctx, folder, extracted, func(w Warning) {
		sess.warn(w)
	})
}

func (m *Manager) folderLock(id int64) *sync.Mutex {
	v, _ := m.folderLocks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}
