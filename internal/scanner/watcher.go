package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"tunevault/internal/logging"
	"tunevault/internal/metrics"
)

// watchSettle is how long the watcher waits after the last filesystem event
// before triggering a rescan. Rips and downloads touch many files in bursts;
// one scan at the end covers them all.
const watchSettle = 10 * time.Second

// Watcher triggers rescans when files change under the library roots.
type Watcher struct {
	manager *Manager
	fw      *fsnotify.Watcher
}

// NewWatcher creates a filesystem watcher that recursively watches every
// registered folder root.
func NewWatcher(manager *Manager, roots []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{manager: manager, fw: fw}
	for _, root := range roots {
		if err := w.watchTree(root); err != nil {
			logging.Warn("watcher: cannot watch %s: %v", root, err)
		}
	}
	return w, nil
}

// watchTree adds root and every directory beneath it to the watch set.
// Hidden directories are skipped, matching the walker.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if addErr := w.fw.Add(path); addErr != nil {
			logging.Debug("watcher: cannot watch %s: %v", path, addErr)
		}
		return nil
	})
}

// Run consumes filesystem events until ctx is cancelled, batching them
// behind a settle timer so one rescan covers each burst of changes.
func (w *Watcher) Run(ctx context.Context) {
	logging.Info("Filesystem watcher running (settle %v)", watchSettle)

	// Stopped timer; armed on the first relevant event.
	timer := time.NewTimer(watchSettle)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			if err := w.fw.Close(); err != nil {
				logging.Debug("watcher close: %v", err)
			}
			return

		case event, open := <-w.fw.Events:
			if !open {
				return
			}
			if !w.relevant(event) {
				continue
			}
			metrics.WatcherEventsTotal.Inc()
			logging.Debug("watcher: %s %s", event.Op, event.Name)

			// New directories join the watch set immediately so files
			// created inside them are seen too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchTree(event.Name); err != nil {
						logging.Debug("watcher: %v", err)
					}
				}
			}

			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(watchSettle)
			pending = true

		case err, open := <-w.fw.Errors:
			if !open {
				return
			}
			logging.Warn("watcher error: %v", err)

		case <-timer.C:
			pending = false
			metrics.WatcherRescanTriggers.Inc()
			logging.Info("Filesystem changes settled, triggering rescan")
			if _, err := w.manager.TriggerScan(ctx); err != nil {
				if errors.Is(err, ErrScanInProgress) {
					// Changes made during the running scan will be picked
					// up by re-arming once it finishes.
					timer.Reset(watchSettle)
					pending = true
				} else {
					logging.Error("watcher: rescan failed to start: %v", err)
				}
			}
		}
	}
}

// relevant filters out events the scanner does not care about: hidden
// files, chmod-only noise, and non-audio files that are not directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return true
	}
	// Removed files cannot be stat'd; fall through to the extension check,
	// which also covers them.
	return w.manager.exts[strings.ToLower(filepath.Ext(base))]
}
