package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tunevault/internal/catalog"
	"tunevault/internal/musictypes"
)

func newTestManager(t *testing.T, c *catalog.Catalog) *Manager {
	t.Helper()
	m := NewManager(c, musictypes.AudioExtensions, 4)
	t.Cleanup(m.Stop)
	return m
}

func waitForScan(t *testing.T, m *Manager) Progress {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if !m.IsScanning() {
			p, ok := m.Progress()
			if !ok {
				t.Fatal("no progress after scan")
			}
			return p
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("scan did not finish in time")
	return Progress{}
}

func TestManagerFullScan(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	root := t.TempDir()

	// Untagged files: titles come from filenames.
	for i := 0; i < 50; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("track-%02d.mp3", i)), []byte("not really audio"))
	}
	writeFile(t, filepath.Join(root, "skip.txt"), []byte("x"))

	if _, err := c.AddFolder(context.Background(), root); err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	m := newTestManager(t, c)
	sessionID, err := m.TriggerScan(context.Background())
	if err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	if sessionID == "" {
		t.Fatal("empty session id")
	}

	p := waitForScan(t, m)
	if p.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed (error: %s)", p.Status, p.Error)
	}
	if p.Result.Inserted != 50 {
		t.Errorf("Inserted = %d, want 50", p.Result.Inserted)
	}
	if p.FilesProcessed != 50 {
		t.Errorf("FilesProcessed = %d, want 50", p.FilesProcessed)
	}

	songs, err := c.SongViews(context.Background())
	if err != nil {
		t.Fatalf("SongViews: %v", err)
	}
	if len(songs) != 50 {
		t.Errorf("catalog has %d songs, want 50", len(songs))
	}

	// Rescan with nothing changed is a no-op.
	if _, err := m.TriggerScan(context.Background()); err != nil {
		t.Fatalf("second TriggerScan: %v", err)
	}
	p = waitForScan(t, m)
	if p.Result.Inserted != 0 || p.Result.Deleted != 0 {
		t.Errorf("rescan result = %+v, want no mutations", p.Result)
	}
	if p.Result.Unchanged != 50 {
		t.Errorf("rescan Unchanged = %d, want 50", p.Result.Unchanged)
	}
}

func TestManagerDetectsChanges(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "keep.mp3"), []byte("aaa"))
	writeFile(t, filepath.Join(root, "remove.mp3"), []byte("bbb"))

	if _, err := c.AddFolder(context.Background(), root); err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	m := newTestManager(t, c)
	if _, err := m.TriggerScan(context.Background()); err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	waitForScan(t, m)

	if err := os.Remove(filepath.Join(root, "remove.mp3")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	writeFile(t, filepath.Join(root, "added.mp3"), []byte("ccc"))

	if _, err := m.TriggerScan(context.Background()); err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	p := waitForScan(t, m)

	if p.Result.Inserted != 1 || p.Result.Deleted != 1 || p.Result.Unchanged != 1 {
		t.Errorf("result = %+v, want 1 insert, 1 delete, 1 unchanged", p.Result)
	}
}

func TestManagerSingleFlight(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	root := t.TempDir()
	for i := 0; i < 200; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("f-%03d.mp3", i)), []byte("x"))
	}
	if _, err := c.AddFolder(context.Background(), root); err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	m := newTestManager(t, c)
	if _, err := m.TriggerScan(context.Background()); err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}

	// A second trigger while running must be rejected; if the first scan
	// already finished, that is fine too.
	if _, err := m.TriggerScan(context.Background()); err != nil && err != ErrScanInProgress {
		t.Errorf("concurrent TriggerScan error = %v", err)
	}
	waitForScan(t, m)
}

func TestManagerMissingRootIsWarning(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	if _, err := c.AddFolder(context.Background(), filepath.Join(t.TempDir(), "unmounted")); err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	m := newTestManager(t, c)
	if _, err := m.TriggerScan(context.Background()); err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	p := waitForScan(t, m)

	if p.Status != StatusCompleted {
		t.Errorf("status = %s, want completed; a missing root must not fail the session", p.Status)
	}
	if len(p.Warnings) == 0 {
		t.Error("expected a warning for the missing root")
	}
}

func TestCancelMidScanKeepsCommittedFolders(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	base := t.TempDir()

	rootA := filepath.Join(base, "root-a")
	rootB := filepath.Join(base, "root-b")
	for _, root := range []string{rootA, rootB} {
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		writeFile(t, filepath.Join(rootA, fmt.Sprintf("a-%d.mp3", i)), []byte("x"))
		writeFile(t, filepath.Join(rootB, fmt.Sprintf("b-%d.mp3", i)), []byte("x"))
	}

	folderA, err := c.AddFolder(context.Background(), rootA)
	if err != nil {
		t.Fatalf("AddFolder: %v", err)
	}
	folderB, err := c.AddFolder(context.Background(), rootB)
	if err != nil {
		t.Fatalf("AddFolder: %v", err)
	}

	m := newTestManager(t, c)

	// Holding the second folder's lock parks the session after the first
	// folder's batch has committed.
	lockB := m.folderLock(folderB.ID)
	lockB.Lock()

	if _, err := m.TriggerScan(context.Background()); err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if p, ok := m.Progress(); ok && p.FoldersDone >= 1 {
			break
		}
		if time.Now().After(deadline) {
			lockB.Unlock()
			t.Fatal("first folder never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !m.CancelScan() {
		lockB.Unlock()
		t.Fatal("CancelScan returned false for a running session")
	}
	lockB.Unlock()

	p := waitForScan(t, m)
	if p.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", p.Status)
	}

	songsA, err := c.SongsByFolder(context.Background(), folderA.ID)
	if err != nil {
		t.Fatalf("SongsByFolder: %v", err)
	}
	if len(songsA) != 3 {
		t.Errorf("committed folder has %d songs after cancel, want 3", len(songsA))
	}
	songsB, err := c.SongsByFolder(context.Background(), folderB.ID)
	if err != nil {
		t.Fatalf("SongsByFolder: %v", err)
	}
	if len(songsB) != 0 {
		t.Errorf("cancelled folder has %d songs, want 0 (no partial batch)", len(songsB))
	}
}

func TestFolderFailureDoesNotStopSession(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	base := t.TempDir()

	for _, name := range []string{"one", "two"} {
		root := filepath.Join(base, name)
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		writeFile(t, filepath.Join(root, "track.mp3"), []byte("x"))
		if _, err := c.AddFolder(context.Background(), root); err != nil {
			t.Fatalf("AddFolder: %v", err)
		}
	}

	folders, err := c.Folders(context.Background())
	if err != nil {
		t.Fatalf("Folders: %v", err)
	}

	m := NewManager(c, musictypes.AudioExtensions, 2)

	// A closed store fails every folder's reconcile batch.
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sess := newSession(len(folders))
	m.runSession(context.Background(), sess, folders)

	p := sess.progress()
	if p.FoldersDone != 2 {
		t.Errorf("FoldersDone = %d, want 2; one folder's failure must not stop the loop", p.FoldersDone)
	}
	if p.FoldersFailed != 2 {
		t.Errorf("FoldersFailed = %d, want 2", p.FoldersFailed)
	}
	if len(p.Warnings) != 2 {
		t.Errorf("got %d warnings, want one per failed folder: %+v", len(p.Warnings), p.Warnings)
	}
	if p.Status != StatusFailed {
		t.Errorf("status = %s, want failed when every folder fails", p.Status)
	}
}

func TestCancelScanWithoutSession(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)
	m := NewManager(c, musictypes.AudioExtensions, 2)

	if m.CancelScan() {
		t.Error("CancelScan with no session returned true")
	}
	if _, ok := m.Progress(); ok {
		t.Error("Progress with no session returned ok")
	}
}

func TestRunPoolDrainsAllJobs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	jobs := make(chan DiscoveredFile, 64)
	results := make(chan ExtractedFile)

	const n = 30
	for i := 0; i < n; i++ {
		jobs <- discovered(t, dir, fmt.Sprintf("p-%02d.mp3", i), []byte("x"))
	}
	close(jobs)

	runPool(context.Background(), 8, jobs, results)

	seen := make(map[string]bool)
	for out := range results {
		if seen[out.File.RelPath] {
			t.Errorf("duplicate result for %s", out.File.RelPath)
		}
		seen[out.File.RelPath] = true
	}
	if len(seen) != n {
		t.Errorf("got %d results, want %d", len(seen), n)
	}
}
