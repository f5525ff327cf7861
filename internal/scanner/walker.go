package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tunevault/internal/catalog"
	"tunevault/internal/logging"
	"tunevault/internal/metrics"
)

// ErrRootMissing is returned when a registered folder root does not exist on
// disk. The folder's stored songs are left alone; an unmounted drive must not
// look like a mass deletion.
var ErrRootMissing = errors.New("folder root not accessible")

// DiscoveredFile is one audio file found by the walker.
type DiscoveredFile struct {
	Folder  catalog.Folder
	RelPath string // slash-separated, relative to the folder root
	AbsPath string
}

// Warning records a non-fatal problem encountered during a scan. Warnings
// never abort the session; the affected file or directory is skipped and
// retried naturally on the next scan.
type Warning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// walkFolder walks one folder root and sends every matching audio file to
// out. Hidden files and directories (dot-prefixed) are skipped, as are
// symlinks. Unreadable entries produce a warning and are skipped. The walk
// stops early if ctx is cancelled.
func walkFolder(ctx context.Context, folder catalog.Folder, exts map[string]bool,
	out chan<- DiscoveredFile, warn func(Warning), onDiscovered func()) error {

	if info, err := os.Stat(folder.Path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootMissing, folder.Path, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootMissing, folder.Path)
	}

	return filepath.WalkDir(folder.Path, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			warn(Warning{Path: path, Reason: err.Error()})
			logging.Debug("walk error at %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") && path != folder.Path {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		// WalkDir does not follow directory symlinks; file symlinks are
		// skipped too so a link loop or dangling target cannot surface here.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !exts[ext] {
			return nil
		}

		rel, relErr := filepath.Rel(folder.Path, path)
		if relErr != nil {
			warn(Warning{Path: path, Reason: relErr.Error()})
			return nil
		}

		metrics.ScanFilesDiscovered.Inc()
		if onDiscovered != nil {
			onDiscovered()
		}

		select {
		case out <- DiscoveredFile{
			Folder:  folder,
			RelPath: filepath.ToSlash(rel),
			AbsPath: path,
		}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}
