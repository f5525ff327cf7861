package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"tunevault/internal/catalog"
	"tunevault/internal/musictypes"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func collectWalk(t *testing.T, root string) ([]DiscoveredFile, []Warning, error) {
	t.Helper()

	folder := catalog.Folder{ID: 1, Path: root}
	out := make(chan DiscoveredFile, 128)
	var warnings []Warning

	err := walkFolder(context.Background(), folder, musictypes.AudioExtensions, out,
		func(w Warning) { warnings = append(warnings, w) }, nil)
	close(out)

	var files []DiscoveredFile
	for f := range out {
		files = append(files, f)
	}
	return files, warnings, err
}

func TestWalkFolder(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "a.mp3"), []byte("x"))
	writeFile(t, filepath.Join(root, "sub", "b.flac"), []byte("x"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.MP3"), []byte("x"))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("x"))
	writeFile(t, filepath.Join(root, "cover.jpg"), []byte("x"))
	writeFile(t, filepath.Join(root, ".hidden.mp3"), []byte("x"))
	writeFile(t, filepath.Join(root, ".stash", "d.mp3"), []byte("x"))

	files, warnings, err := collectWalk(t, root)
	if err != nil {
		t.Fatalf("walkFolder: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", warnings)
	}

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	sort.Strings(rels)

	want := []string{"a.mp3", "sub/b.flac", "sub/deep/c.MP3"}
	if len(rels) != len(want) {
		t.Fatalf("discovered %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Errorf("rels[%d] = %q, want %q", i, rels[i], want[i])
		}
	}
}

func TestWalkFolderMissingRoot(t *testing.T) {
	t.Parallel()

	_, _, err := collectWalk(t, filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, ErrRootMissing) {
		t.Errorf("error = %v, want ErrRootMissing", err)
	}
}

func TestWalkFolderSkipsSymlinks(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "real.mp3"), []byte("x"))
	if err := os.Symlink(filepath.Join(root, "real.mp3"), filepath.Join(root, "link.mp3")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, _, err := collectWalk(t, root)
	if err != nil {
		t.Fatalf("walkFolder: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "real.mp3" {
		t.Errorf("files = %+v, want only real.mp3", files)
	}
}

func TestWalkFolderCancellation(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan DiscoveredFile) // unbuffered: send would block
	err := walkFolder(ctx, catalog.Folder{ID: 1, Path: root}, musictypes.AudioExtensions,
		out, func(Warning) {}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
