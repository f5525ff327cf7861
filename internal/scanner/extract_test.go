package scanner

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"tunevault/internal/catalog"
)

// id3v2Tag builds a minimal ID3v2.3 tag with the given text frames.
func id3v2Tag(frames map[string]string) []byte {
	var body []byte
	for id, text := range frames {
		payload := append([]byte{0}, []byte(text)...) // ISO-8859-1 encoding marker
		frame := make([]byte, 10)
		copy(frame, id)
		binary.BigEndian.PutUint32(frame[4:8], uint32(len(payload)))
		body = append(body, frame...)
		body = append(body, payload...)
	}

	header := []byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0}
	size := len(body)
	// Syncsafe size: 7 bits per byte.
	header[6] = byte(size >> 21 & 0x7f)
	header[7] = byte(size >> 14 & 0x7f)
	header[8] = byte(size >> 7 & 0x7f)
	header[9] = byte(size & 0x7f)
	return append(header, body...)
}

func discovered(t *testing.T, dir, name string, data []byte) DiscoveredFile {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return DiscoveredFile{
		Folder:  catalog.Folder{ID: 1, Path: dir},
		RelPath: name,
		AbsPath: path,
	}
}

func TestExtractTaggedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	data := id3v2Tag(map[string]string{
		"TIT2": "Paranoid Android",
		"TPE1": "Radiohead",
		"TALB": "OK Computer",
		"TCON": "Alternative",
		"TYER": "1997",
		"TRCK": "2/12",
	})
	f := discovered(t, dir, "02 - Paranoid Android.mp3", data)

	out := extract(f)
	if out.Err != nil {
		t.Fatalf("extract: %v", out.Err)
	}
	if out.Meta.Title != "Paranoid Android" {
		t.Errorf("Title = %q", out.Meta.Title)
	}
	if out.Meta.Artist != "Radiohead" {
		t.Errorf("Artist = %q", out.Meta.Artist)
	}
	if out.Meta.Album != "OK Computer" {
		t.Errorf("Album = %q", out.Meta.Album)
	}
	if out.Meta.Genre != "Alternative" {
		t.Errorf("Genre = %q", out.Meta.Genre)
	}
	if out.Meta.Year != 1997 {
		t.Errorf("Year = %d", out.Meta.Year)
	}
	if out.Meta.TrackNumber != 2 {
		t.Errorf("TrackNumber = %d", out.Meta.TrackNumber)
	}
	if out.FileSize != int64(len(data)) {
		t.Errorf("FileSize = %d, want %d", out.FileSize, len(data))
	}
}

func TestExtractUntaggedFileFallsBackToFilename(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	f := discovered(t, dir, "07 - Karma Police.mp3", []byte("no tags here at all"))
	out := extract(f)
	if out.Err != nil {
		t.Fatalf("extract: %v", out.Err)
	}
	if out.Meta.Title != "Karma Police" {
		t.Errorf("Title = %q, want filename fallback %q", out.Meta.Title, "Karma Police")
	}
	if out.Meta.Artist != "" || out.Meta.Album != "" {
		t.Errorf("expected empty artist/album, got %q/%q", out.Meta.Artist, out.Meta.Album)
	}
}

func TestExtractMissingFile(t *testing.T) {
	t.Parallel()

	out := extract(DiscoveredFile{
		Folder:  catalog.Folder{ID: 1, Path: t.TempDir()},
		RelPath: "gone.mp3",
		AbsPath: filepath.Join(t.TempDir(), "gone.mp3"),
	})
	if out.Err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFirstGenre(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"Rock", "Rock"},
		{"Rock;Indie", "Rock"},
		{"Rock/Pop", "Rock"},
		{"Rock, Pop", "Rock"},
		{" Electronic ; Ambient", "Electronic"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := firstGenre(tt.input); got != tt.want {
			t.Errorf("firstGenre(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
