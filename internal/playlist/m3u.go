package playlist

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Entry is one track reference read from an M3U file.
type Entry struct {
	Path            string // as written in the file; may be relative
	Title           string // from #EXTINF, empty in plain M3U
	DurationSeconds int    // from #EXTINF, -1 when unknown
}

// ParseM3U reads an M3U or extended M3U playlist. baseDir resolves relative
// entries; pass the directory the playlist file lives in, or "" to leave
// relative paths as-is. Blank lines and unknown directives are ignored.
func ParseM3U(r io.Reader, baseDir string) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	// Playlists exported by other tools can carry very long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	next := Entry{DurationSeconds: -1}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// UTF-8 BOM from Windows exports.
		line = strings.TrimPrefix(line, "\ufeff")

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, "#EXTINF:"):
			next = parseExtInf(strings.TrimPrefix(line, "#EXTINF:"))

		case strings.HasPrefix(line, "#"):
			continue

		default:
			path := filepath.FromSlash(line)
			if baseDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			next.Path = path
			entries = append(entries, next)
			next = Entry{DurationSeconds: -1}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	return entries, nil
}

// parseExtInf decodes an "#EXTINF:duration,display title" payload. Malformed
// values degrade to an unknown duration rather than failing the import.
func parseExtInf(s string) Entry {
	e := Entry{DurationSeconds: -1}

	dur, title, found := strings.Cut(s, ",")
	if !found {
		title = ""
		dur = s
	}
	e.Title = strings.TrimSpace(title)

	// Duration may carry trailing attributes like `123 tvg-id="x"`.
	if fields := strings.Fields(dur); len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			e.DurationSeconds = n
		}
	}
	return e
}

// Track is one exported playlist entry.
type Track struct {
	Path            string
	Artist          string
	Title           string
	DurationSeconds int
}

// WriteM3U writes an extended M3U playlist.
func WriteM3U(w io.Writer, tracks []Track) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("#EXTM3U\n"); err != nil {
		return err
	}
	for _, t := range tracks {
		display := t.Title
		if t.Artist != "" {
			display = t.Artist + " - " + t.Title
		}
		if _, err := fmt.Fprintf(bw, "#EXTINF:%d,%s\n%s\n",
			t.DurationSeconds, display, t.Path); err != nil {
			return err
		}
	}
	return bw.Flush()
}
