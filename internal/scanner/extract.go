package scanner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"

	"tunevault/internal/catalog"
	"tunevault/internal/logging"
	"tunevault/internal/metrics"
	"tunevault/internal/musictypes"
)

// Metadata is what extraction pulls out of one audio file. Entity references
// are still names here; the reconciler resolves them to ids.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	TrackNumber int
	DiscNumber  int
	Year        int
	DurationMS  int64
	SwatchLight string
	SwatchDark  string
}

// ExtractedFile pairs a discovered file with its extraction result. Err is
// only set for failures that make the file unusable (it vanished or cannot
// be opened); a file with unreadable tags still comes back with fallback
// metadata.
type ExtractedFile struct {
	File     DiscoveredFile
	Meta     Metadata
	FileSize int64
	ModTime  time.Time
	Err      error
}

// extract reads tags, duration, and artwork swatches from one file.
func extract(f DiscoveredFile) ExtractedFile {
	start := time.Now()
	defer func() {
		metrics.ScanExtractionDuration.Observe(time.Since(start).Seconds())
	}()

	out := ExtractedFile{File: f}

	info, err := os.Stat(f.AbsPath)
	if err != nil {
		out.Err = fmt.Errorf("stat failed: %w", err)
		return out
	}
	out.FileSize = info.Size()
	out.ModTime = info.ModTime()

	fh, err := os.Open(f.AbsPath)
	if err != nil {
		out.Err = fmt.Errorf("open failed: %w", err)
		return out
	}
	defer fh.Close()

	out.Meta = readTags(fh, f.AbsPath)
	out.Meta.DurationMS = readDuration(fh, f.AbsPath)
	return out
}

// readTags decodes the file's metadata tags. Every failure degrades to the
// filename-derived fallback so a corrupt tag block never drops a file from
// the library.
func readTags(fh *os.File, path string) Metadata {
	meta := Metadata{Title: musictypes.TitleFromFilename(path)}

	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		return meta
	}

	m, err := tag.ReadFrom(fh)
	if err != nil {
		logging.Debug("no readable tags in %s: %v", path, err)
		return meta
	}

	if t := strings.TrimSpace(m.Title()); t != "" {
		meta.Title = t
	}
	meta.Artist = strings.TrimSpace(m.Artist())
	meta.Album = strings.TrimSpace(m.Album())
	meta.Genre = firstGenre(m.Genre())
	meta.TrackNumber, _ = m.Track()
	meta.DiscNumber, _ = m.Disc()
	meta.Year = m.Year()

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		if light, dark, ok := swatches(pic.Data); ok {
			meta.SwatchLight = light
			meta.SwatchDark = dark
		}
	}

	return meta
}

// firstGenre reduces a multi-valued genre tag ("Rock;Indie" or "Rock/Pop")
// to its first entry.
func firstGenre(genre string) string {
	genre = strings.TrimSpace(genre)
	if i := strings.IndexAny(genre, ";/,"); i >= 0 {
		genre = strings.TrimSpace(genre[:i])
	}
	return genre
}

// readDuration computes playback duration for the formats that carry it in a
// cheaply readable form. Formats without a decoder here report zero; the
// song is still cataloged.
func readDuration(fh *os.File, path string) int64 {
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		return 0
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3DurationMS(fh)
	case ".flac":
		return flacDurationMS(fh)
	}
	return 0
}

// mp3DurationMS sums frame durations across the whole file. Linear in file
// size but exact, VBR included.
func mp3DurationMS(r io.Reader) int64 {
	d := mp3.NewDecoder(r)
	var total time.Duration
	var frame mp3.Frame
	var skipped int

	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			break
		}
		total += frame.Duration()
	}
	return total.Milliseconds()
}

// flacDurationMS reads duration from the STREAMINFO block.
func flacDurationMS(r io.Reader) int64 {
	stream, err := flac.Parse(r)
	if err != nil {
		return 0
	}
	info := stream.Info
	if info == nil || info.SampleRate == 0 {
		return 0
	}
	return int64(info.NSamples) * 1000 / int64(info.SampleRate)
}

// song builds the catalog row for an extracted file. Entity ids are filled
// in later by the reconciler.
func (e *ExtractedFile) song() *catalog.Song {
	return &catalog.Song{
		FolderID:    e.File.Folder.ID,
		RelPath:     e.File.RelPath,
		Title:       e.Meta.Title,
		TrackNumber: e.Meta.TrackNumber,
		DiscNumber:  e.Meta.DiscNumber,
		Year:        e.Meta.Year,
		DurationMS:  e.Meta.DurationMS,
		FileSize:    e.FileSize,
		ModTime:     e.ModTime,
		SwatchLight: e.Meta.SwatchLight,
		SwatchDark:  e.Meta.SwatchDark,
	}
}

// fingerprint returns the change-detection signal observed on disk.
func (e *ExtractedFile) fingerprint() catalog.Fingerprint {
	return catalog.Fingerprint{Size: e.FileSize, ModTime: e.ModTime.Unix()}
}
