package musictypes

import (
	"path/filepath"
	"strings"
)

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".m4b":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".wav":  true,
	".wma":  true,
	".aiff": true,
	".aif":  true,
}

// PlaylistExtensions maps file extensions to whether they are supported playlist formats.
var PlaylistExtensions = map[string]bool{
	".m3u":  true,
	".m3u8": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".wma":  "audio/x-ms-wma",
	".aiff": "audio/aiff",
	".aif":  "audio/aiff",
	".m3u":  "audio/x-mpegurl",
	".m3u8": "audio/x-mpegurl",
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsAudioFile returns true if the path has a supported audio extension.
func IsAudioFile(path string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsPlaylistFile returns true if the path has a supported playlist extension.
func IsPlaylistFile(path string) bool {
	return PlaylistExtensions[strings.ToLower(filepath.Ext(path))]
}

// ParseExtensionList parses a comma-separated extension allow-list
// (e.g. "mp3,flac,.ogg") into the map form used by the walker. Entries are
// lowercased and get a leading dot if missing. An empty input returns a copy
// of AudioExtensions.
func ParseExtensionList(list string) map[string]bool {
	out := make(map[string]bool)
	for _, raw := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = true
	}
	if len(out) == 0 {
		for ext := range AudioExtensions {
			out[ext] = true
		}
	}
	return out
}

// NormalizeName produces the identity key used to deduplicate artists,
// albums, and genres: lowercased with runs of whitespace collapsed to a
// single space and surrounding whitespace removed.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// TitleFromFilename derives a display title from a file path, used when a
// file carries no readable title tag. The extension is stripped and common
// "NN - " track number prefixes are removed.
func TitleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	// Strip a leading track number like "07 - " or "07. "
	trimmed := strings.TrimLeft(base, "0123456789")
	if trimmed != base && trimmed != "" {
		trimmed = strings.TrimLeft(trimmed, " .-_")
		if trimmed != "" {
			return trimmed
		}
	}
	return base
}
