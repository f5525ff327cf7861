package catalog

import (
	"encoding/json"
	"time"
)

// Folder is a user-selected library root. Songs belong to exactly one folder
// and are addressed by their path relative to it.
type Folder struct {
	ID            int64     `json:"id"`
	Path          string    `json:"path"`
	LastScannedAt time.Time `json:"lastScannedAt,omitempty"`
}

// Artist is identified by its normalized name; it is created lazily when the
// first song referencing the name is inserted and removed when the last one
// goes away.
type Artist struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount,omitempty"`
}

// Album identity is scoped within an artist: two artists can each have an
// album called "Greatest Hits" without colliding.
type Album struct {
	ID        int64  `json:"id"`
	ArtistID  int64  `json:"artistId,omitempty"` // 0 = unknown artist
	Name      string `json:"name"`
	Artist    string `json:"artist,omitempty"`
	SongCount int    `json:"songCount,omitempty"`
}

// Genre is a flat name-keyed entity shared across songs.
type Genre struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount,omitempty"`
}

// Fingerprint is the cheap change-detection signal for a song file:
// byte size plus last-modified time. Deliberately not a content hash.
type Fingerprint struct {
	Size    int64
	ModTime int64 // unix seconds
}

// Song is the persisted record for one audio file. Entity references use
// plain id fields where 0 means "unknown" (the Unknown Artist/Album/Genre
// sentinel); user-set state (play count, date added) survives tag updates.
type Song struct {
	ID          int64     `json:"id"`
	FolderID    int64     `json:"folderId"`
	RelPath     string    `json:"relPath"`
	Title       string    `json:"title"`
	ArtistID    int64     `json:"artistId,omitempty"`
	AlbumID     int64     `json:"albumId,omitempty"`
	GenreID     int64     `json:"genreId,omitempty"`
	TrackNumber int       `json:"trackNumber,omitempty"`
	DiscNumber  int       `json:"discNumber,omitempty"`
	Year        int       `json:"year,omitempty"`
	DurationMS  int64     `json:"durationMs,omitempty"`
	FileSize    int64     `json:"-"`
	ModTime     time.Time `json:"-"`
	SwatchLight string    `json:"swatchLight,omitempty"`
	SwatchDark  string    `json:"swatchDark,omitempty"`
	PlayCount   int       `json:"playCount"`
	DateAdded   time.Time `json:"dateAdded"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Fingerprint returns the song's stored change-detection signal.
func (s *Song) Fingerprint() Fingerprint {
	return Fingerprint{Size: s.FileSize, ModTime: s.ModTime.Unix()}
}

// SongView is the denormalized read model used by list endpoints and the
// smart playlist evaluator: entity names are joined in, with Unknown
// sentinels substituted for missing references.
type SongView struct {
	ID          int64     `json:"id"`
	FolderID    int64     `json:"folderId"`
	RelPath     string    `json:"relPath"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	Genre       string    `json:"genre"`
	TrackNumber int       `json:"trackNumber,omitempty"`
	DiscNumber  int       `json:"discNumber,omitempty"`
	Year        int       `json:"year,omitempty"`
	DurationMS  int64     `json:"durationMs,omitempty"`
	SwatchLight string    `json:"swatchLight,omitempty"`
	SwatchDark  string    `json:"swatchDark,omitempty"`
	PlayCount   int       `json:"playCount"`
	DateAdded   time.Time `json:"dateAdded"`
}

// Sentinel display names for songs without a resolved entity reference.
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownGenre  = "Unknown Genre"
)

// PlaylistKind distinguishes manual playlists (explicit ordered song list)
// from smart playlists (persisted rule tree, membership recomputed on read).
type PlaylistKind string

const (
	PlaylistManual PlaylistKind = "manual"
	PlaylistSmart  PlaylistKind = "smart"
)

// Playlist is a manual or smart playlist. For smart playlists Rules holds
// the serialized rule tree and the song list is never persisted.
type Playlist struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Kind      PlaylistKind    `json:"kind"`
	Rules     json.RawMessage `json:"rules,omitempty"`
	SortField string          `json:"sortField,omitempty"`
	SortOrder string          `json:"sortOrder,omitempty"`
	SongCount int             `json:"songCount,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// LibraryStats summarizes the catalog for the stats endpoint.
type LibraryStats struct {
	TotalSongs      int           `json:"totalSongs"`
	TotalArtists    int           `json:"totalArtists"`
	TotalAlbums     int           `json:"totalAlbums"`
	TotalGenres     int           `json:"totalGenres"`
	TotalFolders    int           `json:"totalFolders"`
	TotalPlaylists  int           `json:"totalPlaylists"`
	TotalDurationMS int64         `json:"totalDurationMs"`
	LastScanned     time.Time     `json:"lastScanned,omitempty"`
	LastScanTime    time.Duration `json:"-"`
	LastScanText    string        `json:"lastScanDuration,omitempty"`
}
