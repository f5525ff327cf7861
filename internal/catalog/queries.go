package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// songViewSelect is the shared denormalized song projection. Entity names are
// joined in with Unknown sentinels for missing references.
const songViewSelect = `
	SELECT s.id, s.folder_id, s.rel_path, s.title,
	       COALESCE(ar.name, 'Unknown Artist'),
	       COALESCE(al.name, 'Unknown Album'),
	       COALESCE(g.name, 'Unknown Genre'),
	       s.track_number, s.disc_number, s.year, s.duration_ms,
	       COALESCE(s.swatch_light, ''), COALESCE(s.swatch_dark, ''),
	       s.play_count, s.date_added
	FROM songs s
	LEFT JOIN artists ar ON ar.id = s.artist_id
	LEFT JOIN albums al ON al.id = s.album_id
	LEFT JOIN genres g ON g.id = s.genre_id`

// songSortColumns maps API sort field names to ORDER BY expressions. Anything
// not listed falls back to the date-added default.
var songSortColumns = map[string]string{
	"title":     "s.title COLLATE NOCASE",
	"artist":    "COALESCE(ar.name, 'Unknown Artist') COLLATE NOCASE",
	"album":     "COALESCE(al.name, 'Unknown Album') COLLATE NOCASE",
	"genre":     "COALESCE(g.name, 'Unknown Genre') COLLATE NOCASE",
	"year":      "s.year",
	"duration":  "s.duration_ms",
	"playCount": "s.play_count",
	"dateAdded": "s.date_added",
}

// ListOptions filters and orders song list queries.
type ListOptions struct {
	ArtistID int64
	AlbumID  int64
	GenreID  int64
	FolderID int64
	Search   string // substring match on title, case-insensitive

	SortField string // one of songSortColumns; empty = dateAdded
	SortDesc  bool

	Limit  int
	Offset int
}

// SongViews returns every song in denormalized form, in stable id order.
// This is the evaluator's working set.
func (c *Catalog) SongViews(ctx context.Context) ([]SongView, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("song_views", start, err) }()

	rows, err := c.db.QueryContext(ctx, songViewSelect+" ORDER BY s.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query song views: %w", err)
	}
	defer rows.Close()

	views, err := collectSongViews(rows)
	return views, err
}

// ListSongs returns a filtered, sorted, paginated page of songs plus the
// total count matching the filters.
func (c *Catalog) ListSongs(ctx context.Context, opts ListOptions) ([]SongView, int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_songs", start, err) }()

	var conds []string
	var args []interface{}

	if opts.ArtistID != 0 {
		conds = append(conds, "s.artist_id = ?")
		args = append(args, opts.ArtistID)
	}
	if opts.AlbumID != 0 {
		conds = append(conds, "s.album_id = ?")
		args = append(args, opts.AlbumID)
	}
	if opts.GenreID != 0 {
		conds = append(conds, "s.genre_id = ?")
		args = append(args, opts.GenreID)
	}
	if opts.FolderID != 0 {
		conds = append(conds, "s.folder_id = ?")
		args = append(args, opts.FolderID)
	}
	if opts.Search != "" {
		conds = append(conds, "s.title LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(opts.Search)+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM songs s"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count songs: %w", err)
	}

	col, ok := songSortColumns[opts.SortField]
	if !ok {
		col = songSortColumns["dateAdded"]
		opts.SortDesc = true
	}
	dir := "ASC"
	if opts.SortDesc {
		dir = "DESC"
	}
	// id tiebreak keeps pagination stable across identical sort values.
	order := fmt.Sprintf(" ORDER BY %s %s, s.id %s", col, dir, dir)

	query := songViewSelect + where + order
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	views, err := collectSongViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Artists returns all artists with their song counts, ordered by name.
func (c *Catalog) Artists(ctx context.Context) ([]Artist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_artists", start, err) }()

	rows, err := c.db.QueryContext(ctx, `
		SELECT ar.id, ar.name,
		       (SELECT COUNT(*) FROM songs s WHERE s.artist_id = ar.id)
		FROM artists ar ORDER BY ar.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	defer rows.Close()

	var artists []Artist
	for rows.Next() {
		var a Artist
		if err = rows.Scan(&a.ID, &a.Name, &a.SongCount); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return artists, nil
}

// Albums returns all albums with their artist names and song counts, ordered
// by name.
func (c *Catalog) Albums(ctx context.Context) ([]Album, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_albums", start, err) }()

	rows, err := c.db.QueryContext(ctx, `
		SELECT al.id, COALESCE(al.artist_id, 0), al.name,
		       COALESCE(ar.name, 'Unknown Artist'),
		       (SELECT COUNT(*) FROM songs s WHERE s.album_id = al.id)
		FROM albums al
		LEFT JOIN artists ar ON ar.id = al.artist_id
		ORDER BY al.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var a Album
		if err = rows.Scan(&a.ID, &a.ArtistID, &a.Name, &a.Artist, &a.SongCount); err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return albums, nil
}

// Genres returns all genres with their song counts, ordered by name.
func (c *Catalog) Genres(ctx context.Context) ([]Genre, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_genres", start, err) }()

	rows, err := c.db.QueryContext(ctx, `
		SELECT g.id, g.name,
		       (SELECT COUNT(*) FROM songs s WHERE s.genre_id = g.id)
		FROM genres g ORDER BY g.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	var genres []Genre
	for rows.Next() {
		var g Genre
		if err = rows.Scan(&g.ID, &g.Name, &g.SongCount); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return genres, nil
}

// CalculateStats recomputes library statistics from the database.
func (c *Catalog) CalculateStats(ctx context.Context) (LibraryStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("calculate_stats", start, err) }()

	var stats LibraryStats
	var lastScanned sql.NullInt64

	err = c.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM songs),
			(SELECT COUNT(*) FROM artists),
			(SELECT COUNT(*) FROM albums),
			(SELECT COUNT(*) FROM genres),
			(SELECT COUNT(*) FROM folders),
			(SELECT COUNT(*) FROM playlists),
			(SELECT COALESCE(SUM(duration_ms), 0) FROM songs),
			(SELECT MAX(last_scanned_at) FROM folders)`).Scan(
		&stats.TotalSongs, &stats.TotalArtists, &stats.TotalAlbums,
		&stats.TotalGenres, &stats.TotalFolders, &stats.TotalPlaylists,
		&stats.TotalDurationMS, &lastScanned)
	if err != nil {
		return stats, fmt.Errorf("failed to calculate stats: %w", err)
	}

	if lastScanned.Valid && lastScanned.Int64 > 0 {
		stats.LastScanned = time.Unix(lastScanned.Int64, 0)
	}
	return stats, nil
}

func collectSongViews(rows *sql.Rows) ([]SongView, error) {
	var views []SongView
	for rows.Next() {
		var v SongView
		var dateAdded int64
		err := rows.Scan(
			&v.ID, &v.FolderID, &v.RelPath, &v.Title,
			&v.Artist, &v.Album, &v.Genre,
			&v.TrackNumber, &v.DiscNumber, &v.Year, &v.DurationMS,
			&v.SwatchLight, &v.SwatchDark,
			&v.PlayCount, &dateAdded)
		if err != nil {
			return nil, err
		}
		v.DateAdded = time.Unix(dateAdded, 0)
		views = append(views, v)
	}
	return views, rows.Err()
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
