package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SongsByFolder returns all songs stored for one folder, keyed by relative
// path. This is the reconciler's "known" side of the diff.
func (c *Catalog) SongsByFolder(ctx context.Context, folderID int64) (map[string]*Song, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("songs_by_folder", start, err) }()

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, folder_id, rel_path, title,
		       COALESCE(artist_id, 0), COALESCE(album_id, 0), COALESCE(genre_id, 0),
		       track_number, disc_number, year, duration_ms,
		       file_size, mod_time,
		       COALESCE(swatch_light, ''), COALESCE(swatch_dark, ''),
		       play_count, date_added, updated_at
		FROM songs WHERE folder_id = ?`, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for folder %d: %w", folderID, err)
	}
	defer rows.Close()

	songs := make(map[string]*Song)
	for rows.Next() {
		s, scanErr := scanSong(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		songs[s.RelPath] = s
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return songs, nil
}

// InsertSong inserts a new song inside a reconcile transaction and fills in
// the assigned id. DateAdded and UpdatedAt are set to now.
func (c *Catalog) InsertSong(tx *sql.Tx, s *Song) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_song", start, err) }()

	now := time.Now()
	s.DateAdded = now
	s.UpdatedAt = now

	res, err := tx.Exec(`
		INSERT INTO songs (
			folder_id, rel_path, title, artist_id, album_id, genre_id,
			track_number, disc_number, year, duration_ms,
			file_size, mod_time, swatch_light, swatch_dark,
			play_count, date_added, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		s.FolderID, s.RelPath, s.Title,
		nullID(s.ArtistID), nullID(s.AlbumID), nullID(s.GenreID),
		s.TrackNumber, s.DiscNumber, s.Year, s.DurationMS,
		s.FileSize, s.ModTime.Unix(), s.SwatchLight, s.SwatchDark,
		now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert song %s: %w", s.RelPath, err)
	}

	s.ID, err = res.LastInsertId()
	return err
}

// UpdateSong rewrites a song's metadata inside a reconcile transaction.
// The row id, play count, and date added are preserved; only metadata,
// fingerprint, and swatches change.
func (c *Catalog) UpdateSong(tx *sql.Tx, s *Song) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_song", start, err) }()

	s.UpdatedAt = time.Now()

	_, err = tx.Exec(`
		UPDATE songs SET
			title = ?, artist_id = ?, album_id = ?, genre_id = ?,
			track_number = ?, disc_number = ?, year = ?, duration_ms = ?,
			file_size = ?, mod_time = ?, swatch_light = ?, swatch_dark = ?,
			updated_at = ?
		WHERE id = ?`,
		s.Title, nullID(s.ArtistID), nullID(s.AlbumID), nullID(s.GenreID),
		s.TrackNumber, s.DiscNumber, s.Year, s.DurationMS,
		s.FileSize, s.ModTime.Unix(), s.SwatchLight, s.SwatchDark,
		s.UpdatedAt.Unix(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update song %d: %w", s.ID, err)
	}
	return nil
}

// DeleteSongs removes songs by id inside a reconcile transaction. Playlist
// membership rows go with them via ON DELETE CASCADE.
func (c *Catalog) DeleteSongs(tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("delete_songs", start, err) }()

	stmt, err := tx.Prepare("DELETE FROM songs WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare song delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err = stmt.Exec(id); err != nil {
			return fmt.Errorf("failed to delete song %d: %w", id, err)
		}
	}
	return nil
}

// SongByID returns one song, or sql.ErrNoRows if it does not exist.
func (c *Catalog) SongByID(ctx context.Context, id int64) (*Song, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("song_by_id", start, err) }()

	row := c.db.QueryRowContext(ctx, `
		SELECT id, folder_id, rel_path, title,
		       COALESCE(artist_id, 0), COALESCE(album_id, 0), COALESCE(genre_id, 0),
		       track_number, disc_number, year, duration_ms,
		       file_size, mod_time,
		       COALESCE(swatch_light, ''), COALESCE(swatch_dark, ''),
		       play_count, date_added, updated_at
		FROM songs WHERE id = ?`, id)

	s, err := scanSong(row)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SongPath returns the absolute path of a song by joining its folder root
// with the stored relative path.
func (c *Catalog) SongPath(ctx context.Context, id int64) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("song_by_id", start, err) }()

	var folderPath, relPath string
	err = c.db.QueryRowContext(ctx, `
		SELECT f.path, s.rel_path
		FROM songs s JOIN folders f ON f.id = s.folder_id
		WHERE s.id = ?`, id).Scan(&folderPath, &relPath)
	if err != nil {
		return "", err
	}
	return folderPath + "/" + relPath, nil
}

// IncrementPlayCount bumps a song's play counter.
func (c *Catalog) IncrementPlayCount(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("increment_play_count", start, err) }()

	res, err := c.db.ExecContext(ctx,
		"UPDATE songs SET play_count = play_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment play count for song %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(r rowScanner) (*Song, error) {
	var s Song
	var modTime, dateAdded, updatedAt int64

	err := r.Scan(
		&s.ID, &s.FolderID, &s.RelPath, &s.Title,
		&s.ArtistID, &s.AlbumID, &s.GenreID,
		&s.TrackNumber, &s.DiscNumber, &s.Year, &s.DurationMS,
		&s.FileSize, &modTime,
		&s.SwatchLight, &s.SwatchDark,
		&s.PlayCount, &dateAdded, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.ModTime = time.Unix(modTime, 0)
	s.DateAdded = time.Unix(dateAdded, 0)
	s.UpdatedAt = time.Unix(updatedAt, 0)
	return &s, nil
}
