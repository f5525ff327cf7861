package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrPlaylistExists is returned when creating a playlist with a name that is
// already taken.
var ErrPlaylistExists = errors.New("playlist name already in use")

// Playlists returns all playlists ordered by name. Song counts are filled in
// for manual playlists; smart playlist membership is computed on demand and
// left at zero here.
func (c *Catalog) Playlists(ctx context.Context) ([]Playlist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_playlists", start, err) }()

	rows, err := c.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.kind, COALESCE(p.rules, ''),
		       p.sort_field, p.sort_order,
		       (SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.id),
		       p.created_at, p.updated_at
		FROM playlists p ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		p, scanErr := scanPlaylist(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

// PlaylistByID returns one playlist, or sql.ErrNoRows if it does not exist.
func (c *Catalog) PlaylistByID(ctx context.Context, id int64) (*Playlist, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("playlist_by_id", start, err) }()

	row := c.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.kind, COALESCE(p.rules, ''),
		       p.sort_field, p.sort_order,
		       (SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.id),
		       p.created_at, p.updated_at
		FROM playlists p WHERE p.id = ?`, id)

	return scanPlaylist(row)
}

// SavePlaylist inserts or updates a playlist. A zero id means insert; the
// assigned id is written back.
func (c *Catalog) SavePlaylist(ctx context.Context, p *Playlist) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_playlist", start, err) }()

	now := time.Now()
	p.UpdatedAt = now

	rules := string(p.Rules)

	if p.ID == 0 {
		p.CreatedAt = now
		var res sql.Result
		res, err = c.db.ExecContext(ctx, `
			INSERT INTO playlists (name, kind, rules, sort_field, sort_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Name, string(p.Kind), rules, p.SortField, p.SortOrder, now.Unix(), now.Unix())
		if err != nil {
			if isUniqueViolation(err) {
				err = ErrPlaylistExists
			}
			return err
		}
		p.ID, err = res.LastInsertId()
		return err
	}

	var res sql.Result
	res, err = c.db.ExecContext(ctx, `
		UPDATE playlists SET name = ?, kind = ?, rules = ?, sort_field = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, string(p.Kind), rules, p.SortField, p.SortOrder, now.Unix(), p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrPlaylistExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = sql.ErrNoRows
		return err
	}
	return nil
}

// DeletePlaylist removes a playlist; membership rows cascade.
func (c *Catalog) DeletePlaylist(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_playlist", start, err) }()

	res, err := c.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPlaylistSongs replaces a manual playlist's ordered song list. Song ids
// that no longer exist in the catalog are skipped silently.
func (c *Catalog) SetPlaylistSongs(ctx context.Context, playlistID int64, songIDs []int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_playlist_songs", start, err) }()

	tx, err := c.BeginBatch()
	if err != nil {
		return err
	}

	err = func() error {
		if _, execErr := tx.Exec("DELETE FROM playlist_songs WHERE playlist_id = ?", playlistID); execErr != nil {
			return execErr
		}
		stmt, prepErr := tx.Prepare(`
			INSERT INTO playlist_songs (playlist_id, song_id, position)
			SELECT ?, id, ? FROM songs WHERE id = ?`)
		if prepErr != nil {
			return prepErr
		}
		defer stmt.Close()

		for pos, songID := range songIDs {
			if _, execErr := stmt.Exec(playlistID, pos, songID); execErr != nil {
				return fmt.Errorf("failed to add song %d to playlist %d: %w", songID, playlistID, execErr)
			}
		}
		_, execErr := tx.Exec("UPDATE playlists SET updated_at = ? WHERE id = ?",
			time.Now().Unix(), playlistID)
		return execErr
	}()

	return c.EndBatch(tx, err)
}

// PlaylistSongs returns a manual playlist's songs in stored position order.
func (c *Catalog) PlaylistSongs(ctx context.Context, playlistID int64) ([]SongView, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("playlist_songs", start, err) }()

	rows, err := c.db.QueryContext(ctx, songViewSelect+`
		JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist %d songs: %w", playlistID, err)
	}
	defer rows.Close()

	views, err := collectSongViews(rows)
	return views, err
}

func scanPlaylist(r rowScanner) (*Playlist, error) {
	var p Playlist
	var kind, rules string
	var created, updated int64

	err := r.Scan(&p.ID, &p.Name, &kind, &rules,
		&p.SortField, &p.SortOrder, &p.SongCount, &created, &updated)
	if err != nil {
		return nil, err
	}

	p.Kind = PlaylistKind(kind)
	if rules != "" {
		p.Rules = []byte(rules)
	}
	p.CreatedAt = time.Unix(created, 0)
	p.UpdatedAt = time.Unix(updated, 0)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
