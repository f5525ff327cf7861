package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tunevault/internal/musictypes"
)

// FindOrCreateArtist resolves an artist name to an id inside a reconcile
// transaction, creating the row if no artist with the same normalized name
// exists. The first-seen display name wins; later casings map to the same id.
func (c *Catalog) FindOrCreateArtist(tx *sql.Tx, name string) (int64, error) {
	return findOrCreate(tx,
		"SELECT id FROM artists WHERE norm_name = ?",
		"INSERT INTO artists (name, norm_name) VALUES (?, ?)",
		name)
}

// FindOrCreateGenre resolves a genre name to an id inside a reconcile
// transaction, creating the row if needed.
func (c *Catalog) FindOrCreateGenre(tx *sql.Tx, name string) (int64, error) {
	return findOrCreate(tx,
		"SELECT id FROM genres WHERE norm_name = ?",
		"INSERT INTO genres (name, norm_name) VALUES (?, ?)",
		name)
}

func findOrCreate(tx *sql.Tx, selectQ, insertQ, name string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("find_or_create_entity", start, err) }()

	norm := musictypes.NormalizeName(name)
	if norm == "" {
		return 0, nil
	}

	var id int64
	err = tx.QueryRow(selectQ, norm).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("entity lookup failed for %q: %w", name, err)
	}

	res, err := tx.Exec(insertQ, name, norm)
	if err != nil {
		return 0, fmt.Errorf("entity insert failed for %q: %w", name, err)
	}
	return res.LastInsertId()
}

// FindOrCreateAlbum resolves an album name scoped to an artist (0 = unknown
// artist) inside a reconcile transaction, creating the row if needed.
func (c *Catalog) FindOrCreateAlbum(tx *sql.Tx, artistID int64, name string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("find_or_create_entity", start, err) }()

	norm := musictypes.NormalizeName(name)
	if norm == "" {
		return 0, nil
	}

	// artist_id IS NULL and artist_id = NULL are different in SQL, so the
	// unknown-artist case needs its own lookup.
	var id int64
	if artistID == 0 {
		err = tx.QueryRow(
			"SELECT id FROM albums WHERE artist_id IS NULL AND norm_name = ?", norm).Scan(&id)
	} else {
		err = tx.QueryRow(
			"SELECT id FROM albums WHERE artist_id = ? AND norm_name = ?", artistID, norm).Scan(&id)
	}
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("album lookup failed for %q: %w", name, err)
	}

	res, err := tx.Exec(
		"INSERT INTO albums (artist_id, name, norm_name) VALUES (?, ?, ?)",
		nullID(artistID), name, norm)
	if err != nil {
		return 0, fmt.Errorf("album insert failed for %q: %w", name, err)
	}
	return res.LastInsertId()
}

// OrphanCounts reports how many rows CleanOrphans removed.
type OrphanCounts struct {
	Albums  int64
	Artists int64
	Genres  int64
}

// CleanOrphans deletes entities no longer referenced by any song, inside the
// same transaction that deleted or re-pointed the songs. Albums go first so
// artists referenced only through albums become orphans in the same pass.
func (c *Catalog) CleanOrphans(tx *sql.Tx) (OrphanCounts, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clean_orphans", start, err) }()

	var counts OrphanCounts

	res, err := tx.Exec(`
		DELETE FROM albums WHERE id NOT IN
			(SELECT DISTINCT album_id FROM songs WHERE album_id IS NOT NULL)`)
	if err != nil {
		return counts, fmt.Errorf("failed to clean orphaned albums: %w", err)
	}
	counts.Albums, _ = res.RowsAffected()

	res, err = tx.Exec(`
		DELETE FROM artists WHERE id NOT IN
			(SELECT DISTINCT artist_id FROM songs WHERE artist_id IS NOT NULL)
		AND id NOT IN
			(SELECT DISTINCT artist_id FROM albums WHERE artist_id IS NOT NULL)`)
	if err != nil {
		return counts, fmt.Errorf("failed to clean orphaned artists: %w", err)
	}
	counts.Artists, _ = res.RowsAffected()

	res, err = tx.Exec(`
		DELETE FROM genres WHERE id NOT IN
			(SELECT DISTINCT genre_id FROM songs WHERE genre_id IS NOT NULL)`)
	if err != nil {
		return counts, fmt.Errorf("failed to clean orphaned genres: %w", err)
	}
	counts.Genres, _ = res.RowsAffected()

	return counts, nil
}
