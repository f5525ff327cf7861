package scanner

import (
	"context"
	"database/sql"
	"time"

	"tunevault/internal/catalog"
	"tunevault/internal/logging"
	"tunevault/internal/metrics"
	"tunevault/internal/musictypes"
)

// ReconcileResult counts the mutations one folder's reconcile applied.
type ReconcileResult struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`
	Errors    int `json:"errors"`
}

func (r *ReconcileResult) add(o ReconcileResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
	r.Deleted += o.Deleted
	r.Errors += o.Errors
}

// albumKey scopes album identity to an artist (0 = unknown artist).
type albumKey struct {
	artistID int64
	norm     string
}

// entityCache memoizes name-to-id lookups across one scan session. It is
// only ever consulted from the single reconciling goroutine, so no locking.
type entityCache struct {
	artists map[string]int64
	albums  map[albumKey]int64
	genres  map[string]int64
}

func newEntityCache() *entityCache {
	return &entityCache{
		artists: make(map[string]int64),
		albums:  make(map[albumKey]int64),
		genres:  make(map[string]int64),
	}
}

// reconciler applies one session's extraction results to the catalog,
// one transaction per folder.
type reconciler struct {
	cat   *catalog.Catalog
	cache *entityCache
}

func newReconciler(cat *catalog.Catalog) *reconciler {
	return &reconciler{cat: cat, cache: newEntityCache()}
}

// reconcileFolder diffs the extracted files against the folder's stored
// songs and applies all mutations in one transaction. Extraction failures
// count as errors and leave the stored song (if any) untouched; it will be
// retried on the next scan. Songs whose files are gone are deleted, along
// with any entities the deletions orphaned.
func (rc *reconciler) reconcileFolder(ctx context.Context, folder catalog.Folder,
	extracted []ExtractedFile, warn func(Warning)) (ReconcileResult, error) {

	var res ReconcileResult

	known, err := rc.cat.SongsByFolder(ctx, folder.ID)
	if err != nil {
		return res, err
	}

	tx, err := rc.cat.BeginBatch()
	if err != nil {
		metrics.ReconcileBatchFailures.Inc()
		return res, err
	}

	err = func() error {
		seen := make(map[string]bool, len(extracted))

		for i := range extracted {
			e := &extracted[i]
			rel := e.File.RelPath

			if e.Err != nil {
				res.Errors++
				warn(Warning{Path: e.File.AbsPath, Reason: e.Err.Error()})
				// The stored song survives so a transient read failure
				// does not evict the file from the library.
				seen[rel] = true
				continue
			}
			seen[rel] = true

			existing, ok := known[rel]
			if ok && existing.Fingerprint() == e.fingerprint() {
				res.Unchanged++
				continue
			}

			song := e.song()
			if err := rc.resolveEntities(tx, song, &e.Meta); err != nil {
				return err
			}

			if ok {
				song.ID = existing.ID
				if err := rc.cat.UpdateSong(tx, song); err != nil {
					return err
				}
				res.Updated++
				metrics.ReconcileMutations.WithLabelValues("update").Inc()
			} else {
				if err := rc.cat.InsertSong(tx, song); err != nil {
					return err
				}
				res.Inserted++
				metrics.ReconcileMutations.WithLabelValues("insert").Inc()
			}
		}

		var stale []int64
		for rel, s := range known {
			if !seen[rel] {
				stale = append(stale, s.ID)
			}
		}
		if len(stale) > 0 {
			if err := rc.cat.DeleteSongs(tx, stale); err != nil {
				return err
			}
			res.Deleted = len(stale)
			metrics.ReconcileMutations.WithLabelValues("delete").Add(float64(len(stale)))
		}

		if res.Updated > 0 || res.Deleted > 0 {
			orphans, err := rc.cat.CleanOrphans(tx)
			if err != nil {
				return err
			}
			if orphans.Artists+orphans.Albums+orphans.Genres > 0 {
				logging.Debug("folder %s: removed %d orphaned artists, %d albums, %d genres",
					folder.Path, orphans.Artists, orphans.Albums, orphans.Genres)
				// Cached ids may now point at deleted rows.
				rc.cache = newEntityCache()
			}
		}

		return rc.cat.TouchFolderScanned(tx, folder.ID, time.Now())
	}()

	if commitErr := rc.cat.EndBatch(tx, err); commitErr != nil {
		metrics.ReconcileBatchFailures.Inc()
		return ReconcileResult{}, commitErr
	}
	return res, nil
}

// resolveEntities fills the song's artist/album/genre ids from tag names,
// consulting the session cache before the database. Albums are scoped to
// their artist so same-named albums by different artists stay distinct.
func (rc *reconciler) resolveEntities(tx *sql.Tx, song *catalog.Song, meta *Metadata) error {
	if norm := musictypes.NormalizeName(meta.Artist); norm != "" {
		id, ok := rc.cache.artists[norm]
		if !ok {
			var err error
			id, err = rc.cat.FindOrCreateArtist(tx, meta.Artist)
			if err != nil {
				return err
			}
			rc.cache.artists[norm] = id
		}
		song.ArtistID = id
	}

	if norm := musictypes.NormalizeName(meta.Album); norm != "" {
		key := albumKey{artistID: song.ArtistID, norm: norm}
		id, ok := rc.cache.albums[key]
		if !ok {
			var err error
			id, err = rc.cat.FindOrCreateAlbum(tx, song.ArtistID, meta.Album)
			if err != nil {
				return err
			}
			rc.cache.albums[key] = id
		}
		song.AlbumID = id
	}

	if norm := musictypes.NormalizeName(meta.Genre); norm != "" {
		id, ok := rc.cache.genres[norm]
		if !ok {
			var err error
			id, err = rc.cat.FindOrCreateGenre(tx, meta.Genre)
			if err != nil {
				return err
			}
			rc.cache.genres[norm] = id
		}
		song.GenreID = id
	}

	return nil
}
