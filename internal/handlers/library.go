package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"tunevault/internal/catalog"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// ListSongs returns a filtered, sorted, paginated song list.
//
// Query parameters: artistId, albumId, genreId, folderId, search, sort,
// order (asc|desc), limit, offset.
func (h *Handlers) ListSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := queryInt(r, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	opts := catalog.ListOptions{
		ArtistID:  queryInt64(r, "artistId"),
		AlbumID:   queryInt64(r, "albumId"),
		GenreID:   queryInt64(r, "genreId"),
		FolderID:  queryInt64(r, "folderId"),
		Search:    q.Get("search"),
		SortField: q.Get("sort"),
		SortDesc:  q.Get("order") == "desc",
		Limit:     limit,
		Offset:    offset,
	}

	songs, total, err := h.cat.ListSongs(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list songs")
		return
	}
	if songs == nil {
		songs = []catalog.SongView{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"songs":  songs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetSong returns one song by id.
func (h *Handlers) GetSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	song, err := h.cat.SongByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "song not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load song")
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// PlaySong increments a song's play count.
func (h *Handlers) PlaySong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	err := h.cat.IncrementPlayCount(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "song not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record play")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListArtists returns all artists with song counts.
func (h *Handlers) ListArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.cat.Artists(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list artists")
		return
	}
	if artists == nil {
		artists = []catalog.Artist{}
	}
	writeJSON(w, http.StatusOK, artists)
}

// ListAlbums returns all albums with artist names and song counts.
func (h *Handlers) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.cat.Albums(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list albums")
		return
	}
	if albums == nil {
		albums = []catalog.Album{}
	}
	writeJSON(w, http.StatusOK, albums)
}

// ListGenres returns all genres with song counts.
func (h *Handlers) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.cat.Genres(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list genres")
		return
	}
	if genres == nil {
		genres = []catalog.Genre{}
	}
	writeJSON(w, http.StatusOK, genres)
}

// Stats returns cached library statistics.
func (h *Handlers) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cat.GetStats())
}
