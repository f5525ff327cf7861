package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"tunevault/internal/catalog"
	"tunevault/internal/musictypes"
	"tunevault/internal/playlist"
	"tunevault/internal/rules"
)

// playlistRequest is the create/update payload.
type playlistRequest struct {
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Rules     json.RawMessage `json:"rules,omitempty"`
	SortField string          `json:"sortField,omitempty"`
	SortOrder string          `json:"sortOrder,omitempty"`
}

// ListPlaylists returns all playlists.
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.cat.Playlists(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list playlists")
		return
	}
	if playlists == nil {
		playlists = []catalog.Playlist{}
	}
	writeJSON(w, http.StatusOK, playlists)
}

// GetPlaylist returns a playlist with its songs. Smart playlist membership
// is evaluated fresh against the current catalog on every read.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPlaylist(w, r)
	if !ok {
		return
	}

	songs, err := h.playlistSongs(r, p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load playlist songs")
		return
	}

	p.SongCount = len(songs)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playlist": p,
		"songs":    songs,
	})
}

// CreatePlaylist creates a manual or smart playlist. Smart playlists must
// carry a valid rule tree.
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePlaylist(w, r, &catalog.Playlist{})
	if !ok {
		return
	}

	err := h.cat.SavePlaylist(r.Context(), p)
	if errors.Is(err, catalog.ErrPlaylistExists) {
		writeError(w, http.StatusConflict, "playlist name already in use")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePlaylist updates a playlist's name, rules, or sort settings.
func (h *Handlers) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadPlaylist(w, r)
	if !ok {
		return
	}

	p, ok := decodePlaylist(w, r, existing)
	if !ok {
		return
	}

	err := h.cat.SavePlaylist(r.Context(), p)
	if errors.Is(err, catalog.ErrPlaylistExists) {
		writeError(w, http.StatusConflict, "playlist name already in use")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update playlist")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlaylist removes a playlist. Songs are untouched.
func (h *Handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	err := h.cat.DeletePlaylist(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPlaylistSongs replaces a manual playlist's song list.
func (h *Handlers) SetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPlaylist(w, r)
	if !ok {
		return
	}
	if p.Kind != catalog.PlaylistManual {
		writeError(w, http.StatusBadRequest, "smart playlists are rule-driven; their songs cannot be set")
		return
	}

	var req struct {
		SongIDs []int64 `json:"songIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.cat.SetPlaylistSongs(r.Context(), p.ID, req.SongIDs); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update playlist songs")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportPlaylist writes a playlist as an extended M3U file.
func (h *Handlers) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPlaylist(w, r)
	if !ok {
		return
	}

	songs, err := h.playlistSongs(r, p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load playlist songs")
		return
	}

	folders, err := h.folderPaths(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resolve folder paths")
		return
	}

	tracks := make([]playlist.Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, playlist.Track{
			Path:            filepath.Join(folders[s.FolderID], filepath.FromSlash(s.RelPath)),
			Artist:          s.Artist,
			Title:           s.Title,
			DurationSeconds: int(s.DurationMS / 1000),
		})
	}

	w.Header().Set("Content-Type", musictypes.GetMimeType(".m3u"))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", p.Name+".m3u"))
	if err := playlist.WriteM3U(w, tracks); err != nil {
		// Headers are already out; nothing to do but log via middleware.
		return
	}
}

// ImportPlaylist creates a manual playlist from an uploaded M3U file.
// Entries that do not resolve to a cataloged song are skipped and reported.
// Clients may pass the source file's name in the filename query parameter;
// it is rejected when the extension is not a playlist format.
func (h *Handlers) ImportPlaylist(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}
	if fn := r.URL.Query().Get("filename"); fn != "" && !musictypes.IsPlaylistFile(fn) {
		writeError(w, http.StatusBadRequest, "filename is not a supported playlist format")
		return
	}

	entries, err := playlist.ParseM3U(r.Body, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid M3U file")
		return
	}

	byPath, err := h.songsByAbsPath(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to index catalog")
		return
	}

	var songIDs []int64
	var skipped []string
	for _, e := range entries {
		if id, ok := byPath[filepath.Clean(e.Path)]; ok {
			songIDs = append(songIDs, id)
		} else {
			skipped = append(skipped, e.Path)
		}
	}

	p := &catalog.Playlist{Name: name, Kind: catalog.PlaylistManual}
	if err := h.cat.SavePlaylist(r.Context(), p); err != nil {
		if errors.Is(err, catalog.ErrPlaylistExists) {
			writeError(w, http.StatusConflict, "playlist name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}
	if err := h.cat.SetPlaylistSongs(r.Context(), p.ID, songIDs); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to populate playlist")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"playlist": p,
		"imported": len(songIDs),
		"skipped":  skipped,
	})
}

// loadPlaylist resolves the {id} route variable to a playlist, writing the
// error response itself on failure.
func (h *Handlers) loadPlaylist(w http.ResponseWriter, r *http.Request) (*catalog.Playlist, bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return nil, false
	}

	p, err := h.cat.PlaylistByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load playlist")
		return nil, false
	}
	return p, true
}

// playlistSongs returns a playlist's songs: stored order for manual
// playlists, a fresh rule evaluation for smart ones.
func (h *Handlers) playlistSongs(r *http.Request, p *catalog.Playlist) ([]catalog.SongView, error) {
	if p.Kind == catalog.PlaylistManual {
		songs, err := h.cat.PlaylistSongs(r.Context(), p.ID)
		if songs == nil {
			songs = []catalog.SongView{}
		}
		return songs, err
	}

	group, err := rules.Parse(p.Rules)
	if err != nil {
		return nil, err
	}
	all, err := h.cat.SongViews(r.Context())
	if err != nil {
		return nil, err
	}
	return rules.Evaluate(group, all, rules.SortSpec{
		Field: p.SortField,
		Desc:  p.SortOrder != "asc",
	}), nil
}

// decodePlaylist parses and validates the request body into base.
func decodePlaylist(w http.ResponseWriter, r *http.Request, base *catalog.Playlist) (*catalog.Playlist, bool) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return nil, false
	}

	kind := catalog.PlaylistKind(req.Kind)
	if kind == "" {
		kind = catalog.PlaylistManual
	}
	if kind != catalog.PlaylistManual && kind != catalog.PlaylistSmart {
		writeError(w, http.StatusBadRequest, "kind must be manual or smart")
		return nil, false
	}

	if kind == catalog.PlaylistSmart {
		if len(req.Rules) == 0 {
			writeError(w, http.StatusBadRequest, "smart playlists require rules")
			return nil, false
		}
		if _, err := rules.Parse(req.Rules); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
	}

	base.Name = req.Name
	base.Kind = kind
	base.Rules = req.Rules
	base.SortField = req.SortField
	base.SortOrder = req.SortOrder
	return base, true
}

// folderPaths maps folder ids to their absolute root paths.
func (h *Handlers) folderPaths(r *http.Request) (map[int64]string, error) {
	folders, err := h.cat.Folders(r.Context())
	if err != nil {
		return nil, err
	}
	paths := make(map[int64]string, len(folders))
	for _, f := range folders {
		paths[f.ID] = f.Path
	}
	return paths, nil
}

// songsByAbsPath indexes every cataloged song by its absolute file path.
func (h *Handlers) songsByAbsPath(r *http.Request) (map[string]int64, error) {
	folders, err := h.folderPaths(r)
	if err != nil {
		return nil, err
	}
	songs, err := h.cat.SongViews(r.Context())
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]int64, len(songs))
	for _, s := range songs {
		root, ok := folders[s.FolderID]
		if !ok {
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(s.RelPath))
		byPath[filepath.Clean(abs)] = s.ID
	}
	return byPath, nil
}
