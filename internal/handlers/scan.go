package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"tunevault/internal/catalog"
	"tunevault/internal/scanner"
)

// TriggerScan starts a scan session over all registered folders.
func (h *Handlers) TriggerScan(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.scan.TriggerScan(r.Context())
	if errors.Is(err, scanner.ErrScanInProgress) {
		writeError(w, http.StatusConflict, "scan already in progress")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start scan")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"sessionId": sessionID})
}

// CancelScan cancels the running scan session.
func (h *Handlers) CancelScan(w http.ResponseWriter, _ *http.Request) {
	if !h.scan.CancelScan() {
		writeError(w, http.StatusConflict, "no scan in progress")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScanProgress returns the running session's progress, or the last
// finished session.
func (h *Handlers) ScanProgress(w http.ResponseWriter, _ *http.Request) {
	progress, ok := h.scan.Progress()
	if !ok {
		writeError(w, http.StatusNotFound, "no scan has run yet")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// ListFolders returns all registered library folders.
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.cat.Folders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list folders")
		return
	}
	if folders == nil {
		folders = []catalog.Folder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

// AddFolder registers a new library folder. The path must exist and be a
// directory; the folder's contents appear after the next scan.
func (h *Handlers) AddFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	abs, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		writeError(w, http.StatusBadRequest, "path is not an accessible directory")
		return
	}

	folder, err := h.cat.AddFolder(r.Context(), abs)
	if errors.Is(err, catalog.ErrFolderExists) {
		writeError(w, http.StatusConflict, "folder already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add folder")
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// RemoveFolder unregisters a folder and removes its songs from the catalog.
// Files on disk are untouched.
func (h *Handlers) RemoveFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	err := h.cat.RemoveFolder(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "folder not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove folder")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
