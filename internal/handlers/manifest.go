package handlers

import (
	"errors"
	"net/http"

	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/storage"
)

// ==========================
// ManifestHandler
// ==========================
type ManifestHandler struct {
	Store *storage.Store
}

// Get serves the current manifest straight from the bucket. The bytes
// are whatever the last rebuild wrote; this handler never regenerates.
func (h *ManifestHandler) Get(w http.ResponseWriter, r *http.Request) {
	obj, err := h.Store.Get(r.Context(), manifest.Key)
	if errors.Is(err, storage.ErrNotExist) {
		JSONError(w, "manifest not generated yet", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(obj.Body)
}
