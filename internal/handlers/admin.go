package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/middleware"
	"github.com/crucial707/coursevault/internal/models"
	"github.com/crucial707/coursevault/internal/repo"
	"github.com/crucial707/coursevault/internal/review"
)

const (
	auditDefaultLimit = 50
	auditMaxLimit     = 100
)

// ==========================
// AdminHandler
// ==========================
type AdminHandler struct {
	Changes *repo.ChangeRequestRepo
	Audit   *repo.AuditRepo
	Engine  *review.Engine
	Builder *manifest.Builder
}

//
// ==========================
// Review Queue
// ==========================
//

func (h *AdminHandler) Queue(w http.ResponseWriter, r *http.Request) {
	status := models.ChangeStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		JSONError(w, "invalid status", http.StatusBadRequest)
		return
	}

	queue, err := h.Changes.ListQueue(r.Context(), status)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if queue == nil {
		queue = []models.QueueEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"queue": queue})
}

//
// ==========================
// Review (approve / reject)
// ==========================
//

func (h *AdminHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input struct {
		Action string `json:"action"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	status, err := h.Engine.Review(r.Context(), id, input.Action, middleware.UserID(r), input.Note)
	switch {
	case errors.Is(err, review.ErrInvalidAction):
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, review.ErrNotPending):
		JSONError(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		slog.Error("review failed", "id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "status": status})
}

//
// ==========================
// Publish
// ==========================
//

func (h *AdminHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Engine.Publish(r.Context(), id, middleware.UserID(r))
	switch {
	case errors.Is(err, review.ErrNotApproved):
		JSONError(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		slog.Error("publish failed", "id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "status": models.StatusPublished})
}

//
// ==========================
// Audit Log
// ==========================
//

func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit := auditDefaultLimit
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	if limit > auditMaxLimit {
		limit = auditMaxLimit
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	entries, err := h.Audit.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"audit":  entries,
		"limit":  limit,
		"offset": offset,
	})
}

//
// ==========================
// Rebuild Manifest
// ==========================
//

func (h *AdminHandler) RebuildManifest(w http.ResponseWriter, r *http.Request) {
	m, err := h.Builder.Rebuild(r.Context())
	if err != nil {
		slog.Error("manifest rebuild failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"children": len(m.Children),
	})
}
