package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/middleware"
	"github.com/crucial707/coursevault/internal/models"
	"github.com/crucial707/coursevault/internal/paths"
	"github.com/crucial707/coursevault/internal/repo"
	"github.com/crucial707/coursevault/internal/storage"
)

// ==========================
// ChangeHandler
// ==========================
type ChangeHandler struct {
	Repo           *repo.ChangeRequestRepo
	Store          *storage.Store
	MaxUploadBytes int64
}

func newChangeID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Multipart boundaries, part headers and the targetPath field all count
// against the request body cap, so the cap sits above the file limit.
const formOverheadBytes = 1 << 20

//
// ==========================
// Submit Upload (multipart: file + targetPath)
// ==========================
//

func (h *ChangeHandler) SubmitUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+formOverheadBytes)

	// Small memory threshold; large files spill to temp storage.
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			JSONError(w, "file too large", http.StatusBadRequest)
			return
		}
		JSONError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	targetPath := r.FormValue("targetPath")
	if !paths.IsLogical(targetPath) {
		JSONError(w, "targetPath must start with /contents/", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > h.MaxUploadBytes {
		JSONError(w, "file too large", http.StatusBadRequest)
		return
	}

	id := newChangeID()
	stagedKey := paths.StorageKey(manifest.StagingPrefix + id + "/" + header.Filename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.Store.Upload(r.Context(), stagedKey, file, contentType); err != nil {
		slog.Error("stage upload failed", "key", stagedKey, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	cr := &models.ChangeRequest{
		ID:               id,
		UserID:           middleware.UserID(r),
		Type:             models.TypeUpload,
		TargetPath:       targetPath,
		StagedKey:        string(stagedKey),
		OriginalFilename: header.Filename,
		MimeType:         contentType,
		FileSize:         header.Size,
	}
	if err := h.Repo.Create(r.Context(), cr); err != nil {
		// Row insert failed; the staged object must not outlive it.
		if delErr := h.Store.Delete(r.Context(), stagedKey); delErr != nil {
			slog.Warn("staged cleanup failed", "key", stagedKey, "error", delErr)
		}
		slog.Error("create change request failed", "id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": cr.ID, "status": cr.Status})
}

//
// ==========================
// Submit Rename
// ==========================
//

func (h *ChangeHandler) SubmitRename(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SourcePath string `json:"sourcePath" validate:"required"`
		TargetPath string `json:"targetPath" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}
	if !paths.IsLogical(input.SourcePath) || !paths.IsLogical(input.TargetPath) {
		JSONError(w, "paths must start with /contents/", http.StatusBadRequest)
		return
	}

	cr := &models.ChangeRequest{
		ID:         newChangeID(),
		UserID:     middleware.UserID(r),
		Type:       models.TypeRename,
		TargetPath: input.TargetPath,
		SourcePath: input.SourcePath,
	}
	if err := h.Repo.Create(r.Context(), cr); err != nil {
		slog.Error("create change request failed", "id", cr.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": cr.ID, "status": cr.Status})
}

//
// ==========================
// Submit Delete
// ==========================
//

func (h *ChangeHandler) SubmitDelete(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TargetPath string `json:"targetPath" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}
	if !paths.IsLogical(input.TargetPath) {
		JSONError(w, "targetPath must start with /contents/", http.StatusBadRequest)
		return
	}

	cr := &models.ChangeRequest{
		ID:         newChangeID(),
		UserID:     middleware.UserID(r),
		Type:       models.TypeDelete,
		TargetPath: input.TargetPath,
	}
	if err := h.Repo.Create(r.Context(), cr); err != nil {
		slog.Error("create change request failed", "id", cr.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": cr.ID, "status": cr.Status})
}

//
// ==========================
// List Own Changes
// ==========================
//

func (h *ChangeHandler) ListChanges(w http.ResponseWriter, r *http.Request) {
	status := models.ChangeStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		JSONError(w, "invalid status", http.StatusBadRequest)
		return
	}

	changes, err := h.Repo.ListForUser(r.Context(), middleware.UserID(r), status)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if changes == nil {
		changes = []models.ChangeRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"changes": changes})
}

//
// ==========================
// Count Own Changes
// ==========================
//

func (h *ChangeHandler) CountChanges(w http.ResponseWriter, r *http.Request) {
	status := models.ChangeStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		JSONError(w, "invalid status", http.StatusBadRequest)
		return
	}

	n, err := h.Repo.CountForUser(r.Context(), middleware.UserID(r), status)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"count": n})
}

//
// ==========================
// Cancel Pending Change
// ==========================
//

func (h *ChangeHandler) CancelChange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := middleware.UserID(r)

	cr, err := h.Repo.GetPendingForUser(r.Context(), id, userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if cr == nil {
		JSONError(w, "not found or not pending", http.StatusNotFound)
		return
	}

	if cr.StagedKey != "" {
		if err := h.Store.Delete(r.Context(), paths.StorageKey(cr.StagedKey)); err != nil {
			slog.Warn("staged cleanup failed", "id", id, "key", cr.StagedKey, "error", err)
		}
	}

	ok, err := h.Repo.DeletePending(r.Context(), id, userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !ok {
		JSONError(w, "not found or not pending", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
