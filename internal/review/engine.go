// Package review implements the change-request state machine: admin
// approve/reject decisions and the publish step that applies an approved
// change to the object store and regenerates the manifest.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/metrics"
	"github.com/crucial707/coursevault/internal/models"
	"github.com/crucial707/coursevault/internal/paths"
	"github.com/crucial707/coursevault/internal/repo"
	"github.com/crucial707/coursevault/internal/storage"
)

var (
	// ErrInvalidAction rejects any review action other than approve/reject.
	ErrInvalidAction = errors.New(`action must be "approve" or "reject"`)

	// ErrNotPending covers both a missing row and a row past pending, so a
	// caller cannot distinguish another user's row from a decided one.
	ErrNotPending = errors.New("not found or not pending")

	// ErrNotApproved is the publish-side equivalent of ErrNotPending.
	ErrNotApproved = errors.New("not found or not approved")

	// ErrStagedMissing means the staged object referenced by an approved
	// upload is gone; the row stays approved and the caller must re-stage.
	ErrStagedMissing = errors.New("staged file not found")

	// ErrSourceMissing means the object a rename reads from is gone.
	ErrSourceMissing = errors.New("source file not found")
)

const targetTypeChangeRequest = "change_request"

// Engine enacts review and publish transitions. It holds no state between
// calls; every operation re-reads current truth, and the conditional
// writes in the repo are the only concurrency guard.
type Engine struct {
	changes *repo.ChangeRequestRepo
	audit   *repo.AuditRepo
	store   *storage.Store
	builder *manifest.Builder
}

func NewEngine(changes *repo.ChangeRequestRepo, audit *repo.AuditRepo, store *storage.Store, builder *manifest.Builder) *Engine {
	return &Engine{changes: changes, audit: audit, store: store, builder: builder}
}

// Review flips a pending request to approved or rejected, records the
// reviewer, and writes one audit entry. Rejecting an upload deletes its
// staged object so terminal requests leave no orphaned bytes. A second
// reviewer racing on the same row loses with ErrNotPending.
func (e *Engine) Review(ctx context.Context, id, action string, reviewerID int, note string) (models.ChangeStatus, error) {
	var newStatus models.ChangeStatus
	switch action {
	case "approve":
		newStatus = models.StatusApproved
	case "reject":
		newStatus = models.StatusRejected
	default:
		return "", ErrInvalidAction
	}

	cr, err := e.changes.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if cr == nil || cr.Status != models.StatusPending {
		return "", ErrNotPending
	}

	ok, err := e.changes.MarkReviewed(ctx, id, newStatus, reviewerID, note)
	if err != nil {
		return "", err
	}
	if !ok {
		// A concurrent reviewer won the conditional update.
		return "", ErrNotPending
	}

	if err := e.audit.Record(ctx, reviewerID, action, targetTypeChangeRequest, id, note); err != nil {
		return "", err
	}
	metrics.ReviewTotal.WithLabelValues(action).Inc()

	if newStatus == models.StatusRejected && cr.StagedKey != "" {
		// The transition already committed; a failed cleanup must not
		// undo the decision.
		if err := e.store.Delete(ctx, paths.StorageKey(cr.StagedKey)); err != nil {
			slog.Warn("staged cleanup failed", "id", id, "key", cr.StagedKey, "error", err)
		} else {
			metrics.StagedCleanupTotal.Inc()
		}
	}

	return newStatus, nil
}

// publishDetails is the audit payload for a publish entry.
type publishDetails struct {
	Type       models.ChangeType `json:"type"`
	TargetPath string            `json:"targetPath"`
}

// Publish applies an approved request to the object store, regenerates
// the manifest, flips the row to published, and writes one audit entry.
// Any failure aborts the remaining steps and leaves the row approved; the
// steps are sequential and non-transactional, so an interrupted publish
// can leave the object moved with the row still approved (operator
// reconciliation, not retries, resolves that).
func (e *Engine) Publish(ctx context.Context, id string, publisherID int) error {
	cr, err := e.changes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cr == nil || cr.Status != models.StatusApproved {
		return ErrNotApproved
	}

	targetKey := paths.LogicalPath(cr.TargetPath).Key()

	if err := e.applyChange(ctx, cr, targetKey); err != nil {
		metrics.PublishTotal.WithLabelValues(string(cr.Type), "failed").Inc()
		return err
	}

	start := time.Now()
	if _, err := e.builder.Rebuild(ctx); err != nil {
		metrics.PublishTotal.WithLabelValues(string(cr.Type), "failed").Inc()
		return fmt.Errorf("regenerate manifest: %w", err)
	}
	metrics.ManifestRebuildSeconds.Observe(time.Since(start).Seconds())

	ok, err := e.changes.MarkPublished(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApproved
	}

	details, _ := json.Marshal(publishDetails{Type: cr.Type, TargetPath: string(targetKey)})
	if err := e.audit.Record(ctx, publisherID, "publish", targetTypeChangeRequest, id, string(details)); err != nil {
		return err
	}

	metrics.PublishTotal.WithLabelValues(string(cr.Type), "published").Inc()
	return nil
}

// applyChange performs the object mutation for one request type.
func (e *Engine) applyChange(ctx context.Context, cr *models.ChangeRequest, targetKey paths.StorageKey) error {
	switch cr.Type {
	case models.TypeUpload:
		stagedKey := paths.StorageKey(cr.StagedKey)
		obj, err := e.store.Get(ctx, stagedKey)
		if errors.Is(err, storage.ErrNotExist) {
			return ErrStagedMissing
		}
		if err != nil {
			return err
		}
		if err := e.store.Put(ctx, targetKey, obj.Body, obj.ContentType, ""); err != nil {
			return err
		}
		if err := e.store.Delete(ctx, stagedKey); err != nil {
			return err
		}
		metrics.StagedCleanupTotal.Inc()
		return nil

	case models.TypeRename:
		sourceKey := paths.LogicalPath(cr.SourcePath).Key()
		obj, err := e.store.Get(ctx, sourceKey)
		if errors.Is(err, storage.ErrNotExist) {
			return ErrSourceMissing
		}
		if err != nil {
			return err
		}
		if err := e.store.Put(ctx, targetKey, obj.Body, obj.ContentType, ""); err != nil {
			return err
		}
		return e.store.Delete(ctx, sourceKey)

	case models.TypeDelete:
		// Deleting a nonexistent key is not an error.
		return e.store.Delete(ctx, targetKey)

	default:
		return fmt.Errorf("unknown change type %q", cr.Type)
	}
}
