package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/coursevault/internal/models"
)

// ChangeRequestRepo persists change-request rows. It owns no business
// policy; status preconditions are enforced as conditional writes so the
// database decides races, not this process.
type ChangeRequestRepo struct {
	DB *sql.DB
}

func NewChangeRequestRepo(db *sql.DB) *ChangeRequestRepo {
	return &ChangeRequestRepo{DB: db}
}

const changeRequestColumns = `id, user_id, type, status, target_path,
	COALESCE(source_path, ''), COALESCE(staged_r2_key, ''),
	COALESCE(original_filename, ''), COALESCE(mime_type, ''), COALESCE(file_size, 0),
	reviewed_by, COALESCE(review_note, ''), reviewed_at, created_at, updated_at`

func scanChangeRequest(row interface{ Scan(...interface{}) error }, cr *models.ChangeRequest) error {
	var reviewedBy sql.NullInt64
	var reviewedAt sql.NullTime
	err := row.Scan(
		&cr.ID, &cr.UserID, &cr.Type, &cr.Status, &cr.TargetPath,
		&cr.SourcePath, &cr.StagedKey,
		&cr.OriginalFilename, &cr.MimeType, &cr.FileSize,
		&reviewedBy, &cr.ReviewNote, &reviewedAt, &cr.CreatedAt, &cr.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if reviewedBy.Valid {
		v := int(reviewedBy.Int64)
		cr.ReviewedBy = &v
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		cr.ReviewedAt = &t
	}
	return nil
}

// Create inserts a new pending row. ID, UserID, Type, TargetPath and the
// type-specific fields must be set by the caller; timestamps come back
// from the database.
func (r *ChangeRequestRepo) Create(ctx context.Context, cr *models.ChangeRequest) error {
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO change_requests
		 (id, user_id, type, status, target_path, source_path, staged_r2_key, original_filename, mime_type, file_size)
		 VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7, $8, $9)
		 RETURNING status, created_at, updated_at`,
		cr.ID, cr.UserID, cr.Type, cr.TargetPath,
		nullString(cr.SourcePath), nullString(cr.StagedKey),
		nullString(cr.OriginalFilename), nullString(cr.MimeType), nullInt64(cr.FileSize),
	).Scan(&cr.Status, &cr.CreatedAt, &cr.UpdatedAt)
}

// GetByID returns one change request, or nil if no such row exists.
func (r *ChangeRequestRepo) GetByID(ctx context.Context, id string) (*models.ChangeRequest, error) {
	cr := &models.ChangeRequest{}
	err := scanChangeRequest(r.DB.QueryRowContext(ctx,
		`SELECT `+changeRequestColumns+` FROM change_requests WHERE id = $1`, id,
	), cr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cr, nil
}

// GetPendingForUser returns the row only when it exists, is owned by
// userID, and is still pending; nil otherwise.
func (r *ChangeRequestRepo) GetPendingForUser(ctx context.Context, id string, userID int) (*models.ChangeRequest, error) {
	cr := &models.ChangeRequest{}
	err := scanChangeRequest(r.DB.QueryRowContext(ctx,
		`SELECT `+changeRequestColumns+` FROM change_requests WHERE id = $1 AND user_id = $2 AND status = 'pending'`,
		id, userID,
	), cr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cr, nil
}

// ListForUser returns the user's rows, newest first. An empty status
// returns all statuses.
func (r *ChangeRequestRepo) ListForUser(ctx context.Context, userID int, status models.ChangeStatus) ([]models.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + ` FROM change_requests WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.ChangeRequest
	for rows.Next() {
		var cr models.ChangeRequest
		if err := scanChangeRequest(rows, &cr); err != nil {
			return nil, err
		}
		list = append(list, cr)
	}
	return list, rows.Err()
}

// CountForUser counts the user's rows at the given status.
func (r *ChangeRequestRepo) CountForUser(ctx context.Context, userID int, status models.ChangeStatus) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM change_requests WHERE user_id = $1 AND status = $2`,
		userID, status,
	).Scan(&n)
	return n, err
}

// ListQueue returns all rows at the given status across users, joined with
// requester identity, oldest first (FIFO review order).
func (r *ChangeRequestRepo) ListQueue(ctx context.Context, status models.ChangeStatus) ([]models.QueueEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT cr.id, cr.user_id, cr.type, cr.status, cr.target_path,
		        COALESCE(cr.source_path, ''), COALESCE(cr.staged_r2_key, ''),
		        COALESCE(cr.original_filename, ''), COALESCE(cr.mime_type, ''), COALESCE(cr.file_size, 0),
		        cr.reviewed_by, COALESCE(cr.review_note, ''), cr.reviewed_at, cr.created_at, cr.updated_at,
		        u.username, u.email
		 FROM change_requests cr
		 JOIN users u ON u.id = cr.user_id
		 WHERE cr.status = $1
		 ORDER BY cr.created_at ASC`,
		status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queue []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		var reviewedBy sql.NullInt64
		var reviewedAt sql.NullTime
		err := rows.Scan(
			&e.ID, &e.UserID, &e.Type, &e.Status, &e.TargetPath,
			&e.SourcePath, &e.StagedKey,
			&e.OriginalFilename, &e.MimeType, &e.FileSize,
			&reviewedBy, &e.ReviewNote, &reviewedAt, &e.CreatedAt, &e.UpdatedAt,
			&e.UserName, &e.UserEmail,
		)
		if err != nil {
			return nil, err
		}
		if reviewedBy.Valid {
			v := int(reviewedBy.Int64)
			e.ReviewedBy = &v
		}
		if reviewedAt.Valid {
			t := reviewedAt.Time
			e.ReviewedAt = &t
		}
		queue = append(queue, e)
	}
	return queue, rows.Err()
}

// MarkReviewed flips a pending row to approved or rejected and records the
// reviewer. Returns false when the row does not exist or is no longer
// pending; the losing side of a concurrent review sees false, never a
// silent overwrite.
func (r *ChangeRequestRepo) MarkReviewed(ctx context.Context, id string, status models.ChangeStatus, reviewerID int, note string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE change_requests
		 SET status = $1, reviewed_by = $2, review_note = $3, reviewed_at = NOW(), updated_at = NOW()
		 WHERE id = $4 AND status = 'pending'`,
		status, reviewerID, nullString(note), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkPublished flips an approved row to published. Returns false when the
// row does not exist or is not approved.
func (r *ChangeRequestRepo) MarkPublished(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE change_requests SET status = 'published', updated_at = NOW()
		 WHERE id = $1 AND status = 'approved'`,
		id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeletePending removes a pending row owned by userID. Returns false when
// the row is gone, not owned, or no longer pending.
func (r *ChangeRequestRepo) DeletePending(ctx context.Context, id string, userID int) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM change_requests WHERE id = $1 AND user_id = $2 AND status = 'pending'`,
		id, userID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(n int64) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
