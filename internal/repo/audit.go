package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/coursevault/internal/models"
)

// AuditRepo persists audit log entries. The table is append-only; there
// are no update or delete methods on purpose.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record appends one audit entry. action is approve|reject|publish;
// targetType is change_request.
func (r *AuditRepo) Record(ctx context.Context, userID int, action, targetType, targetID, details string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, target_type, target_id, details) VALUES ($1, $2, $3, $4, $5)`,
		userID, action, targetType, targetID, nullString(details),
	)
	return err
}

// List returns recent audit entries, newest first, with the actor's name
// joined in where the user row still exists.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT al.id, al.user_id, al.action, al.target_type, al.target_id,
		        COALESCE(al.details, ''), COALESCE(u.username, ''), al.created_at
		 FROM audit_log al
		 LEFT JOIN users u ON u.id = al.user_id
		 ORDER BY al.created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.TargetType, &e.TargetID, &e.Details, &e.UserName, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
