package models

import "time"

// AuditEntry represents one audit log row. Entries are append-only and
// never updated or deleted.
type AuditEntry struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	Action     string    `json:"action"`      // approve, reject, publish
	TargetType string    `json:"target_type"` // change_request
	TargetID   string    `json:"target_id"`
	Details    string    `json:"details,omitempty"`
	UserName   string    `json:"user_name,omitempty"` // joined actor name; empty if the user row is gone
	CreatedAt  time.Time `json:"created_at"`
}
