package models

import "time"

// ChangeType is the kind of mutation a change request proposes. Fixed at
// creation, never changes.
type ChangeType string

const (
	TypeUpload ChangeType = "upload"
	TypeRename ChangeType = "rename"
	TypeDelete ChangeType = "delete"
)

// Valid reports whether t is a known change type.
func (t ChangeType) Valid() bool {
	switch t {
	case TypeUpload, TypeRename, TypeDelete:
		return true
	}
	return false
}

// ChangeStatus is the review state of a change request. Progression is
// forward-only: pending -> approved|rejected, approved -> published.
type ChangeStatus string

const (
	StatusPending   ChangeStatus = "pending"
	StatusApproved  ChangeStatus = "approved"
	StatusRejected  ChangeStatus = "rejected"
	StatusPublished ChangeStatus = "published"
)

// Valid reports whether s is a known status.
func (s ChangeStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// ChangeRequest is a user-submitted proposal to mutate the published
// content tree. Exactly one of StagedKey (upload) or SourcePath (rename)
// is set; delete requests carry neither.
type ChangeRequest struct {
	ID         string       `json:"id"`
	UserID     int          `json:"user_id"`
	Type       ChangeType   `json:"type"`
	Status     ChangeStatus `json:"status"`
	TargetPath string       `json:"target_path"`
	SourcePath string       `json:"source_path,omitempty"`

	// StagedKey is the staging-area object key holding uploaded bytes
	// until the request is published or reaches a terminal state.
	StagedKey string `json:"staged_r2_key,omitempty"`

	OriginalFilename string `json:"original_filename,omitempty"`
	MimeType         string `json:"mime_type,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`

	ReviewedBy *int       `json:"reviewed_by,omitempty"`
	ReviewNote string     `json:"review_note,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueueEntry is a change request joined with minimal requester identity,
// as served on the admin review queue.
type QueueEntry struct {
	ChangeRequest
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
