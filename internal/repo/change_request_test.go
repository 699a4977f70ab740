package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/coursevault/internal/models"
)

func changeRequestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "type", "status", "target_path",
		"source_path", "staged_r2_key",
		"original_filename", "mime_type", "file_size",
		"reviewed_by", "review_note", "reviewed_at", "created_at", "updated_at",
	})
}

func TestChangeRequestRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO change_requests`).
		WithArgs("abc123", 7, "upload", "/contents/doc.pdf",
			nil, "_staging/abc123/doc.pdf", "doc.pdf", "application/pdf", int64(1024)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "created_at", "updated_at"}).
			AddRow("pending", now, now))

	repo := NewChangeRequestRepo(db)
	cr := &models.ChangeRequest{
		ID:               "abc123",
		UserID:           7,
		Type:             models.TypeUpload,
		TargetPath:       "/contents/doc.pdf",
		StagedKey:        "_staging/abc123/doc.pdf",
		OriginalFilename: "doc.pdf",
		MimeType:         "application/pdf",
		FileSize:         1024,
	}
	if err := repo.Create(context.Background(), cr); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cr.Status != models.StatusPending {
		t.Errorf("status: got %q, want pending", cr.Status)
	}
	if cr.CreatedAt.IsZero() || cr.UpdatedAt.IsZero() {
		t.Errorf("timestamps not set: %+v", cr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM change_requests WHERE id = \$1`).
		WithArgs("abc123").
		WillReturnRows(changeRequestRows().
			AddRow("abc123", 7, "rename", "pending", "/contents/new.pdf",
				"/contents/old.pdf", "", "", "", 0,
				nil, "", nil, now, now))

	repo := NewChangeRequestRepo(db)
	cr, err := repo.GetByID(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if cr == nil || cr.SourcePath != "/contents/old.pdf" || cr.Type != models.TypeRename {
		t.Errorf("unexpected row: %+v", cr)
	}
	if cr.ReviewedBy != nil || cr.ReviewedAt != nil {
		t.Errorf("review fields should be unset: %+v", cr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM change_requests WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(changeRequestRows())

	repo := NewChangeRequestRepo(db)
	cr, err := repo.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if cr != nil {
		t.Errorf("expected nil for missing row, got %+v", cr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_ListForUser_StatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM change_requests WHERE user_id = \$1 AND status = \$2 ORDER BY created_at DESC`).
		WithArgs(7, "pending").
		WillReturnRows(changeRequestRows().
			AddRow("a1", 7, "delete", "pending", "/contents/x.txt", "", "", "", "", 0, nil, "", nil, now, now))

	repo := NewChangeRequestRepo(db)
	list, err := repo.ListForUser(context.Background(), 7, models.StatusPending)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 1 || list[0].ID != "a1" {
		t.Errorf("unexpected list: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_CountForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM change_requests WHERE user_id = \$1 AND status = \$2`).
		WithArgs(7, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	repo := NewChangeRequestRepo(db)
	n, err := repo.CountForUser(context.Background(), 7, models.StatusPending)
	if err != nil {
		t.Fatalf("CountForUser: %v", err)
	}
	if n != 3 {
		t.Errorf("count: got %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_ListQueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM change_requests cr\s+JOIN users u ON u.id = cr.user_id\s+WHERE cr.status = \$1\s+ORDER BY cr.created_at ASC`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "type", "status", "target_path",
			"source_path", "staged_r2_key",
			"original_filename", "mime_type", "file_size",
			"reviewed_by", "review_note", "reviewed_at", "created_at", "updated_at",
			"username", "email",
		}).
			AddRow("old", 1, "upload", "pending", "/contents/a.pdf", "", "_staging/old/a.pdf", "a.pdf", "application/pdf", 10, nil, "", nil, now.Add(-time.Hour), now, "alice", "alice@example.edu").
			AddRow("new", 2, "delete", "pending", "/contents/b.pdf", "", "", "", "", 0, nil, "", nil, now, now, "bob", "bob@example.edu"))

	repo := NewChangeRequestRepo(db)
	queue, err := repo.ListQueue(context.Background(), models.StatusPending)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(queue) != 2 || queue[0].ID != "old" || queue[0].UserName != "alice" || queue[1].UserEmail != "bob@example.edu" {
		t.Errorf("unexpected queue: %+v", queue)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_MarkReviewed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE change_requests\s+SET status = \$1, reviewed_by = \$2, review_note = \$3, reviewed_at = NOW\(\), updated_at = NOW\(\)\s+WHERE id = \$4 AND status = 'pending'`).
		WithArgs("approved", 9, "looks good", "abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewChangeRequestRepo(db)
	ok, err := repo.MarkReviewed(context.Background(), "abc123", models.StatusApproved, 9, "looks good")
	if err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}
	if !ok {
		t.Error("expected true for affected row")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_MarkReviewed_NotPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE change_requests`).
		WithArgs("rejected", 9, nil, "abc123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewChangeRequestRepo(db)
	ok, err := repo.MarkReviewed(context.Background(), "abc123", models.StatusRejected, 9, "")
	if err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}
	if ok {
		t.Error("expected false when no row is pending")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_MarkPublished(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE change_requests SET status = 'published', updated_at = NOW\(\)\s+WHERE id = \$1 AND status = 'approved'`).
		WithArgs("abc123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewChangeRequestRepo(db)
	ok, err := repo.MarkPublished(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	if !ok {
		t.Error("expected true for affected row")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestChangeRequestRepo_DeletePending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM change_requests WHERE id = \$1 AND user_id = \$2 AND status = 'pending'`).
		WithArgs("abc123", 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewChangeRequestRepo(db)
	ok, err := repo.DeletePending(context.Background(), "abc123", 7)
	if err != nil {
		t.Fatalf("DeletePending: %v", err)
	}
	if ok {
		t.Error("expected false when nothing matched")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
