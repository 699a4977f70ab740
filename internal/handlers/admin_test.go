package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"gocloud.dev/blob/memblob"

	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/repo"
	"github.com/crucial707/coursevault/internal/review"
	"github.com/crucial707/coursevault/internal/storage"
)

func newAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock, *storage.Store) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.New(memblob.OpenBucket(nil))
	t.Cleanup(func() { store.Close() })

	changes := repo.NewChangeRequestRepo(db)
	audit := repo.NewAuditRepo(db)
	builder := manifest.NewBuilder(store)
	h := &AdminHandler{
		Changes: changes,
		Audit:   audit,
		Engine:  review.NewEngine(changes, audit, store, builder),
		Builder: builder,
	}
	return h, mock, store
}

func adminRouter(h *AdminHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/admin/queue", h.Queue)
	r.Post("/admin/review/{id}", h.Review)
	r.Post("/admin/publish/{id}", h.Publish)
	r.Get("/admin/audit", h.AuditLog)
	r.Post("/admin/manifest/rebuild", h.RebuildManifest)
	return r
}

func TestQueue_DefaultsToPending(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT cr\.id, cr\.user_id`).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "type", "status", "target_path",
			"source_path", "staged_r2_key",
			"original_filename", "mime_type", "file_size",
			"reviewed_by", "review_note", "reviewed_at", "created_at", "updated_at",
			"username", "email",
		}).AddRow("abc", 3, "delete", "pending", "/contents/old.pdf", "", "", "", "", 0, nil, "", nil, now, now, "alice", "alice@example.com"))

	req := httptest.NewRequest("GET", "/admin/queue", nil)
	rr := httptest.NewRecorder()
	adminRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Queue []struct {
			ID       string `json:"id"`
			UserName string `json:"user_name"`
		} `json:"queue"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Queue) != 1 || out.Queue[0].UserName != "alice" {
		t.Errorf("unexpected queue: %+v", out.Queue)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestReviewEndpoint_InvalidAction(t *testing.T) {
	h, _, _ := newAdminHandler(t)

	body, _ := json.Marshal(map[string]string{"action": "maybe"})
	req := httptest.NewRequest("POST", "/admin/review/abc", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	adminRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestReviewEndpoint_NotPending(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	mock.ExpectQuery(`SELECT (.+) FROM change_requests WHERE id = \$1`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	body, _ := json.Marshal(map[string]string{"action": "approve"})
	req := httptest.NewRequest("POST", "/admin/review/abc", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	adminRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestPublishEndpoint_NotApproved(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	mock.ExpectQuery(`SELECT (.+) FROM change_requests WHERE id = \$1`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest("POST", "/admin/publish/abc", nil)
	rr := httptest.NewRecorder()
	adminRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestAuditLog_ClampsLimit(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	mock.ExpectQuery(`SELECT al\.id, al\.user_id`).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "action", "target_type", "target_id", "details", "username", "created_at",
		}).AddRow(1, 7, "approve", "change_request", "abc", "", "admin", time.Now()))

	req := httptest.NewRequest("GET", "/admin/audit?limit=500", nil)
	rr := httptest.NewRecorder()
	adminRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Audit []struct {
			Action string `json:"action"`
		} `json:"audit"`
		Limit int `json:"limit"`
	}
	json.NewDecoder(rr.Body).Decode(&out)
	if out.Limit != 100 {
		t.Errorf("limit = %d, want clamped 100", out.Limit)
	}
	if len(out.Audit) != 1 || out.Audit[0].Action != "approve" {
		t.Errorf("unexpected audit entries: %+v", out.Audit)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditLog_DefaultLimit(t *testing.T) {
	h, mock, _ := newAdminHandler(t)

	mock.ExpectQuery(`SELECT al\.id, al\.user_id`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "action", "target_type", "target_id", "details", "username", "created_at",
		}))

	req := httptest.NewRequest("GET", "/admin/audit", nil)
	rr := httptest.NewRecorder()
	adminRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRebuildManifestEndpoint(t *testing.T) {
	h, _, store := newAdminHandler(t)

	if err := store.Put(context.Background(), "week1/a.pdf", []byte("x"), "application/pdf", ""); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/admin/manifest/rebuild", nil)
	rr := httptest.NewRecorder()
	adminRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Success  bool `json:"success"`
		Children int  `json:"children"`
	}
	json.NewDecoder(rr.Body).Decode(&out)
	if !out.Success || out.Children != 1 {
		t.Errorf("unexpected response: %+v", out)
	}
}
