package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/coursevault/internal/repo"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := &AuthHandler{
		UserRepo:    repo.NewUserRepo(db),
		RosterRepo:  repo.NewRosterRepo(db),
		Secret:      []byte("test-secret"),
		ExpireHours: 24,
	}
	return h, mock
}

func TestRegister(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(`SELECT 1 FROM allowed_students WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), "student").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role"}).
			AddRow(1, "alice", "alice@example.com", "hash", "student"))

	body, _ := json.Marshal(map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "correct horse",
	})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Username     string `json:"username"`
		Role         string `json:"role"`
		PasswordHash string `json:"password_hash"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Username != "alice" || out.Role != "student" {
		t.Errorf("unexpected user: %+v", out)
	}
	if out.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRegister_NotOnRoster(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(`SELECT 1 FROM allowed_students WHERE email = \$1`).
		WithArgs("stranger@example.com").
		WillReturnError(sql.ErrNoRows)

	body, _ := json.Marshal(map[string]string{
		"username": "stranger",
		"email":    "stranger@example.com",
		"password": "correct horse",
	})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestRegister_ValidationFailed(t *testing.T) {
	h, _ := newAuthHandler(t)

	body, _ := json.Marshal(map[string]string{
		"username": "a",
		"email":    "not-an-email",
		"password": "short",
	})
	req := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	var out struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Error != "validation failed" {
		t.Errorf("error = %q, want validation failed", out.Error)
	}
	if out.Fields["email"] == "" || out.Fields["password"] == "" || out.Fields["username"] == "" {
		t.Errorf("fields = %v, want email, password and username entries", out.Fields)
	}
}

func TestLogin(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery(`SELECT id, username, email, password_hash, role FROM users`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role"}).
			AddRow(1, "alice", "alice@example.com", string(hash), "student"))

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "correct horse"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Token == "" || out.User.Username != "alice" || out.User.Role != "student" {
		t.Errorf("unexpected response: token=%q user=%+v", out.Token, out.User)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, email, password_hash, role FROM users`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role"}).
			AddRow(1, "alice", "alice@example.com", string(hash), "student"))

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(`SELECT id, username, email, password_hash, role FROM users`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	body, _ := json.Marshal(map[string]string{"username": "nobody", "password": "x"})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}
