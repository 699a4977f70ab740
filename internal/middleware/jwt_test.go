package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crucial707/coursevault/internal/models"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func identityEcho(t *testing.T, wantID int, wantRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := UserID(r); got != wantID {
			t.Errorf("user id = %d, want %d", got, wantID)
		}
		if role, _ := r.Context().Value(RoleKey).(string); role != wantRole {
			t.Errorf("role = %q, want %q", role, wantRole)
		}
	})
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id":  float64(42),
		"username": "alice",
		"role":     models.RoleStudent,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	h := JWTMiddleware(testSecret)(identityEcho(t, 42, models.RoleStudent))
	req := httptest.NewRequest(http.MethodGet, "/changes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	h := JWTMiddleware(testSecret)(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/changes", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": float64(42),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	h := JWTMiddleware(testSecret)(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/changes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": float64(42),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}

	h := JWTMiddleware(testSecret)(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/changes", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleStudent, http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tc := range cases {
		token := signToken(t, jwt.MapClaims{
			"user_id": float64(1),
			"role":    tc.role,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		h := JWTMiddleware(testSecret)(RequireAdmin(ok))
		req := httptest.NewRequest(http.MethodPost, "/admin/queue", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Errorf("role %q: status = %d, want %d", tc.role, rec.Code, tc.want)
		}
	}
}
