package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string) string {
	t.Helper()
	claims := util.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuthAcceptsAdminToken(t *testing.T) {
	h := AdminAuthMiddleware(testSecret, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/users/1/usage", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAdminAuthRejectsNonAdminRole(t *testing.T) {
	h := AdminAuthMiddleware(testSecret, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/users/1/usage", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "support"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestAdminAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	h := AdminAuthMiddleware(testSecret, zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/users/1/usage", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing header status = %d, want 401", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/users/1/usage", nil)
	req.Header.Set("Authorization", "Token abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("malformed header status = %d, want 401", rr.Code)
	}
}

func TestWebhookAuth(t *testing.T) {
	h := WebhookAuthMiddleware("hook-secret", zerolog.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/updates", nil)
	req.Header.Set("X-Webhook-Secret", "hook-secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/updates", nil)
	req.Header.Set("X-Webhook-Secret", "wrong")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
