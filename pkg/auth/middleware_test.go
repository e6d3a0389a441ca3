package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testSecret = "test-secret-change-in-production-32bytes"

func TestRequireAuth_NoToken_Returns401(t *testing.T) {
	mw := RequireAuth(SessionSecretBytes(testSecret))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_InvalidToken_Returns401(t *testing.T) {
	mw := RequireAuth(SessionSecretBytes(testSecret))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid.token")
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_BearerToken_CallsNextWithSubject(t *testing.T) {
	secret := SessionSecretBytes(testSecret)
	token := CreateSessionToken(AdminSubject, secret)
	mw := RequireAuth(secret)

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got != AdminSubject {
		t.Errorf("expected subject=%s, got %q", AdminSubject, got)
	}
}

func TestRequireAuth_Cookie_CallsNext(t *testing.T) {
	secret := SessionSecretBytes(testSecret)
	token := CreateSessionToken(AdminSubject, secret)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName(), Value: token})
	rec := httptest.NewRecorder()
	RequireAuth(secret)(next).ServeHTTP(rec, req)

	if !called {
		t.Error("expected next handler to be called")
	}
}

func TestVerifySessionToken_WrongSecret(t *testing.T) {
	token := CreateSessionToken(AdminSubject, SessionSecretBytes("one"))
	if _, err := VerifySessionToken(token, SessionSecretBytes("two")); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestSessionSecretBytes_PadsShortSecrets(t *testing.T) {
	if got := len(SessionSecretBytes("short")); got != minSecretLen {
		t.Errorf("expected %d bytes, got %d", minSecretLen, got)
	}
}
