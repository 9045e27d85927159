package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/repeatharmony/sessiongate/token"
)

func newTestManager(t *testing.T) *token.Manager {
	t.Helper()

	m, err := token.NewManager(token.Config{
		TTL:           time.Minute,
		SigningMethod: token.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func serveToken(t *testing.T, m *token.Manager, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context on authorized request")
		}
		w.Header().Set("X-Subject", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	RequireToken(m)(next).ServeHTTP(rec, req)
	return rec
}

func TestRequireTokenAcceptsValidBearer(t *testing.T) {
	m := newTestManager(t)

	raw, err := m.Issue("u-1", "user@example.com", "User")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := serveToken(t, m, "Bearer "+raw)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Subject") != "u-1" {
		t.Fatalf("subject = %q, want u-1", rec.Header().Get("X-Subject"))
	}
}

func TestRequireTokenRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	rec := serveToken(t, m, "Bearer not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireTokenRejectsMissingHeader(t *testing.T) {
	m := newTestManager(t)

	rec := serveToken(t, m, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireTokenRejectsNonBearerScheme(t *testing.T) {
	m := newTestManager(t)

	rec := serveToken(t, m, "Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireTokenNilManagerRejects(t *testing.T) {
	rec := serveToken(t, nil, "Bearer anything")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
