package guard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	sessiongate "github.com/repeatharmony/sessiongate"
)

// stubReader is a mutable SessionReader for exercising each branch.
type stubReader struct {
	loading bool
	sess    *sessiongate.Session
}

func (s *stubReader) Current() *sessiongate.Session { return s.sess }
func (s *stubReader) IsLoading() bool               { return s.loading }

type headerCompanion struct{}

func (headerCompanion) Attach(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("X-Companion", "on")
}

func serve(t *testing.T, store SessionReader, opts Options, path string) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := SessionFromContext(r.Context()); ok {
			if sess == nil {
				t.Error("guard injected a nil session")
			} else {
				w.Header().Set("X-User", sess.Email)
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	Middleware(store, opts)(next).ServeHTTP(rec, req)
	return rec
}

func TestLoadingBranchServesPlaceholder(t *testing.T) {
	store := &stubReader{loading: true}

	rec := serve(t, store, Options{RequireAuth: true, ShowAuthPrompt: true}, "/dashboard")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("loading placeholder must advertise Retry-After")
	}
}

func TestPassThroughIgnoresAuthentication(t *testing.T) {
	store := &stubReader{}

	rec := serve(t, store, Options{RequireAuth: false}, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Companion") != "" {
		t.Fatal("pass-through must not attach the companion")
	}
}

func TestAuthorizedInjectsSessionAndCompanion(t *testing.T) {
	store := &stubReader{sess: &sessiongate.Session{
		UserID: "u-1", Email: "user@example.com", DisplayName: "User", Initials: "U",
	}}

	rec := serve(t, store, Options{
		RequireAuth: true,
		Companion:   headerCompanion{},
	}, "/dashboard")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-User") != "user@example.com" {
		t.Fatal("authorized branch must inject the session into context")
	}
	if rec.Header().Get("X-Companion") != "on" {
		t.Fatal("authorized branch must attach the companion")
	}
}

func TestRedirectCarriesOrigin(t *testing.T) {
	store := &stubReader{}

	rec := serve(t, store, Options{
		RequireAuth:  true,
		FallbackPath: "/",
	}, "/mood-input")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if got := loc.Query().Get("from"); got != "/mood-input" {
		t.Fatalf("origin = %q, want /mood-input", got)
	}
}

func TestRedirectPreservesFallbackQuery(t *testing.T) {
	store := &stubReader{}

	rec := serve(t, store, Options{
		RequireAuth:  true,
		FallbackPath: "/?tab=welcome",
		OriginParam:  "return_to",
	}, "/music")

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	q := loc.Query()
	if q.Get("tab") != "welcome" {
		t.Fatal("fallback query must be preserved")
	}
	if q.Get("return_to") != "/music" {
		t.Fatalf("origin = %q, want /music", q.Get("return_to"))
	}
}

func TestPromptBranchDefaultBody(t *testing.T) {
	store := &stubReader{}

	rec := serve(t, store, Options{
		RequireAuth:    true,
		ShowAuthPrompt: true,
		Companion:      headerCompanion{},
	}, "/therapy")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("X-Companion") != "on" {
		t.Fatal("prompt branch must attach the companion")
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("prompt body is not JSON: %v", err)
	}
	if body["login"] != "/login" || body["signup"] != "/signup" {
		t.Fatalf("prompt must offer login and signup entry points, got %v", body)
	}
}

type staticPrompt struct{}

func (staticPrompt) Render(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("custom prompt"))
}

func TestPromptBranchCustomRenderer(t *testing.T) {
	store := &stubReader{}

	rec := serve(t, store, Options{
		RequireAuth:    true,
		ShowAuthPrompt: true,
		Prompt:         staticPrompt{},
	}, "/community")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Body.String() != "custom prompt" {
		t.Fatalf("body = %q, want custom prompt", rec.Body.String())
	}
}

// TestInlineLoginAuthorizesNextEvaluation verifies the guard re-reads store
// state per request instead of caching its decision.
func TestInlineLoginAuthorizesNextEvaluation(t *testing.T) {
	store := &stubReader{}
	opts := Options{RequireAuth: true, ShowAuthPrompt: true}

	if rec := serve(t, store, opts, "/dashboard"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("before login: status = %d, want 401", rec.Code)
	}

	store.sess = &sessiongate.Session{UserID: "u-1", Email: "user@example.com"}

	if rec := serve(t, store, opts, "/dashboard"); rec.Code != http.StatusOK {
		t.Fatalf("after login: status = %d, want 200", rec.Code)
	}
}

// logoutAfterReadReader drops its session the moment the guard reads it,
// simulating a logout landing between the guard's session read and the rest
// of the request.
type logoutAfterReadReader struct {
	sess *sessiongate.Session
}

func (r *logoutAfterReadReader) Current() *sessiongate.Session {
	s := r.sess
	r.sess = nil
	return s
}

func (r *logoutAfterReadReader) IsLoading() bool { return false }

// TestLogoutRacingRequestNeverInjectsNilSession pins the guard to a single
// session read: a request either runs with the session snapshot it read or
// is treated as unauthenticated, never authorized with a nil session.
func TestLogoutRacingRequestNeverInjectsNilSession(t *testing.T) {
	store := &logoutAfterReadReader{sess: &sessiongate.Session{
		UserID: "u-1", Email: "user@example.com", DisplayName: "User",
	}}
	opts := Options{RequireAuth: true, ShowAuthPrompt: true}

	// The logout lands right after the guard's read; the request still runs
	// with the snapshot it captured.
	rec := serve(t, store, opts, "/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-User") != "user@example.com" {
		t.Fatal("handler must receive the session snapshot the guard read")
	}

	// The next request sees the logged-out store and is prompted, not
	// authorized with nothing to dereference.
	rec = serve(t, store, opts, "/dashboard")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want 401", rec.Code)
	}
}

func TestNilStoreRejects(t *testing.T) {
	rec := serve(t, nil, Options{RequireAuth: true}, "/dashboard")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
