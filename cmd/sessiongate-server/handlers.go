package main

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	sessiongate "github.com/repeatharmony/sessiongate"
	"github.com/repeatharmony/sessiongate/guard"
	"github.com/repeatharmony/sessiongate/token"
)

// assistantCompanion is the always-on assistant widget stand-in: it marks
// responses so the client mounts the overlay.
type assistantCompanion struct{}

func (assistantCompanion) Attach(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("X-Harmony-Assistant", "enabled")
}

func newMux(store *sessiongate.Store, tokens *token.Manager, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	companion := assistantCompanion{}

	// Public landing page: the guard is mounted but does not gate it.
	open := guard.Middleware(store, guard.Options{RequireAuth: false})
	mux.Handle("/", open(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"page": "landing"})
	})))

	// Feature pages that prompt inline.
	prompting := guard.Middleware(store, guard.Options{
		RequireAuth:    true,
		ShowAuthPrompt: true,
		Companion:      companion,
	})
	for _, page := range []string{"mood-input", "dashboard", "therapy", "community"} {
		page := page
		mux.Handle("/"+page, prompting(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := guard.SessionFromContext(r.Context())
			writeJSON(w, http.StatusOK, map[string]string{
				"page": page,
				"user": sess.DisplayName,
			})
		})))
	}

	// The music player redirects to the landing page instead of prompting.
	redirecting := guard.Middleware(store, guard.Options{
		RequireAuth:    true,
		ShowAuthPrompt: false,
		FallbackPath:   "/",
		Companion:      companion,
	})
	mux.Handle("/music", redirecting(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := guard.SessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{
			"page": "music",
			"user": sess.DisplayName,
		})
	})))

	mux.HandleFunc("POST /login", loginHandler(store, tokens, logger, false))
	mux.HandleFunc("POST /signup", loginHandler(store, tokens, logger, true))
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, _ *http.Request) {
		store.Logout()
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	})

	mux.HandleFunc("POST /verify/request", func(w http.ResponseWriter, r *http.Request) {
		email := r.FormValue("email")
		challengeID, code, err := store.BeginVerification(r.Context(), email)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		// No mail backend in the demo: the code is logged where an operator
		// can read it, as the product did with its simulated inbox.
		logger.Info("verification code issued",
			zap.String("email", email),
			zap.String("code", code))
		writeJSON(w, http.StatusOK, map[string]string{"challenge_id": challengeID})
	})

	mux.HandleFunc("POST /verify/confirm", func(w http.ResponseWriter, r *http.Request) {
		err := store.ConfirmVerification(r.Context(), r.FormValue("challenge_id"), r.FormValue("code"))
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, sessiongate.ErrVerificationAttempts) {
				status = http.StatusTooManyRequests
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
	})

	// Token-guarded API surface.
	api := guard.RequireToken(tokens)
	mux.Handle("/api/me", api(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := guard.ClaimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{
			"user_id": claims.Subject,
			"email":   claims.Email,
			"name":    claims.Name,
		})
	})))

	return mux
}

func loginHandler(store *sessiongate.Store, tokens *token.Manager, logger *zap.Logger, signup bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.FormValue("email")
		password := r.FormValue("password")
		if email == "" || password == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password required"})
			return
		}

		var (
			result *sessiongate.LoginResult
			err    error
		)
		if signup {
			result, err = store.Signup(r.Context(), email, password, r.FormValue("name"))
		} else {
			result, err = store.Login(r.Context(), email, password)
		}
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}

		apiToken, err := tokens.Issue(result.Session.UserID, result.Session.Email, result.Session.DisplayName)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		body := map[string]any{
			"user": map[string]string{
				"id":       result.Session.UserID,
				"name":     result.Session.DisplayName,
				"email":    result.Session.Email,
				"initials": result.Session.Initials,
			},
			"token": apiToken,
		}
		// A failed durable write still logs the user in; the client shows a
		// toast instead of treating it as success.
		if result.Persistence == sessiongate.PersistenceFailed {
			body["warning"] = "session will not survive a restart"
			logger.Warn("durable session write failed", zap.Error(result.WriteErr))
		}

		// Send the user back where the guard redirected them from.
		if from := r.FormValue("from"); from != "" && isLocalPath(from) {
			body["redirect"] = from
		}

		writeJSON(w, http.StatusOK, body)
	}
}

// isLocalPath rejects absolute URLs so the post-login redirect cannot leave
// the site.
func isLocalPath(p string) bool {
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	if u.Scheme != "" || u.Host != "" {
		return false
	}
	return len(p) > 0 && p[0] == '/'
}
