package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	sessiongate "github.com/repeatharmony/sessiongate"
)

type sessionContextKey struct{}

// SessionFromContext returns the session injected by an authorized guard.
func SessionFromContext(ctx context.Context) (*sessiongate.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*sessiongate.Session)
	return sess, ok
}

// SessionReader is the store surface the guard consumes. *sessiongate.Store
// satisfies it. The guard derives "authenticated" from a single Current()
// read instead of asking the store separately, so the two can never
// disagree within one request.
type SessionReader interface {
	Current() *sessiongate.Session
	IsLoading() bool
}

// Companion is the always-on widget mounted alongside authorized content
// and the auth prompt. It owns its own state; the guard's only contract is
// when to attach it.
type Companion interface {
	Attach(w http.ResponseWriter, r *http.Request)
}

// PromptRenderer renders the in-place authentication prompt.
type PromptRenderer interface {
	Render(w http.ResponseWriter, r *http.Request)
}

// Options is the static per-mount guard configuration. Changing it requires
// remounting the middleware.
type Options struct {
	// RequireAuth gates the mount. When false the guard is a pass-through.
	RequireAuth bool
	// ShowAuthPrompt selects the in-place prompt over a redirect for
	// unauthenticated requests.
	ShowAuthPrompt bool
	// FallbackPath is the redirect target for unauthenticated requests when
	// the prompt is disabled. Defaults to "/".
	FallbackPath string
	// OriginParam names the query parameter that carries the originally
	// requested location through the redirect. Defaults to "from".
	OriginParam string
	// LoginPath and SignupPath are the entry points the default prompt
	// offers. Default "/login" and "/signup".
	LoginPath  string
	SignupPath string
	// Companion, when set, is attached on the authorized and prompt
	// branches.
	Companion Companion
	// Prompt overrides the default JSON prompt body.
	Prompt PromptRenderer
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.FallbackPath == "" {
		opts.FallbackPath = "/"
	}
	if opts.OriginParam == "" {
		opts.OriginParam = "from"
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.SignupPath == "" {
		opts.SignupPath = "/signup"
	}
	return opts
}

// Middleware wraps a handler with the guard policy. Store state is read per
// request; a login completed through the prompt authorizes the very next
// request with no caching in the guard.
//
// The session is read exactly once per request and the authenticated flag is
// derived from that read, so a logout racing the request cannot authorize it
// with a nil session: the request sees either the session that existed at
// the read or no session at all.
func Middleware(store SessionReader, opts Options) func(http.Handler) http.Handler {
	resolved := opts.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess := store.Current()

			decision := Evaluate(Inputs{
				Loading:        store.IsLoading(),
				RequireAuth:    resolved.RequireAuth,
				Authenticated:  sess != nil,
				ShowAuthPrompt: resolved.ShowAuthPrompt,
			})

			if decision.AttachCompanion && resolved.Companion != nil {
				resolved.Companion.Attach(w, r)
			}

			switch decision.Branch {
			case BranchLoading:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session restoring", http.StatusServiceUnavailable)
			case BranchPassThrough:
				next.ServeHTTP(w, r)
			case BranchAuthorized:
				ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
			case BranchRedirect:
				http.Redirect(w, r, redirectTarget(resolved, r), http.StatusSeeOther)
			case BranchPrompt:
				if resolved.Prompt != nil {
					resolved.Prompt.Render(w, r)
					return
				}
				renderDefaultPrompt(w, resolved)
			}
		})
	}
}

// redirectTarget builds the fallback URL carrying the originally requested
// location, so a post-login handler can send the visitor back.
func redirectTarget(opts Options, r *http.Request) string {
	target, err := url.Parse(opts.FallbackPath)
	if err != nil {
		target = &url.URL{Path: "/"}
	}

	q := target.Query()
	q.Set(opts.OriginParam, r.URL.RequestURI())
	target.RawQuery = q.Encode()

	return target.String()
}

func renderDefaultPrompt(w http.ResponseWriter, opts Options) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  "authentication required",
		"login":  opts.LoginPath,
		"signup": opts.SignupPath,
	})
}
