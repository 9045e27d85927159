package guard

import (
	"context"
	"net/http"
	"strings"

	"github.com/repeatharmony/sessiongate/token"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the token claims injected by RequireToken.
func ClaimsFromContext(ctx context.Context) (*token.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.SessionClaims)
	return claims, ok
}

// RequireToken guards API routes with a bearer session token instead of the
// store's reactive state. It reads the Authorization header, verifies the
// token, and injects the claims into the request context.
func RequireToken(manager *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := manager.Verify(raw)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	raw := value[len(bearer):]
	if raw == "" {
		return "", false
	}

	return raw, true
}
