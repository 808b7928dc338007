package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/collabtask/collabtask/internal/domain"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	UserID int64
	Admin  bool
}

type identityKey struct{}

// IdentityFromContext returns the caller identity placed by the session
// middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// SessionResolver maps a session token to a user ID.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// UserGetter loads a user account for the admin flag.
type UserGetter interface {
	FindByID(ctx context.Context, id int64) (domain.User, error)
}

// SessionAuthMiddleware returns a middleware that resolves the session
// token into a caller identity. Tokens arrive as a Bearer header or, for
// WebSocket upgrades where browsers cannot set headers, a token query
// parameter.
func SessionAuthMiddleware(sessions SessionResolver, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthenticated, "missing session token")
				return
			}

			userID, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					writeError(w, http.StatusUnauthorized, codeUnauthenticated, "invalid or expired session")
					return
				}
				writeError(w, http.StatusServiceUnavailable, codeUnavailable, "session store unavailable")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unknown user")
					return
				}
				writeError(w, http.StatusServiceUnavailable, codeUnavailable, "user store unavailable")
				return
			}

			identity := Identity{UserID: user.ID, Admin: user.IsAdmin}
			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(auth, bearerPrefix) {
		return auth[len(bearerPrefix):]
	}
	return r.URL.Query().Get("token")
}
