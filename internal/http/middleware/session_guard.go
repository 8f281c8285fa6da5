package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/bloggerhub/device-session-service/internal/http/response"
	"github.com/bloggerhub/device-session-service/internal/security"
	"github.com/bloggerhub/device-session-service/internal/service"
)

// Principal identifies the session a refresh-cookie request acts on behalf of.
type Principal struct {
	UserID    string
	SessionID string
}

// SessionGuard validates the refresh cookie against the session store: the
// token must verify, the session must exist and be unexpired, and the token
// must carry the session's current fingerprint. Stale and replayed tokens
// fail here.
func SessionGuard(manager *service.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, security.RefreshCookieName)
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing refresh token")
				return
			}
			session, err := manager.Resolve(raw)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid refresh token")
					return
				}
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "session lookup failed")
				return
			}
			ctx := context.WithValue(r.Context(), PrincipalContextKey, Principal{
				UserID:    session.UserID,
				SessionID: session.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(Principal)
	return p, ok
}
