package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bloggerhub/device-session-service/internal/http/response"
	"github.com/bloggerhub/device-session-service/internal/observability"
	"github.com/bloggerhub/device-session-service/internal/security"
)

type contextKey string

const (
	ClaimsContextKey    contextKey = "claims"
	PrincipalContextKey contextKey = "principal"
)

// AccessGuard verifies the bearer access token. It is stateless: a revoked
// session's access token stays valid until it expires, which bounds the
// blast radius at the access TTL.
func AccessGuard(codec *security.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var raw, source string
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				raw = strings.TrimSpace(auth[7:])
				source = "bearer"
			}
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "none")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
				return
			}
			claims, err := codec.ParseAccessToken(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid", source)
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid", source)
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}
