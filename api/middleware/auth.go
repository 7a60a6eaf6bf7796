package middleware

import (
	"net/http"
	"strings"

	"github.com/doumai/doumai-backend/api/responses"
	pkgAuth "github.com/doumai/doumai-backend/pkg/auth"
	"github.com/doumai/doumai-backend/pkg/config"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

// Auth verifies the identity provider's bearer token and seeds the request
// context with its subject and email.
func Auth(cfg config.AuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithIdentity(r.Context(), claims.AuthID(), claims.Email)
			if logg != nil {
				ctx = logg.WithField(ctx, "auth_id", claims.AuthID())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
