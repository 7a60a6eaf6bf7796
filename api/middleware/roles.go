package middleware

import (
	"net/http"

	"github.com/doumai/doumai-backend/api/responses"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

// RequireTenantManager lets admins and operators through.
func RequireTenantManager(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RoleFromContext(r.Context()).CanManageTenant() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not allowed to manage this tenant"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
