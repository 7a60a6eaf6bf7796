package middleware

import (
	"context"
	"net/http"

	"github.com/doumai/doumai-backend/api/responses"
	"github.com/doumai/doumai-backend/internal/tenants"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

type tenantResolver interface {
	ResolveTenant(ctx context.Context, authID string) (*tenants.Membership, error)
}

// TenantContext maps the authenticated subject to its tenant membership.
// Every tenant-scoped query downstream reads the tenant from here and never
// from the request.
func TenantContext(resolver tenantResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if resolver == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant resolver unavailable"))
				return
			}
			authID := AuthIDFromContext(ctx)
			if authID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity missing"))
				return
			}

			m, err := resolver.ResolveTenant(ctx, authID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithMembership(ctx, m.UserID, m.TenantID, m.Role)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, m.TenantID.String())
				ctx = logg.WithUserID(ctx, m.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
