package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/api/middleware"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

// tenantScope returns the caller's tenant and user as resolved by the tenant
// middleware.
func tenantScope(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == uuid.Nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return tenantID, userID, nil
}
