package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/pkg/enums"
)

type contextKey string

const (
	ctxAuthID   contextKey = "auth_id"
	ctxEmail    contextKey = "email"
	ctxUserID   contextKey = "user_id"
	ctxTenantID contextKey = "tenant_id"
	ctxRole     contextKey = "user_role"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func uuidFromContext(ctx context.Context, key contextKey) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(key).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// AuthIDFromContext returns the identity provider subject of the caller.
func AuthIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAuthID)
}

func EmailFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxEmail)
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	return uuidFromContext(ctx, ctxUserID)
}

func TenantIDFromContext(ctx context.Context) uuid.UUID {
	return uuidFromContext(ctx, ctxTenantID)
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

// WithIdentity injects the verified token subject and email.
func WithIdentity(ctx context.Context, authID, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAuthID, authID)
	return context.WithValue(ctx, ctxEmail, email)
}

// WithMembership injects the resolved tenant membership for downstream handlers.
func WithMembership(ctx context.Context, userID, tenantID uuid.UUID, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxTenantID, tenantID)
	return context.WithValue(ctx, ctxRole, role)
}
