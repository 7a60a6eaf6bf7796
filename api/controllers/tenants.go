package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/api/middleware"
	"github.com/doumai/doumai-backend/api/responses"
	"github.com/doumai/doumai-backend/api/validators"
	"github.com/doumai/doumai-backend/internal/tenants"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

type tenantService interface {
	Setup(ctx context.Context, input tenants.SetupInput) (*tenants.SetupResult, error)
	ResolveTenant(ctx context.Context, authID string) (*tenants.Membership, error)
	Tenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	Members(ctx context.Context, tenantID uuid.UUID) ([]tenants.Membership, error)
	CompleteOnboarding(ctx context.Context, m tenants.Membership, input tenants.OnboardingInput) error
}

type tenantView struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Category  *string            `json:"category,omitempty"`
	SKUScale  *string            `json:"sku_scale,omitempty"`
	Status    enums.TenantStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

type onboardingRequest struct {
	Category    *string `json:"category,omitempty"`
	SKUScale    *string `json:"sku_scale,omitempty"`
	SeedSamples bool    `json:"seed_samples"`
}

// TenantSetup provisions the caller's tenant on first login. It only needs a
// verified identity, so it sits outside the tenant context middleware.
func TenantSetup(svc tenantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authID := middleware.AuthIDFromContext(r.Context())
		if authID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		result, err := svc.Setup(r.Context(), tenants.SetupInput{
			AuthID: authID,
			Email:  middleware.EmailFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.IsNew {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func TenantMe(svc tenantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		membership, err := svc.ResolveTenant(r.Context(), middleware.AuthIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tenant, err := svc.Tenant(r.Context(), membership.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, struct {
			Membership tenants.Membership `json:"membership"`
			Tenant     tenantView         `json:"tenant"`
		}{
			Membership: *membership,
			Tenant: tenantView{
				ID:        tenant.ID,
				Name:      tenant.Name,
				Category:  tenant.Category,
				SKUScale:  tenant.SKUScale,
				Status:    tenant.Status,
				CreatedAt: tenant.CreatedAt,
			},
		})
	}
}

func TenantOnboarding(svc tenantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body onboardingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		membership, err := svc.ResolveTenant(r.Context(), middleware.AuthIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.CompleteOnboarding(r.Context(), *membership, tenants.OnboardingInput{
			TenantID:    membership.TenantID,
			UserID:      membership.UserID,
			Category:    body.Category,
			SKUScale:    body.SKUScale,
			SeedSamples: body.SeedSamples,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func TenantMembers(svc tenantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		members, err := svc.Members(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}
