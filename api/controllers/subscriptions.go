package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/doumai/doumai-backend/api/responses"
	"github.com/doumai/doumai-backend/api/validators"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	"github.com/doumai/doumai-backend/pkg/logger"
)

type subscriptionService interface {
	Current(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	EffectivePlan(ctx context.Context, tenantID uuid.UUID) (subscriptions.Plan, error)
	Usage(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Usage, error)
	Upgrade(ctx context.Context, input subscriptions.UpgradeInput) (*models.Subscription, *models.Payment, error)
	Payments(ctx context.Context, tenantID uuid.UUID) ([]models.Payment, error)
}

type subscriptionView struct {
	ID           *uuid.UUID               `json:"id,omitempty"`
	Plan         enums.PlanType           `json:"plan"`
	BillingCycle enums.BillingCycle       `json:"billing_cycle,omitempty"`
	Price        decimal.Decimal          `json:"price"`
	Status       enums.SubscriptionStatus `json:"status,omitempty"`
	StartedAt    *time.Time               `json:"started_at,omitempty"`
	ExpiresAt    *time.Time               `json:"expires_at,omitempty"`
	AutoRenew    bool                     `json:"auto_renew"`
	Effective    subscriptions.Plan       `json:"effective_plan"`
}

type paymentView struct {
	ID             uuid.UUID           `json:"id"`
	SubscriptionID uuid.UUID           `json:"subscription_id"`
	Amount         decimal.Decimal     `json:"amount"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TransactionID  *string             `json:"transaction_id,omitempty"`
	Type           enums.PaymentType   `json:"type"`
	Status         enums.PaymentStatus `json:"status"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type upgradeRequest struct {
	Plan          string `json:"plan" validate:"required,oneof=pro enterprise"`
	BillingCycle  string `json:"billing_cycle" validate:"omitempty,oneof=monthly yearly"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=wechat_pay alipay"`
}

func toSubscriptionView(sub *models.Subscription, effective subscriptions.Plan) subscriptionView {
	view := subscriptionView{Plan: effective.Type, Effective: effective, Price: decimal.Zero}
	if sub == nil {
		return view
	}
	view.ID = &sub.ID
	view.Plan = sub.Plan
	view.BillingCycle = sub.BillingCycle
	view.Price = sub.Price
	view.Status = sub.Status
	view.StartedAt = &sub.StartedAt
	view.ExpiresAt = &sub.ExpiresAt
	view.AutoRenew = sub.AutoRenew
	return view
}

func toPaymentView(p models.Payment) paymentView {
	return paymentView{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		Amount:         p.Amount,
		PaymentMethod:  p.PaymentMethod,
		TransactionID:  p.TransactionID,
		Type:           p.Type,
		Status:         p.Status,
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
}

// SubscriptionPlans lists the price list. It needs no tenant.
func SubscriptionPlans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, subscriptions.Plans())
	}
}

func SubscriptionCurrent(svc subscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := svc.Current(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		effective, err := svc.EffectivePlan(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSubscriptionView(sub, effective))
	}
}

func SubscriptionUsage(svc subscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		usage, err := svc.Usage(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, usage)
	}
}

// SubscriptionUpgrade runs the simulated checkout and returns the new
// subscription with its payment record.
func SubscriptionUpgrade(svc subscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body upgradeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, payment, err := svc.Upgrade(r.Context(), subscriptions.UpgradeInput{
			TenantID:      tenantID,
			Plan:          enums.PlanType(body.Plan),
			BillingCycle:  enums.BillingCycle(body.BillingCycle),
			PaymentMethod: enums.PaymentMethod(body.PaymentMethod),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := struct {
			Subscription subscriptionView `json:"subscription"`
			Payment      *paymentView     `json:"payment,omitempty"`
		}{Subscription: toSubscriptionView(sub, subscriptions.PlanFor(sub.Plan))}
		if payment != nil {
			pv := toPaymentView(*payment)
			resp.Payment = &pv
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func SubscriptionPayments(svc subscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payments, err := svc.Payments(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]paymentView, 0, len(payments))
		for _, p := range payments {
			out = append(out, toPaymentView(p))
		}
		responses.WriteSuccess(w, out)
	}
}
