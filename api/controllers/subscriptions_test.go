package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

type stubSubscriptions struct {
	current   *models.Subscription
	upgradeFn func(ctx context.Context, input subscriptions.UpgradeInput) (*models.Subscription, *models.Payment, error)
}

func (s stubSubscriptions) Current(context.Context, uuid.UUID) (*models.Subscription, error) {
	return s.current, nil
}

func (s stubSubscriptions) EffectivePlan(context.Context, uuid.UUID) (subscriptions.Plan, error) {
	if s.current == nil {
		return subscriptions.PlanFor(enums.PlanFree), nil
	}
	return subscriptions.PlanFor(s.current.Plan), nil
}

func (s stubSubscriptions) Usage(context.Context, uuid.UUID) (*subscriptions.Usage, error) {
	return &subscriptions.Usage{Plan: enums.PlanFree, SKUCount: 3, SKULimit: 50}, nil
}

func (s stubSubscriptions) Upgrade(ctx context.Context, input subscriptions.UpgradeInput) (*models.Subscription, *models.Payment, error) {
	return s.upgradeFn(ctx, input)
}

func (s stubSubscriptions) Payments(context.Context, uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

func TestSubscriptionPlans(t *testing.T) {
	rec := httptest.NewRecorder()
	SubscriptionPlans().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))
	var plans []subscriptions.Plan
	decodeData(t, rec, &plans)
	if len(plans) != 3 || plans[0].Type != enums.PlanFree {
		t.Fatalf("unexpected plans %+v", plans)
	}
}

func TestSubscriptionCurrentWithoutRow(t *testing.T) {
	rec := serve(t, http.MethodGet, "/subscription", "/subscription", "", SubscriptionCurrent(stubSubscriptions{}, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var view subscriptionView
	decodeData(t, rec, &view)
	if view.Plan != enums.PlanFree || view.ID != nil {
		t.Fatalf("expected free fallback, got %+v", view)
	}
}

func TestSubscriptionUpgrade(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := stubSubscriptions{upgradeFn: func(_ context.Context, input subscriptions.UpgradeInput) (*models.Subscription, *models.Payment, error) {
		if input.TenantID != testTenantID || input.Plan != enums.PlanPro || input.BillingCycle != enums.BillingCycleYearly {
			t.Fatalf("unexpected input %+v", input)
		}
		if input.PaymentMethod != "" {
			t.Fatalf("payment method default belongs to the service, got %q", input.PaymentMethod)
		}
		sub := &models.Subscription{ID: uuid.New(), Plan: enums.PlanPro, BillingCycle: enums.BillingCycleYearly,
			Price: decimal.NewFromInt(470), StartedAt: now, ExpiresAt: now.AddDate(1, 0, 0), Status: enums.SubscriptionStatusActive}
		payment := &models.Payment{ID: uuid.New(), SubscriptionID: sub.ID, Amount: sub.Price, PaymentMethod: enums.PaymentMethodWechatPay}
		return sub, payment, nil
	}}
	rec := serve(t, http.MethodPost, "/subscription/upgrade", "/subscription/upgrade",
		`{"plan":"pro","billing_cycle":"yearly"}`, SubscriptionUpgrade(svc, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Subscription subscriptionView `json:"subscription"`
		Payment      *paymentView     `json:"payment"`
	}
	decodeData(t, rec, &out)
	if out.Subscription.Plan != enums.PlanPro || out.Payment == nil || !out.Payment.Amount.Equal(decimal.NewFromInt(470)) {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestSubscriptionUpgradeRejectsFree(t *testing.T) {
	rec := serve(t, http.MethodPost, "/subscription/upgrade", "/subscription/upgrade", `{"plan":"free"}`, SubscriptionUpgrade(stubSubscriptions{}, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
