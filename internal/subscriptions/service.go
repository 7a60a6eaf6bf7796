package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
	Now               func() time.Time
}

type UpgradeInput struct {
	TenantID      uuid.UUID
	Plan          enums.PlanType
	BillingCycle  enums.BillingCycle
	PaymentMethod enums.PaymentMethod
}

type Usage struct {
	Plan         enums.PlanType `json:"plan"`
	SKUCount     int            `json:"sku_count"`
	SKULimit     int            `json:"sku_limit"`
	ChannelCount int            `json:"channel_count"`
	ChannelLimit int            `json:"channel_limit"`
	MemberCount  int            `json:"member_count"`
	MemberLimit  int            `json:"member_limit"`
}

// Service owns plans, quotas and the simulated checkout.
type Service struct {
	repo     Repository
	txRunner txRunner
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{repo: params.Repo, txRunner: params.TransactionRunner, logg: params.Logger, now: now}, nil
}

// Current returns the stored subscription, or nil when the tenant never had one.
func (s *Service) Current(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscription(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load subscription")
	}
	return sub, nil
}

// EffectivePlan is the plan quotas are enforced against. Missing, lapsed or
// cancelled subscriptions fall back to free.
func (s *Service) EffectivePlan(ctx context.Context, tenantID uuid.UUID) (Plan, error) {
	sub, err := s.Current(ctx, tenantID)
	if err != nil {
		return Plan{}, err
	}
	if sub == nil || sub.Status != enums.SubscriptionStatusActive || sub.ExpiresAt.Before(s.now()) {
		return PlanFor(enums.PlanFree), nil
	}
	return PlanFor(sub.Plan), nil
}

func (s *Service) Usage(ctx context.Context, tenantID uuid.UUID) (*Usage, error) {
	plan, err := s.EffectivePlan(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	skus, err := s.repo.CountActiveSKUs(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count skus")
	}
	channels, err := s.repo.CountChannels(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count channels")
	}
	members, err := s.repo.CountActiveMembers(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count members")
	}
	return &Usage{
		Plan:         plan.Type,
		SKUCount:     int(skus),
		SKULimit:     plan.SKULimit,
		ChannelCount: int(channels),
		ChannelLimit: plan.ChannelLimit,
		MemberCount:  int(members),
		MemberLimit:  plan.MemberLimit,
	}, nil
}

// CheckSKUQuota fails with QUOTA_EXCEEDED when adding more active SKUs would
// pass the plan limit.
func (s *Service) CheckSKUQuota(ctx context.Context, tenantID uuid.UUID, adding int) error {
	usage, err := s.Usage(ctx, tenantID)
	if err != nil {
		return err
	}
	if !withinLimit(usage.SKULimit, usage.SKUCount, adding) {
		return quotaError("sku", usage.Plan, usage.SKULimit, usage.SKUCount)
	}
	return nil
}

func (s *Service) CheckChannelQuota(ctx context.Context, tenantID uuid.UUID) error {
	usage, err := s.Usage(ctx, tenantID)
	if err != nil {
		return err
	}
	if !withinLimit(usage.ChannelLimit, usage.ChannelCount, 1) {
		return quotaError("channel", usage.Plan, usage.ChannelLimit, usage.ChannelCount)
	}
	return nil
}

// RequireFeature fails with PLAN_RESTRICTED when the effective plan lacks feature.
func (s *Service) RequireFeature(ctx context.Context, tenantID uuid.UUID, feature Feature) error {
	plan, err := s.EffectivePlan(ctx, tenantID)
	if err != nil {
		return err
	}
	if !plan.Has(feature) {
		return pkgerrors.Newf(pkgerrors.CodePlanRestricted, "%s is not included in the %s plan", feature, plan.Type).
			WithDetails(map[string]any{"feature": feature, "plan": plan.Type})
	}
	return nil
}

// MinSyncInterval returns the shortest scheduled sync interval the plan
// allows, or a PLAN_RESTRICTED error when scheduled sync is not included.
func (s *Service) MinSyncInterval(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if err := s.RequireFeature(ctx, tenantID, FeatureAutoSync); err != nil {
		return 0, err
	}
	plan, err := s.EffectivePlan(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	return plan.MinSyncIntervalMinutes, nil
}

// StartFree creates the one-year free subscription of a new tenant inside
// the caller's transaction.
func (s *Service) StartFree(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*models.Subscription, error) {
	now := s.now()
	sub := &models.Subscription{
		TenantID:     tenantID,
		Plan:         enums.PlanFree,
		BillingCycle: enums.BillingCycleYearly,
		StartedAt:    now,
		ExpiresAt:    now.AddDate(1, 0, 0),
		Status:       enums.SubscriptionStatusActive,
	}
	if err := s.repo.WithTx(tx).CreateSubscription(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create subscription")
	}
	return sub, nil
}

// Upgrade moves the tenant onto a paid plan and records a paid payment. The
// charge itself is simulated.
func (s *Service) Upgrade(ctx context.Context, input UpgradeInput) (*models.Subscription, *models.Payment, error) {
	if !input.Plan.IsValid() || input.Plan == enums.PlanFree {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "plan must be pro or enterprise")
	}
	if input.BillingCycle == "" {
		input.BillingCycle = enums.BillingCycleMonthly
	}
	if !input.BillingCycle.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "billing_cycle must be monthly or yearly")
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = enums.PaymentMethodWechatPay
	}
	if !input.PaymentMethod.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment_method")
	}

	plan := PlanFor(input.Plan)
	price := plan.Price(input.BillingCycle)
	now := s.now()
	expires := now.AddDate(0, 1, 0)
	if input.BillingCycle == enums.BillingCycleYearly {
		expires = now.AddDate(1, 0, 0)
	}

	var (
		sub     *models.Subscription
		payment *models.Payment
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		paymentType := enums.PaymentTypeUpgrade

		existing, err := repo.FindSubscription(ctx, input.TenantID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			paymentType = enums.PaymentTypePurchase
			sub = &models.Subscription{
				TenantID:     input.TenantID,
				Plan:         input.Plan,
				BillingCycle: input.BillingCycle,
				Price:        price,
				StartedAt:    now,
				ExpiresAt:    expires,
				Status:       enums.SubscriptionStatusActive,
			}
			if err := repo.CreateSubscription(ctx, sub); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create subscription")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load subscription")
		default:
			existing.Plan = input.Plan
			existing.BillingCycle = input.BillingCycle
			existing.Price = price
			existing.StartedAt = now
			existing.ExpiresAt = expires
			existing.Status = enums.SubscriptionStatusActive
			existing.UpdatedAt = now
			if err := repo.UpdateSubscription(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update subscription")
			}
			sub = existing
		}

		txnID := fmt.Sprintf("txn_%d", now.UnixMilli())
		paidAt := now
		payment = &models.Payment{
			TenantID:       input.TenantID,
			SubscriptionID: sub.ID,
			Amount:         price,
			PaymentMethod:  input.PaymentMethod,
			TransactionID:  &txnID,
			Type:           paymentType,
			Status:         enums.PaymentStatusPaid,
			PaidAt:         &paidAt,
			CreatedAt:      now,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create payment")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, nil, err
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upgrade subscription")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"tenant_id": input.TenantID.String(),
		"plan":      input.Plan.String(),
		"cycle":     input.BillingCycle.String(),
		"amount":    price.StringFixed(2),
	})
	s.logg.Info(logCtx, "subscription.upgraded")
	return sub, payment, nil
}

func (s *Service) Payments(ctx context.Context, tenantID uuid.UUID) ([]models.Payment, error) {
	payments, err := s.repo.ListPayments(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list payments")
	}
	return payments, nil
}

// ExpireDue marks active subscriptions past their expiry as expired.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: expire subscriptions")
	}
	return n, nil
}

func quotaError(resource string, plan enums.PlanType, limit, used int) error {
	return pkgerrors.Newf(pkgerrors.CodeQuotaExceeded, "%s limit of the %s plan reached", resource, plan).
		WithDetails(map[string]any{"resource": resource, "plan": plan, "limit": limit, "used": used})
}
