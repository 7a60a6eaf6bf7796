package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

// Repository handles subscription and payment persistence plus the usage
// counters quotas are checked against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, tenantID uuid.UUID) ([]models.Payment, error)
	CountActiveSKUs(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountChannels(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountActiveMembers(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Take(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", sub.ID).
		UpdateColumns(map[string]any{
			"plan":          sub.Plan,
			"billing_cycle": sub.BillingCycle,
			"price":         sub.Price,
			"started_at":    sub.StartedAt,
			"expires_at":    sub.ExpiresAt,
			"status":        sub.Status,
			"updated_at":    sub.UpdatedAt,
		}).Error
}

func (r *repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND expires_at < ?", enums.SubscriptionStatusActive, now).
		UpdateColumns(map[string]any{"status": enums.SubscriptionStatusExpired, "updated_at": now})
	return res.RowsAffected, res.Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) ListPayments(ctx context.Context, tenantID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) CountActiveSKUs(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SKU{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.SKUStatusActive).
		Count(&n).Error
	return n, err
}

func (r *repository) CountChannels(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Channel{}).
		Where("tenant_id = ? AND status <> ?", tenantID, enums.ChannelStatusDisconnected).
		Count(&n).Error
	return n, err
}

func (r *repository) CountActiveMembers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.UserStatusActive).
		Count(&n).Error
	return n, err
}
