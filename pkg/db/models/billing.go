package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/enums"
)

// Subscription is the tenant's single current plan.
type Subscription struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	TenantID     uuid.UUID                `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`
	Plan         enums.PlanType           `gorm:"column:plan;not null;default:'free'"`
	BillingCycle enums.BillingCycle       `gorm:"column:billing_cycle;not null;default:'monthly'"`
	Price        decimal.Decimal          `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	StartedAt    time.Time                `gorm:"column:started_at;not null"`
	ExpiresAt    time.Time                `gorm:"column:expires_at;not null"`
	AutoRenew    bool                     `gorm:"column:auto_renew;not null;default:false"`
	Status       enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type Payment struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	SubscriptionID uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;not null"`
	TransactionID  *string             `gorm:"column:transaction_id"`
	Type           enums.PaymentType   `gorm:"column:type;not null"`
	Status         enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	PaidAt         *time.Time          `gorm:"column:paid_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
