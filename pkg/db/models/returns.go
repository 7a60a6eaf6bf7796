package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/enums"
)

type ReturnRecord struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	TenantID     uuid.UUID          `gorm:"column:tenant_id;type:uuid;not null;index"`
	ChannelID    *uuid.UUID         `gorm:"column:channel_id;type:uuid"`
	OrderID      string             `gorm:"column:order_id;not null"`
	BuyerID      string             `gorm:"column:buyer_id;not null;index"`
	BuyerName    *string            `gorm:"column:buyer_name"`
	Platform     enums.Platform     `gorm:"column:platform;not null"`
	SKUID        *uuid.UUID         `gorm:"column:sku_id;type:uuid"`
	Quantity     int                `gorm:"column:quantity;not null;default:1"`
	RefundAmount decimal.Decimal    `gorm:"column:refund_amount;type:numeric(12,2);not null;default:0"`
	ReturnType   enums.ReturnType   `gorm:"column:return_type;not null"`
	RiskLevel    enums.RiskLevel    `gorm:"column:risk_level;not null;default:'normal'"`
	Status       enums.ReturnStatus `gorm:"column:status;not null;default:'pending'"`
	Restored     bool               `gorm:"column:restored;not null;default:false"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (r *ReturnRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

type BuyerBlacklist struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	TenantID     uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:buyer_blacklist_tenant_buyer_platform_key,priority:1"`
	BuyerID      string                `gorm:"column:buyer_id;not null;uniqueIndex:buyer_blacklist_tenant_buyer_platform_key,priority:2"`
	BuyerName    *string               `gorm:"column:buyer_name"`
	Platform     enums.Platform        `gorm:"column:platform;not null;uniqueIndex:buyer_blacklist_tenant_buyer_platform_key,priority:3"`
	Reason       *string               `gorm:"column:reason"`
	ReturnCount  int                   `gorm:"column:return_count;not null;default:0"`
	ReturnAmount decimal.Decimal       `gorm:"column:return_amount;type:numeric(12,2);not null;default:0"`
	AddedBy      *uuid.UUID            `gorm:"column:added_by;type:uuid"`
	Status       enums.BlacklistStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (BuyerBlacklist) TableName() string { return "buyer_blacklist" }

func (b *BuyerBlacklist) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
