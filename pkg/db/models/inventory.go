package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/enums"
)

// Inventory holds the current stock of one SKU. AvailableQuantity is always
// TotalQuantity minus AllocatedQuantity.
type Inventory struct {
	SKUID             uuid.UUID `gorm:"column:sku_id;type:uuid;primaryKey"`
	TenantID          uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	TotalQuantity     int       `gorm:"column:total_quantity;not null;default:0"`
	AllocatedQuantity int       `gorm:"column:allocated_quantity;not null;default:0"`
	AvailableQuantity int       `gorm:"column:available_quantity;not null;default:0"`
	AlertThreshold    int       `gorm:"column:alert_threshold;not null"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string { return "inventory" }

// InventoryLog is an append-only record of one stock change.
type InventoryLog struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index"`
	SKUID          uuid.UUID        `gorm:"column:sku_id;type:uuid;not null;index"`
	ChangeType     enums.ChangeType `gorm:"column:change_type;not null"`
	ChangeQuantity int              `gorm:"column:change_quantity;not null"`
	BeforeQuantity int              `gorm:"column:before_quantity;not null"`
	AfterQuantity  int              `gorm:"column:after_quantity;not null"`
	SourceChannel  *uuid.UUID       `gorm:"column:source_channel;type:uuid"`
	SourceOrderID  *string          `gorm:"column:source_order_id"`
	OperatorID     *uuid.UUID       `gorm:"column:operator_id;type:uuid"`
	Reason         *string          `gorm:"column:reason"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (l *InventoryLog) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
