package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/enums"
)

// Channel is a marketplace storefront connected to a tenant.
type Channel struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID            uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	Platform            enums.Platform      `gorm:"column:platform;not null"`
	ShopName            string              `gorm:"column:shop_name;not null"`
	ShopID              *string             `gorm:"column:shop_id"`
	SyncMode            enums.SyncMode      `gorm:"column:sync_mode;not null;default:'realtime'"`
	SyncIntervalMinutes int                 `gorm:"column:sync_interval_minutes;not null"`
	DeductOn            enums.DeductOn      `gorm:"column:deduct_on;not null;default:'payment'"`
	ReturnAutoRestore   bool                `gorm:"column:return_auto_restore;not null"`
	Status              enums.ChannelStatus `gorm:"column:status;not null;default:'connected'"`
	LastSyncAt          *time.Time          `gorm:"column:last_sync_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Channel) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type SyncTask struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	TenantID     uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;index"`
	ChannelID    uuid.UUID            `gorm:"column:channel_id;type:uuid;not null;index"`
	Type         enums.SyncTaskType   `gorm:"column:type;not null"`
	Status       enums.SyncTaskStatus `gorm:"column:status;not null;default:'pending'"`
	TotalSKUs    int                  `gorm:"column:total_skus;not null;default:0"`
	SuccessCount int                  `gorm:"column:success_count;not null;default:0"`
	FailCount    int                  `gorm:"column:fail_count;not null;default:0"`
	RetryCount   int                  `gorm:"column:retry_count;not null;default:0"`
	MaxRetries   int                  `gorm:"column:max_retries;not null"`
	ErrorMessage *string              `gorm:"column:error_message"`
	StartedAt    *time.Time           `gorm:"column:started_at"`
	CompletedAt  *time.Time           `gorm:"column:completed_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	Channel      *Channel             `gorm:"foreignKey:ChannelID"`
}

func (t *SyncTask) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
