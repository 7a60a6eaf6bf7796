package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/enums"
)

// Tenant is the shop that owns every other row.
type Tenant struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name      string             `gorm:"column:name;not null"`
	Category  *string            `gorm:"column:category"`
	SKUScale  *string            `gorm:"column:sku_scale"`
	Status    enums.TenantStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Tenant) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// User links an identity-provider account to a tenant.
type User struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TenantID            uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index"`
	AuthID              string           `gorm:"column:auth_id;not null;uniqueIndex"`
	Email               string           `gorm:"column:email;not null"`
	Nickname            *string          `gorm:"column:nickname"`
	Role                enums.UserRole   `gorm:"column:role;not null;default:'admin'"`
	Status              enums.UserStatus `gorm:"column:status;not null;default:'active'"`
	OnboardingCompleted bool             `gorm:"column:onboarding_completed;not null;default:false"`
	LastLoginAt         *time.Time       `gorm:"column:last_login_at"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
