package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/enums"
)

type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name      string              `gorm:"column:name;not null"`
	ImageURL  *string             `gorm:"column:image_url"`
	Category  *string             `gorm:"column:category"`
	Status    enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// SKU is the stock-keeping unit that inventory is tracked against.
type SKU struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:skus_tenant_code_key,priority:1"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	SKUCode   string           `gorm:"column:sku_code;not null;uniqueIndex:skus_tenant_code_key,priority:2"`
	Name      string           `gorm:"column:name;not null"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Cost      *decimal.Decimal `gorm:"column:cost;type:numeric(12,2)"`
	Status    enums.SKUStatus  `gorm:"column:status;not null;default:'active'"`
	Product   *Product         `gorm:"foreignKey:ProductID"`
	Inventory *Inventory       `gorm:"foreignKey:SKUID"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (SKU) TableName() string { return "skus" }

func (s *SKU) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
