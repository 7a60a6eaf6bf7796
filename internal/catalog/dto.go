package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	"github.com/doumai/doumai-backend/pkg/pagination"
)

const (
	maxSKUCodeLength      = 50
	defaultAlertThreshold = 10
	seedReason            = "new product"
)

// CreateProductInput creates a product with exactly one SKU. Nil stock and
// threshold fall back to 0 and 10.
type CreateProductInput struct {
	Name           string
	ImageURL       *string
	Category       *string
	SKUCode        *string
	Price          *decimal.Decimal
	Cost           *decimal.Decimal
	InitialStock   *int
	AlertThreshold *int
	OperatorID     *uuid.UUID
}

type CreateProductResult struct {
	ProductID uuid.UUID           `json:"product_id"`
	SKU       SKUView             `json:"sku"`
	Inventory *inventory.Snapshot `json:"inventory"`
}

type ListSKUsInput struct {
	TenantID    uuid.UUID
	Page        pagination.PageParams
	Search      string
	Status      *enums.SKUStatus
	StockStatus *enums.StockStatus
	Sort        enums.SKUSort
	Ascending   bool
}

type SKUPage struct {
	Items    []SKUView `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

type SKUView struct {
	ID          uuid.UUID           `json:"id"`
	ProductID   uuid.UUID           `json:"product_id"`
	SKUCode     string              `json:"sku_code"`
	Name        string              `json:"name"`
	Price       *decimal.Decimal    `json:"price,omitempty"`
	Cost        *decimal.Decimal    `json:"cost,omitempty"`
	Status      enums.SKUStatus     `json:"status"`
	ProductName string              `json:"product_name,omitempty"`
	Category    *string             `json:"category,omitempty"`
	ImageURL    *string             `json:"image_url,omitempty"`
	Inventory   *inventory.Snapshot `json:"inventory,omitempty"`
	StockStatus enums.StockStatus   `json:"stock_status"`
	CreatedAt   time.Time           `json:"created_at"`
}

func skuViewFromModel(sku models.SKU) SKUView {
	view := SKUView{
		ID:          sku.ID,
		ProductID:   sku.ProductID,
		SKUCode:     sku.SKUCode,
		Name:        sku.Name,
		Price:       sku.Price,
		Cost:        sku.Cost,
		Status:      sku.Status,
		StockStatus: enums.StockStatusOut,
		CreatedAt:   sku.CreatedAt,
	}
	if sku.Product != nil {
		view.ProductName = sku.Product.Name
		view.Category = sku.Product.Category
		view.ImageURL = sku.Product.ImageURL
	}
	if sku.Inventory != nil {
		snap := inventory.SnapshotOf(*sku.Inventory)
		view.Inventory = &snap
		view.StockStatus = snap.StockStatus
	}
	return view
}
