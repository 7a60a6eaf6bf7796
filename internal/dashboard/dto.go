package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultTrendDays = 30
	MaxTrendDays     = 90
	todoLimit        = 5
	trendDateLayout  = "2006-01-02"
)

type Overview struct {
	TotalSKUs       int64 `json:"total_skus"`
	TotalInventory  int64 `json:"total_inventory"`
	LowStockCount   int64 `json:"low_stock_count"`
	OutOfStockCount int64 `json:"out_of_stock_count"`
}

type ReturnTrend struct {
	Date        string  `json:"date"`
	ReturnCount int     `json:"return_count"`
	OrderCount  int     `json:"total_orders"`
	ReturnRate  float64 `json:"return_rate"`
}

type LowStockItem struct {
	SKUID          uuid.UUID `gorm:"column:sku_id" json:"sku_id"`
	SKUCode        string    `gorm:"column:sku_code" json:"sku_code"`
	Name           string    `gorm:"column:name" json:"name"`
	TotalQuantity  int       `gorm:"column:total_quantity" json:"total_quantity"`
	AlertThreshold int       `gorm:"column:alert_threshold" json:"alert_threshold"`
}

type FailedSync struct {
	TaskID       uuid.UUID `json:"id"`
	ChannelID    uuid.UUID `json:"channel_id"`
	ShopName     string    `json:"shop_name"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type PendingReturn struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      string          `json:"order_id"`
	BuyerName    *string         `json:"buyer_name,omitempty"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Todos struct {
	LowStock       []LowStockItem  `json:"low_stock_items"`
	FailedSyncs    []FailedSync    `json:"failed_syncs"`
	PendingReturns []PendingReturn `json:"pending_returns"`
}
