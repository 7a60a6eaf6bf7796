package returns

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
	mediumRiskReturns = 3
	highRiskReturns   = 5
	maxOrderIDLength  = 64
	maxBuyerIDLength  = 64
)

type RecordReturnInput struct {
	TenantID     uuid.UUID
	ChannelID    *uuid.UUID
	OrderID      string
	BuyerID      string
	BuyerName    *string
	Platform     enums.Platform
	SKUID        *uuid.UUID
	Quantity     int
	RefundAmount decimal.Decimal
	ReturnType   enums.ReturnType
	OperatorID   *uuid.UUID
}

type ReturnView struct {
	ID           uuid.UUID          `json:"id"`
	ChannelID    *uuid.UUID         `json:"channel_id,omitempty"`
	OrderID      string             `json:"order_id"`
	BuyerID      string             `json:"buyer_id"`
	BuyerName    *string            `json:"buyer_name,omitempty"`
	Platform     enums.Platform     `json:"platform"`
	SKUID        *uuid.UUID         `json:"sku_id,omitempty"`
	Quantity     int                `json:"quantity"`
	RefundAmount decimal.Decimal    `json:"refund_amount"`
	ReturnType   enums.ReturnType   `json:"return_type"`
	RiskLevel    enums.RiskLevel    `json:"risk_level"`
	Status       enums.ReturnStatus `json:"status"`
	Restored     bool               `json:"restored"`
	CreatedAt    time.Time          `json:"created_at"`
}

func returnViewFromModel(r models.ReturnRecord) ReturnView {
	return ReturnView{
		ID:           r.ID,
		ChannelID:    r.ChannelID,
		OrderID:      r.OrderID,
		BuyerID:      r.BuyerID,
		BuyerName:    r.BuyerName,
		Platform:     r.Platform,
		SKUID:        r.SKUID,
		Quantity:     r.Quantity,
		RefundAmount: r.RefundAmount,
		ReturnType:   r.ReturnType,
		RiskLevel:    r.RiskLevel,
		Status:       r.Status,
		Restored:     r.Restored,
		CreatedAt:    r.CreatedAt,
	}
}

// RecordResult carries the stored return and, when stock was restored, the
// inventory after the restore.
type RecordResult struct {
	Return    ReturnView          `json:"return"`
	Inventory *inventory.Snapshot `json:"inventory,omitempty"`
}

type ListReturnsInput struct {
	TenantID uuid.UUID
	Page     pagination.PageParams
	Status   *enums.ReturnStatus
	BuyerID  string
}

type ReturnPage struct {
	Items    []ReturnView `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type RiskyBuyer struct {
	BuyerID      string          `json:"buyer_id"`
	BuyerName    *string         `json:"buyer_name,omitempty"`
	ReturnCount  int             `json:"return_count"`
	TotalRefund  decimal.Decimal `json:"total_refund"`
	LastReturnAt time.Time       `json:"last_return_at"`
	Blacklisted  bool            `json:"is_blacklisted"`
	RiskLevel    enums.RiskLevel `json:"risk_level"`
}

type BlacklistInput struct {
	TenantID  uuid.UUID
	BuyerID   string
	BuyerName *string
	Platform  enums.Platform
	Reason    *string
	AddedBy   *uuid.UUID
}

type BlacklistEntry struct {
	ID           uuid.UUID             `json:"id"`
	BuyerID      string                `json:"buyer_id"`
	BuyerName    *string               `json:"buyer_name,omitempty"`
	Platform     enums.Platform        `json:"platform"`
	Reason       *string               `json:"reason,omitempty"`
	ReturnCount  int                   `json:"return_count"`
	ReturnAmount decimal.Decimal       `json:"return_amount"`
	AddedBy      *uuid.UUID            `json:"added_by,omitempty"`
	Status       enums.BlacklistStatus `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func blacklistEntryFromModel(b models.BuyerBlacklist) BlacklistEntry {
	return BlacklistEntry{
		ID:           b.ID,
		BuyerID:      b.BuyerID,
		BuyerName:    b.BuyerName,
		Platform:     b.Platform,
		Reason:       b.Reason,
		ReturnCount:  b.ReturnCount,
		ReturnAmount: b.ReturnAmount,
		AddedBy:      b.AddedBy,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// RiskLevelFor grades a buyer by how many returns they have made in the
// tenant. Blacklisted buyers are always high risk.
func RiskLevelFor(returnCount int, blacklisted bool) enums.RiskLevel {
	switch {
	case blacklisted || returnCount >= highRiskReturns:
		return enums.RiskLevelHigh
	case returnCount >= mediumRiskReturns:
		return enums.RiskLevelMedium
	default:
		return enums.RiskLevelNormal
	}
}
