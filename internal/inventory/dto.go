package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

// Snapshot is the state of one inventory row after a read or write.
type Snapshot struct {
	SKUID             uuid.UUID         `json:"sku_id"`
	TenantID          uuid.UUID         `json:"tenant_id"`
	TotalQuantity     int               `json:"total_quantity"`
	AllocatedQuantity int               `json:"allocated_quantity"`
	AvailableQuantity int               `json:"available_quantity"`
	AlertThreshold    int               `json:"alert_threshold"`
	StockStatus       enums.StockStatus `json:"stock_status"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SnapshotOf converts a stored row, deriving its stock status.
func SnapshotOf(inv models.Inventory) Snapshot {
	return snapshotFromModel(inv)
}

func snapshotFromModel(inv models.Inventory) Snapshot {
	return Snapshot{
		SKUID:             inv.SKUID,
		TenantID:          inv.TenantID,
		TotalQuantity:     inv.TotalQuantity,
		AllocatedQuantity: inv.AllocatedQuantity,
		AvailableQuantity: inv.AvailableQuantity,
		AlertThreshold:    inv.AlertThreshold,
		StockStatus:       ComputeStockStatus(inv),
		UpdatedAt:         inv.UpdatedAt,
	}
}

// AdjustmentInput describes one stock change. Quantity is a magnitude for
// every change type except manual_adjust, where it is the new total.
type AdjustmentInput struct {
	TenantID      uuid.UUID
	SKUID         uuid.UUID
	ChangeType    enums.ChangeType
	Quantity      int
	Reason        *string
	OperatorID    *uuid.UUID
	SourceChannel *uuid.UUID
	SourceOrderID *string
}

type BatchInput struct {
	TenantID   uuid.UUID
	SKUIDs     []uuid.UUID
	Operation  enums.BatchOperation
	Quantity   int
	Reason     *string
	OperatorID *uuid.UUID
}

type BatchResult struct {
	Applied []Snapshot `json:"applied"`
}

// BatchFailure is attached as error details when a batch stops part way.
type BatchFailure struct {
	Applied     []Snapshot `json:"applied"`
	FailedSKUID uuid.UUID  `json:"failed_sku_id"`
	Remaining   int        `json:"remaining"`
	Cause       string     `json:"cause"`
}

// SeedInput creates the inventory row of a freshly created SKU.
type SeedInput struct {
	TenantID       uuid.UUID
	SKUID          uuid.UUID
	InitialStock   int
	AlertThreshold int
	Reason         string
	OperatorID     *uuid.UUID
}

type LogEntry struct {
	ID             uuid.UUID        `json:"id"`
	SKUID          uuid.UUID        `json:"sku_id"`
	ChangeType     enums.ChangeType `json:"change_type"`
	ChangeQuantity int              `json:"change_quantity"`
	BeforeQuantity int              `json:"before_quantity"`
	AfterQuantity  int              `json:"after_quantity"`
	Reason         *string          `json:"reason,omitempty"`
	OperatorID     *uuid.UUID       `json:"operator_id,omitempty"`
	SourceChannel  *uuid.UUID       `json:"source_channel,omitempty"`
	SourceOrderID  *string          `json:"source_order_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func logEntryFromModel(l models.InventoryLog) LogEntry {
	return LogEntry{
		ID:             l.ID,
		SKUID:          l.SKUID,
		ChangeType:     l.ChangeType,
		ChangeQuantity: l.ChangeQuantity,
		BeforeQuantity: l.BeforeQuantity,
		AfterQuantity:  l.AfterQuantity,
		Reason:         l.Reason,
		OperatorID:     l.OperatorID,
		SourceChannel:  l.SourceChannel,
		SourceOrderID:  l.SourceOrderID,
		CreatedAt:      l.CreatedAt,
	}
}

// ExportRow is one line of the stock spreadsheet.
type ExportRow struct {
	SKUCode           string
	SKUName           string
	ProductName       string
	TotalQuantity     int
	AllocatedQuantity int
	AvailableQuantity int
	AlertThreshold    int
	UpdatedAt         time.Time
}
