package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// stockTotals counts stock buckets with the same boundaries the ledger uses
// for stock status. Archived SKUs are left out.
type stockTotals struct {
	TotalInventory  int64
	LowStockCount   int64
	OutOfStockCount int64
}

func (r *Repository) StockTotals(ctx context.Context, tenantID uuid.UUID) (stockTotals, error) {
	var out stockTotals
	err := r.db.WithContext(ctx).
		Table("inventory AS i").
		Joins("JOIN skus s ON s.id = i.sku_id").
		Select(`COALESCE(SUM(i.total_quantity), 0) AS total_inventory,
			COALESCE(SUM(CASE WHEN i.total_quantity > 0 AND i.total_quantity <= i.alert_threshold THEN 1 ELSE 0 END), 0) AS low_stock_count,
			COALESCE(SUM(CASE WHEN i.total_quantity <= 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_count`).
		Where("i.tenant_id = ? AND s.status <> ?", tenantID, enums.SKUStatusArchived).
		Scan(&out).Error
	return out, err
}

func (r *Repository) CountActiveSKUs(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SKU{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.SKUStatusActive).
		Count(&n).Error
	return n, err
}

func (r *Repository) ReturnTimes(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).Model(&models.ReturnRecord{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Pluck("created_at", &out).Error
	return out, err
}

// OrderTimes uses order deductions in the ledger as the order count.
func (r *Repository) OrderTimes(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).Model(&models.InventoryLog{}).
		Where("tenant_id = ? AND change_type = ? AND created_at >= ?", tenantID, enums.ChangeTypeOrderDeduct, since).
		Pluck("created_at", &out).Error
	return out, err
}

func (r *Repository) LowStock(ctx context.Context, tenantID uuid.UUID, limit int) ([]LowStockItem, error) {
	var out []LowStockItem
	err := r.db.WithContext(ctx).
		Table("inventory AS i").
		Joins("JOIN skus s ON s.id = i.sku_id").
		Select("i.sku_id, s.sku_code, s.name, i.total_quantity, i.alert_threshold").
		Where("i.tenant_id = ? AND s.status = ? AND i.total_quantity > 0 AND i.total_quantity <= i.alert_threshold",
			tenantID, enums.SKUStatusActive).
		Order("i.total_quantity ASC").
		Order("s.sku_code ASC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *Repository) FailedSyncs(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.SyncTask, error) {
	var out []models.SyncTask
	err := r.db.WithContext(ctx).
		Preload("Channel").
		Where("tenant_id = ? AND status = ?", tenantID, enums.SyncTaskStatusFailed).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *Repository) PendingReturns(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.ReturnRecord, error) {
	var out []models.ReturnRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, enums.ReturnStatusPending).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
