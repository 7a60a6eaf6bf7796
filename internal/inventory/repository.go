package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doumai/doumai-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Find(ctx context.Context, tenantID, skuID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.db.WithContext(ctx).
		Where("sku_id = ? AND tenant_id = ?", skuID, tenantID).
		Take(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// LockForUpdate loads the row with SELECT ... FOR UPDATE so concurrent
// adjustments of the same SKU serialize on the row lock.
func (r *Repository) LockForUpdate(ctx context.Context, tenantID, skuID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sku_id = ? AND tenant_id = ?", skuID, tenantID).
		Take(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) Create(ctx context.Context, inv *models.Inventory) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// SaveQuantities writes the total and the recomputed available quantity.
func (r *Repository) SaveQuantities(ctx context.Context, inv *models.Inventory) error {
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("sku_id = ? AND tenant_id = ?", inv.SKUID, inv.TenantID).
		UpdateColumns(map[string]any{
			"total_quantity":     inv.TotalQuantity,
			"available_quantity": inv.AvailableQuantity,
			"updated_at":         inv.UpdatedAt,
		}).Error
}

func (r *Repository) SetAlertThreshold(ctx context.Context, tenantID, skuID uuid.UUID, threshold int, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("sku_id = ? AND tenant_id = ?", skuID, tenantID).
		UpdateColumns(map[string]any{"alert_threshold": threshold, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (r *Repository) InsertLog(ctx context.Context, entry *models.InventoryLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListLogs(ctx context.Context, tenantID, skuID uuid.UUID, limit int) ([]models.InventoryLog, error) {
	var logs []models.InventoryLog
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku_id = ?", tenantID, skuID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *Repository) ListExportRows(ctx context.Context, tenantID uuid.UUID) ([]ExportRow, error) {
	var rows []ExportRow
	err := r.db.WithContext(ctx).
		Table("inventory AS i").
		Select(`s.sku_code AS sku_code,
			s.name AS sku_name,
			p.name AS product_name,
			i.total_quantity AS total_quantity,
			i.allocated_quantity AS allocated_quantity,
			i.available_quantity AS available_quantity,
			i.alert_threshold AS alert_threshold,
			i.updated_at AS updated_at`).
		Joins("JOIN skus s ON s.id = i.sku_id").
		Joins("JOIN products p ON p.id = s.product_id").
		Where("i.tenant_id = ? AND s.status <> ?", tenantID, "archived").
		Order("s.sku_code ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
