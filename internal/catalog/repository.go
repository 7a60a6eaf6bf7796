package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

const inventoryJoin = "LEFT JOIN inventory i ON i.sku_id = skus.id"

// stockStatusFilters mirror the ledger's stock status boundaries. A SKU
// without an inventory row counts as out of stock.
var stockStatusFilters = map[enums.StockStatus]string{
	enums.StockStatusOut:    "(i.sku_id IS NULL OR i.total_quantity <= 0)",
	enums.StockStatusLow:    "(i.total_quantity > 0 AND i.total_quantity <= i.alert_threshold)",
	enums.StockStatusNormal: "(i.total_quantity > i.alert_threshold)",
}

var sortColumns = map[enums.SKUSort]string{
	enums.SKUSortCreatedAt: "skus.created_at",
	enums.SKUSortName:      "skus.name",
	enums.SKUSortCode:      "skus.sku_code",
	enums.SKUSortStock:     "COALESCE(i.total_quantity, 0)",
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) CreateSKU(ctx context.Context, sku *models.SKU) error {
	return r.db.WithContext(ctx).Omit("Product", "Inventory").Create(sku).Error
}

func (r *Repository) FindSKU(ctx context.Context, tenantID, skuID uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Inventory").
		Where("id = ? AND tenant_id = ?", skuID, tenantID).
		Take(&sku).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

type skuListQuery struct {
	TenantID    uuid.UUID
	Search      string
	Status      *enums.SKUStatus
	StockStatus *enums.StockStatus
	Sort        enums.SKUSort
	Ascending   bool
	Offset      int
	Limit       int
}

func (r *Repository) ListSKUs(ctx context.Context, q skuListQuery) ([]models.SKU, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.SKU{}).
		Joins(inventoryJoin).
		Where("skus.tenant_id = ?", q.TenantID)

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		like := "%" + escapeLike(term) + "%"
		base = base.Where("(LOWER(skus.name) LIKE ? ESCAPE '\\' OR LOWER(skus.sku_code) LIKE ? ESCAPE '\\')", like, like)
	}
	if q.Status != nil {
		base = base.Where("skus.status = ?", *q.Status)
	}
	if q.StockStatus != nil {
		if clause, ok := stockStatusFilters[*q.StockStatus]; ok {
			base = base.Where(clause)
		}
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[q.Sort]
	if !ok {
		column = sortColumns[enums.SKUSortCreatedAt]
	}
	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}

	var skus []models.SKU
	if err := base.Session(&gorm.Session{}).
		Select("skus.*").
		Preload("Product").
		Preload("Inventory").
		Order(column + " " + direction).
		Order("skus.id " + direction).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&skus).Error; err != nil {
		return nil, 0, err
	}
	return skus, total, nil
}

func (r *Repository) ArchiveSKU(ctx context.Context, tenantID, skuID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SKU{}).
		Where("id = ? AND tenant_id = ?", skuID, tenantID).
		UpdateColumns(map[string]any{"status": enums.SKUStatusArchived, "updated_at": at})
	return res.RowsAffected, res.Error
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
