package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindChannel(ctx context.Context, tenantID, channelID uuid.UUID) (*models.Channel, error) {
	var ch models.Channel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", channelID, tenantID).
		Take(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *Repository) CountBuyerReturns(ctx context.Context, tenantID uuid.UUID, buyerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ReturnRecord{}).
		Where("tenant_id = ? AND buyer_id = ?", tenantID, buyerID).
		Count(&n).Error
	return n, err
}

func (r *Repository) IsBlacklisted(ctx context.Context, tenantID uuid.UUID, buyerID string, platform enums.Platform) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BuyerBlacklist{}).
		Where("tenant_id = ? AND buyer_id = ? AND platform = ? AND status = ?", tenantID, buyerID, platform, enums.BlacklistStatusActive).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreateReturn(ctx context.Context, rec *models.ReturnRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

type returnListQuery struct {
	TenantID uuid.UUID
	Status   *enums.ReturnStatus
	BuyerID  string
	Offset   int
	Limit    int
}

func (r *Repository) ListReturns(ctx context.Context, q returnListQuery) ([]models.ReturnRecord, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.ReturnRecord{}).Where("tenant_id = ?", q.TenantID)
	if q.Status != nil {
		base = base.Where("status = ?", *q.Status)
	}
	if q.BuyerID != "" {
		base = base.Where("buyer_id = ?", q.BuyerID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.ReturnRecord
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) UpdateReturnStatus(ctx context.Context, tenantID, returnID uuid.UUID, status enums.ReturnStatus) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ReturnRecord{}).
		Where("id = ? AND tenant_id = ?", returnID, tenantID).
		UpdateColumn("status", status)
	return res.RowsAffected, res.Error
}

// returnFact is the slice of a return record the buyer aggregates need.
type returnFact struct {
	BuyerID      string
	BuyerName    *string
	RefundAmount decimal.Decimal
	CreatedAt    time.Time
}

func (r *Repository) ListReturnFacts(ctx context.Context, tenantID uuid.UUID, buyerID string) ([]returnFact, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnRecord{}).
		Select("buyer_id", "buyer_name", "refund_amount", "created_at").
		Where("tenant_id = ?", tenantID)
	if buyerID != "" {
		query = query.Where("buyer_id = ?", buyerID)
	}
	var out []returnFact
	if err := query.Order("created_at ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) ActiveBlacklistedBuyers(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.BuyerBlacklist{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.BlacklistStatusActive).
		Distinct("buyer_id").
		Pluck("buyer_id", &out).Error
	return out, err
}

func (r *Repository) FindBlacklist(ctx context.Context, tenantID uuid.UUID, buyerID string, platform enums.Platform) (*models.BuyerBlacklist, error) {
	var entry models.BuyerBlacklist
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND buyer_id = ? AND platform = ?", tenantID, buyerID, platform).
		Take(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) CreateBlacklist(ctx context.Context, entry *models.BuyerBlacklist) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) UpdateBlacklist(ctx context.Context, tenantID, id uuid.UUID, changes map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.BuyerBlacklist{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		UpdateColumns(changes)
	return res.RowsAffected, res.Error
}

func (r *Repository) ListBlacklist(ctx context.Context, tenantID uuid.UUID) ([]models.BuyerBlacklist, error) {
	var out []models.BuyerBlacklist
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, enums.BlacklistStatusActive).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
