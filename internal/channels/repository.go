package channels

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	"github.com/doumai/doumai-backend/pkg/pagination"
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

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]models.Channel, error) {
	var out []models.Channel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Find(ctx context.Context, tenantID, channelID uuid.UUID) (*models.Channel, error) {
	var ch models.Channel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", channelID, tenantID).
		Take(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *Repository) Create(ctx context.Context, ch *models.Channel) error {
	return r.db.WithContext(ctx).Create(ch).Error
}

func (r *Repository) Update(ctx context.Context, tenantID, channelID uuid.UUID, changes map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("id = ? AND tenant_id = ?", channelID, tenantID).
		UpdateColumns(changes)
	return res.RowsAffected, res.Error
}

func (r *Repository) TouchLastSync(ctx context.Context, channelID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Channel{}).
		Where("id = ?", channelID).
		UpdateColumns(map[string]any{"last_sync_at": at, "updated_at": at}).Error
}

// ListScheduled returns connected channels that sync on an interval.
func (r *Repository) ListScheduled(ctx context.Context) ([]models.Channel, error) {
	var out []models.Channel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND sync_mode = ?", enums.ChannelStatusConnected, enums.SyncModeScheduled).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CountActiveSKUs(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SKU{}).
		Where("tenant_id = ? AND status = ?", tenantID, enums.SKUStatusActive).
		Count(&n).Error
	return n, err
}

func (r *Repository) HasOpenTask(ctx context.Context, channelID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SyncTask{}).
		Where("channel_id = ? AND status IN ?", channelID, []enums.SyncTaskStatus{enums.SyncTaskStatusPending, enums.SyncTaskStatusProcessing}).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreateTask(ctx context.Context, task *models.SyncTask) error {
	return r.db.WithContext(ctx).Omit("Channel").Create(task).Error
}

type taskListQuery struct {
	TenantID  uuid.UUID
	ChannelID *uuid.UUID
	Cursor    *pagination.Cursor
	Limit     int
}

func (r *Repository) ListTasks(ctx context.Context, q taskListQuery) ([]models.SyncTask, error) {
	query := r.db.WithContext(ctx).
		Preload("Channel").
		Where("tenant_id = ?", q.TenantID)
	if q.ChannelID != nil {
		query = query.Where("channel_id = ?", *q.ChannelID)
	}
	if q.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}
	var out []models.SyncTask
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.Limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListDueTasks returns processing tasks started at or before cutoff, oldest first.
func (r *Repository) ListDueTasks(ctx context.Context, cutoff time.Time, limit int) ([]models.SyncTask, error) {
	var out []models.SyncTask
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at <= ?", enums.SyncTaskStatusProcessing, cutoff).
		Order("started_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FinishTask moves a processing task to its final state. The status guard
// makes a second worker's update a no-op.
func (r *Repository) FinishTask(ctx context.Context, taskID uuid.UUID, changes map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SyncTask{}).
		Where("id = ? AND status = ?", taskID, enums.SyncTaskStatusProcessing).
		UpdateColumns(changes)
	return res.RowsAffected, res.Error
}
