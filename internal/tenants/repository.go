package tenants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUserByAuthID(ctx context.Context, authID string) (*models.User, error)
	FindTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	CreateUser(ctx context.Context, user *models.User) error
	UpdateTenant(ctx context.Context, tenantID uuid.UUID, changes map[string]any) error
	UpdateUser(ctx context.Context, userID uuid.UUID, changes map[string]any) error
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.User, error)
	CreateChannels(ctx context.Context, channels []models.Channel) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUserByAuthID(ctx context.Context, authID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("auth_id = ?", authID).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", tenantID).Take(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) UpdateTenant(ctx context.Context, tenantID uuid.UUID, changes map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", tenantID).UpdateColumns(changes).Error
}

func (r *repository) UpdateUser(ctx context.Context, userID uuid.UUID, changes map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).UpdateColumns(changes).Error
}

func (r *repository) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]models.User, error) {
	var out []models.User
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, enums.UserStatusActive).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) CreateChannels(ctx context.Context, channels []models.Channel) error {
	if len(channels) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&channels).Error
}
