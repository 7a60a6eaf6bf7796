package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

// Service manages products and their SKUs.
type Service interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*CreateProductResult, error)
	ListSKUs(ctx context.Context, input ListSKUsInput) (*SKUPage, error)
	GetSKU(ctx context.Context, tenantID, skuID uuid.UUID) (*SKUView, error)
	ArchiveSKU(ctx context.Context, tenantID, skuID uuid.UUID) error
}

// inventorySeeder opens the inventory row of a new SKU inside the catalog
// transaction.
type inventorySeeder interface {
	Seed(ctx context.Context, tx *gorm.DB, input inventory.SeedInput) (*inventory.Snapshot, error)
}

type quotaChecker interface {
	CheckSKUQuota(ctx context.Context, tenantID uuid.UUID, adding int) error
}

type ServiceParams struct {
	Repo      *Repository
	TxRunner  db.TxRunner
	Inventory inventorySeeder
	Quota     quotaChecker
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      *Repository
	tx        db.TxRunner
	inventory inventorySeeder
	quota     quotaChecker
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory seeder required")
	}
	if params.Quota == nil {
		return nil, fmt.Errorf("quota checker required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		tx:        params.TxRunner,
		inventory: params.Inventory,
		quota:     params.Quota,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// CreateProduct inserts the product, its SKU, the inventory row and the
// import log in one transaction.
func (s *service) CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*CreateProductResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateMoney("price", input.Price); err != nil {
		return nil, err
	}
	if err := validateMoney("cost", input.Cost); err != nil {
		return nil, err
	}
	if err := s.quota.CheckSKUQuota(ctx, tenantID, 1); err != nil {
		return nil, err
	}

	code := s.skuCode(input.SKUCode)
	initial := 0
	if input.InitialStock != nil {
		initial = max(*input.InitialStock, 0)
	}
	threshold := defaultAlertThreshold
	if input.AlertThreshold != nil {
		threshold = max(*input.AlertThreshold, 0)
	}

	result := &CreateProductResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product := &models.Product{
			TenantID: tenantID,
			Name:     name,
			ImageURL: blankToNil(input.ImageURL),
			Category: blankToNil(input.Category),
			Status:   enums.ProductStatusActive,
		}
		if err := txRepo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}

		sku := &models.SKU{
			TenantID:  tenantID,
			ProductID: product.ID,
			SKUCode:   code,
			Name:      name,
			Price:     input.Price,
			Cost:      input.Cost,
			Status:    enums.SKUStatusActive,
		}
		if err := txRepo.CreateSKU(ctx, sku); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "sku code %q already exists", code)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sku")
		}

		snap, err := s.inventory.Seed(ctx, tx, inventory.SeedInput{
			TenantID:       tenantID,
			SKUID:          sku.ID,
			InitialStock:   initial,
			AlertThreshold: threshold,
			Reason:         seedReason,
			OperatorID:     input.OperatorID,
		})
		if err != nil {
			return err
		}

		sku.Product = product
		result.ProductID = product.ID
		result.SKU = skuViewFromModel(*sku)
		result.SKU.Inventory = snap
		result.SKU.StockStatus = snap.StockStatus
		result.Inventory = snap
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create product")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"tenant_id": tenantID.String(),
		"sku_id":    result.SKU.ID.String(),
		"sku_code":  code,
	})
	s.logg.Info(logCtx, "catalog.product.created")
	return result, nil
}

func (s *service) ListSKUs(ctx context.Context, input ListSKUsInput) (*SKUPage, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if input.StockStatus != nil && !input.StockStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock_status filter")
	}
	if input.Sort == "" {
		input.Sort = enums.SKUSortCreatedAt
	}
	if !input.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort field")
	}

	page := input.Page.Normalize()
	rows, total, err := s.repo.ListSKUs(ctx, skuListQuery{
		TenantID:    input.TenantID,
		Search:      input.Search,
		Status:      input.Status,
		StockStatus: input.StockStatus,
		Sort:        input.Sort,
		Ascending:   input.Ascending,
		Offset:      page.Offset(),
		Limit:       page.PageSize,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list skus")
	}

	items := make([]SKUView, 0, len(rows))
	for _, row := range rows {
		items = append(items, skuViewFromModel(row))
	}
	return &SKUPage{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *service) GetSKU(ctx context.Context, tenantID, skuID uuid.UUID) (*SKUView, error) {
	sku, err := s.repo.FindSKU(ctx, tenantID, skuID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sku")
	}
	view := skuViewFromModel(*sku)
	return &view, nil
}

// ArchiveSKU hides the SKU from active listings. Rows are never deleted so
// the ledger history stays intact.
func (s *service) ArchiveSKU(ctx context.Context, tenantID, skuID uuid.UUID) error {
	affected, err := s.repo.ArchiveSKU(ctx, tenantID, skuID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: archive sku")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
	}
	return nil
}

func (s *service) skuCode(requested *string) string {
	code := ""
	if requested != nil {
		code = strings.TrimSpace(*requested)
	}
	if code == "" {
		code = fmt.Sprintf("SKU-%d", s.now().UnixMilli())
	}
	if utf8.RuneCountInString(code) > maxSKUCodeLength {
		code = string([]rune(code)[:maxSKUCodeLength])
	}
	return code
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
