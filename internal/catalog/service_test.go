package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/dbtest"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/pagination"
)

type stubQuota struct {
	err   error
	calls int
}

func (s *stubQuota) CheckSKUQuota(context.Context, uuid.UUID, int) error {
	s.calls++
	return s.err
}

var testNow = time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, quota *stubQuota) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	ledger, err := inventory.NewService(inventory.NewRepository(conn), db.Wrap(conn), logger.Nop(), inventory.Options{})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		TxRunner:  db.Wrap(conn),
		Inventory: ledger,
		Quota:     quota,
		Logger:    logger.Nop(),
		Now:       func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return svc, conn
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestCreateProductSeedsInventoryAndImportLog(t *testing.T) {
	quota := &stubQuota{}
	svc, conn := newTestService(t, quota)
	tenant := dbtest.MustTenant(t, conn, "shop")

	res, err := svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{
		Name:           "  Bamboo towel ",
		SKUCode:        strPtr("TOWEL-01"),
		Price:          decPtr("12.50"),
		InitialStock:   intPtr(100),
		AlertThreshold: intPtr(10),
		Category:       strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, quota.calls)
	assert.Equal(t, "Bamboo towel", res.SKU.Name)
	assert.Equal(t, "TOWEL-01", res.SKU.SKUCode)
	assert.Nil(t, res.SKU.Category)
	assert.Equal(t, 100, res.Inventory.TotalQuantity)
	assert.Equal(t, 0, res.Inventory.AllocatedQuantity)
	assert.Equal(t, 100, res.Inventory.AvailableQuantity)
	assert.Equal(t, enums.StockStatusNormal, res.SKU.StockStatus)

	var logs []models.InventoryLog
	require.NoError(t, conn.Where("sku_id = ?", res.SKU.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.ChangeTypeImport, logs[0].ChangeType)
	assert.Equal(t, 0, logs[0].BeforeQuantity)
	assert.Equal(t, 100, logs[0].AfterQuantity)
	require.NotNil(t, logs[0].Reason)
	assert.Equal(t, "new product", *logs[0].Reason)

	got, err := svc.GetSKU(context.Background(), tenant.ID, res.SKU.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Bamboo towel", got.ProductName)
}

func TestCreateProductDefaults(t *testing.T) {
	svc, conn := newTestService(t, &stubQuota{})
	tenant := dbtest.MustTenant(t, conn, "shop")

	res, err := svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{
		Name:         "Soap",
		InitialStock: intPtr(-5),
	})
	require.NoError(t, err)
	assert.Equal(t, "SKU-1772440200000", res.SKU.SKUCode)
	assert.Equal(t, 0, res.Inventory.TotalQuantity)
	assert.Equal(t, 10, res.Inventory.AlertThreshold)
	assert.Equal(t, enums.StockStatusOut, res.SKU.StockStatus)

	long := strings.Repeat("x", 80)
	res, err = svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{Name: "Long", SKUCode: &long})
	require.NoError(t, err)
	assert.Len(t, res.SKU.SKUCode, 50)
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	svc, conn := newTestService(t, &stubQuota{})
	tenant := dbtest.MustTenant(t, conn, "shop")

	_, err := svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{Name: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{Name: "A", Price: decPtr("-1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{Name: "A", Cost: decPtr("1.005")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateProductDuplicateCodeRollsBack(t *testing.T) {
	svc, conn := newTestService(t, &stubQuota{})
	tenant := dbtest.MustTenant(t, conn, "shop")

	_, err := svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{Name: "A", SKUCode: strPtr("DUP")})
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{Name: "B", SKUCode: strPtr("DUP")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	var products int64
	require.NoError(t, conn.Model(&models.Product{}).Where("tenant_id = ?", tenant.ID).Count(&products).Error)
	assert.Equal(t, int64(1), products)
}

func TestCreateProductQuotaExceeded(t *testing.T) {
	quota := &stubQuota{err: pkgerrors.New(pkgerrors.CodeQuotaExceeded, "sku limit reached")}
	svc, conn := newTestService(t, quota)
	tenant := dbtest.MustTenant(t, conn, "shop")

	_, err := svc.CreateProduct(context.Background(), tenant.ID, CreateProductInput{Name: "A"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeQuotaExceeded))

	var skus int64
	require.NoError(t, conn.Model(&models.SKU{}).Count(&skus).Error)
	assert.Zero(t, skus)
}

func TestListSKUsFiltersByStockStatus(t *testing.T) {
	svc, conn := newTestService(t, &stubQuota{})
	tenant := dbtest.MustTenant(t, conn, "shop")
	other := dbtest.MustTenant(t, conn, "other")

	dbtest.MustSKU(t, conn, tenant.ID, "OUT-1", 0, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "LOW-1", 5, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "NORMAL-1", 6, 5)
	dbtest.MustSKU(t, conn, other.ID, "LOW-2", 1, 5)

	orphan := models.SKU{TenantID: tenant.ID, ProductID: uuid.New(), SKUCode: "ORPHAN", Name: "orphan", Status: enums.SKUStatusActive}
	require.NoError(t, conn.Create(&orphan).Error)

	cases := map[enums.StockStatus][]string{
		enums.StockStatusOut:    {"ORPHAN", "OUT-1"},
		enums.StockStatusLow:    {"LOW-1"},
		enums.StockStatusNormal: {"NORMAL-1"},
	}
	for status, want := range cases {
		t.Run(status.String(), func(t *testing.T) {
			st := status
			page, err := svc.ListSKUs(context.Background(), ListSKUsInput{
				TenantID:    tenant.ID,
				StockStatus: &st,
				Sort:        enums.SKUSortCode,
				Ascending:   true,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(len(want)), page.Total)
			codes := make([]string, 0, len(page.Items))
			for _, item := range page.Items {
				codes = append(codes, item.SKUCode)
				assert.Equal(t, status, item.StockStatus)
			}
			assert.Equal(t, want, codes)
		})
	}
}

func TestListSKUsSearchSortAndPaging(t *testing.T) {
	svc, conn := newTestService(t, &stubQuota{})
	tenant := dbtest.MustTenant(t, conn, "shop")
	dbtest.MustSKU(t, conn, tenant.ID, "TEA-GREEN", 10, 1)
	dbtest.MustSKU(t, conn, tenant.ID, "TEA-BLACK", 30, 1)
	dbtest.MustSKU(t, conn, tenant.ID, "MUG-1", 20, 1)

	page, err := svc.ListSKUs(context.Background(), ListSKUsInput{
		TenantID: tenant.ID,
		Search:   "tea",
		Sort:     enums.SKUSortStock,
		Page:     pagination.PageParams{Page: 1, PageSize: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "TEA-BLACK", page.Items[0].SKUCode)

	page, err = svc.ListSKUs(context.Background(), ListSKUsInput{
		TenantID: tenant.ID,
		Search:   "tea",
		Sort:     enums.SKUSortStock,
		Page:     pagination.PageParams{Page: 2, PageSize: 1},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "TEA-GREEN", page.Items[0].SKUCode)

	_, err = svc.ListSKUs(context.Background(), ListSKUsInput{TenantID: tenant.ID, Sort: "price"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestArchiveSKU(t *testing.T) {
	svc, conn := newTestService(t, &stubQuota{})
	tenant := dbtest.MustTenant(t, conn, "shop")
	sku := dbtest.MustSKU(t, conn, tenant.ID, "A", 3, 1)

	require.NoError(t, svc.ArchiveSKU(context.Background(), tenant.ID, sku.ID))
	view, err := svc.GetSKU(context.Background(), tenant.ID, sku.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SKUStatusArchived, view.Status)

	active := enums.SKUStatusActive
	page, err := svc.ListSKUs(context.Background(), ListSKUsInput{TenantID: tenant.ID, Status: &active})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	err = svc.ArchiveSKU(context.Background(), tenant.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetSKU(context.Background(), uuid.New(), sku.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
