// Package dbtest opens throwaway SQLite databases carrying the full gorm
// schema, for repository and service tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

// Open returns an isolated in-memory database migrated with every model.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:doumai_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Product{},
		&models.SKU{},
		&models.Inventory{},
		&models.InventoryLog{},
		&models.Channel{},
		&models.SyncTask{},
		&models.ReturnRecord{},
		&models.BuyerBlacklist{},
		&models.Subscription{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

func MustTenant(t *testing.T, conn *gorm.DB, name string) models.Tenant {
	t.Helper()
	tenant := models.Tenant{Name: name, Status: enums.TenantStatusActive}
	if err := conn.Create(&tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tenant
}

// MustSKU creates a product, an active SKU and its inventory row. It writes
// no ledger log so tests can count logs from zero.
func MustSKU(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, code string, total, threshold int) models.SKU {
	t.Helper()
	product := models.Product{TenantID: tenantID, Name: "Product " + code, Status: enums.ProductStatusActive}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	price := decimal.NewFromInt(10)
	sku := models.SKU{
		TenantID:  tenantID,
		ProductID: product.ID,
		SKUCode:   code,
		Name:      "SKU " + code,
		Price:     &price,
		Status:    enums.SKUStatusActive,
	}
	if err := conn.Create(&sku).Error; err != nil {
		t.Fatalf("seed sku: %v", err)
	}
	inv := models.Inventory{
		SKUID:             sku.ID,
		TenantID:          tenantID,
		TotalQuantity:     total,
		AvailableQuantity: total,
		AlertThreshold:    threshold,
	}
	if err := conn.Create(&inv).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return sku
}

func MustChannel(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, platform enums.Platform, autoRestore bool) models.Channel {
	t.Helper()
	ch := models.Channel{
		TenantID:            tenantID,
		Platform:            platform,
		ShopName:            "shop-" + platform.String(),
		SyncMode:            enums.SyncModeRealtime,
		SyncIntervalMinutes: 5,
		DeductOn:            enums.DeductOnPayment,
		ReturnAutoRestore:   autoRestore,
		Status:              enums.ChannelStatusConnected,
	}
	if err := conn.Create(&ch).Error; err != nil {
		t.Fatalf("seed channel: %v", err)
	}
	return ch
}

func CountLogs(t *testing.T, conn *gorm.DB, skuID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(&models.InventoryLog{}).Where("sku_id = ?", skuID).Count(&n).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}

func LoadInventory(t *testing.T, conn *gorm.DB, skuID uuid.UUID) models.Inventory {
	t.Helper()
	var inv models.Inventory
	if err := conn.Where("sku_id = ?", skuID).Take(&inv).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return inv
}
