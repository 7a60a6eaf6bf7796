package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/pkg/db/dbtest"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

var testNow = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), func() time.Time { return testNow })
	require.NoError(t, err)
	return svc, conn
}

func mustReturn(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, at time.Time, status enums.ReturnStatus) {
	t.Helper()
	require.NoError(t, conn.Create(&models.ReturnRecord{
		TenantID:   tenantID,
		OrderID:    "ORD-" + uuid.NewString()[:8],
		BuyerID:    "buyer",
		Platform:   enums.PlatformPinduoduo,
		Quantity:   1,
		ReturnType: enums.ReturnTypeRefundOnly,
		RiskLevel:  enums.RiskLevelNormal,
		Status:     status,
		CreatedAt:  at,
	}).Error)
}

func mustOrderDeduct(t *testing.T, conn *gorm.DB, tenantID, skuID uuid.UUID, at time.Time) {
	t.Helper()
	require.NoError(t, conn.Create(&models.InventoryLog{
		TenantID:       tenantID,
		SKUID:          skuID,
		ChangeType:     enums.ChangeTypeOrderDeduct,
		ChangeQuantity: -1,
		BeforeQuantity: 10,
		AfterQuantity:  9,
		CreatedAt:      at,
	}).Error)
}

func TestOverviewUsesStockStatusBoundaries(t *testing.T) {
	svc, conn := newTestService(t)
	tenant := dbtest.MustTenant(t, conn, "acme")
	dbtest.MustSKU(t, conn, tenant.ID, "OUT", 0, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "LOW-1", 3, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "LOW-2", 5, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "OK", 20, 5)
	archived := dbtest.MustSKU(t, conn, tenant.ID, "OLD", 0, 5)
	require.NoError(t, conn.Model(&models.SKU{}).Where("id = ?", archived.ID).
		UpdateColumn("status", enums.SKUStatusArchived).Error)

	other := dbtest.MustTenant(t, conn, "other")
	dbtest.MustSKU(t, conn, other.ID, "X", 0, 5)

	got, err := svc.Overview(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, &Overview{TotalSKUs: 4, TotalInventory: 28, LowStockCount: 2, OutOfStockCount: 1}, got)

	empty, err := svc.Overview(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, &Overview{}, empty)
}

func TestReturnTrends(t *testing.T) {
	svc, conn := newTestService(t)
	tenant := dbtest.MustTenant(t, conn, "acme")
	sku := dbtest.MustSKU(t, conn, tenant.ID, "A-1", 10, 2)

	today := testNow.Add(-2 * time.Hour)
	yesterday := testNow.AddDate(0, 0, -1)
	mustReturn(t, conn, tenant.ID, today, enums.ReturnStatusPending)
	mustReturn(t, conn, tenant.ID, today, enums.ReturnStatusCompleted)
	mustReturn(t, conn, tenant.ID, yesterday, enums.ReturnStatusPending)
	mustReturn(t, conn, tenant.ID, testNow.AddDate(0, 0, -10), enums.ReturnStatusPending)
	for i := 0; i < 4; i++ {
		mustOrderDeduct(t, conn, tenant.ID, sku.ID, today)
	}

	trends, err := svc.ReturnTrends(context.Background(), tenant.ID, 7)
	require.NoError(t, err)
	require.Len(t, trends, 7)

	assert.Equal(t, "2026-06-04", trends[0].Date)
	assert.Equal(t, ReturnTrend{Date: "2026-06-10", ReturnCount: 2, OrderCount: 4, ReturnRate: 50}, trends[6])
	assert.Equal(t, ReturnTrend{Date: "2026-06-09", ReturnCount: 1, ReturnRate: 100}, trends[5])
	for _, tr := range trends[:5] {
		assert.Zero(t, tr.ReturnCount, tr.Date)
	}

	all, err := svc.ReturnTrends(context.Background(), tenant.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, DefaultTrendDays)

	_, err = svc.ReturnTrends(context.Background(), tenant.ID, MaxTrendDays+1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReturnRate(t *testing.T) {
	cases := []struct {
		returns, orders int
		want            float64
	}{
		{0, 0, 0},
		{0, 12, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 0, 100},
		{5, 2, 100},
	}
	for _, tc := range cases {
		if got := returnRate(tc.returns, tc.orders); got != tc.want {
			t.Fatalf("returnRate(%d, %d) = %v, want %v", tc.returns, tc.orders, got, tc.want)
		}
	}
}

func TestTodos(t *testing.T) {
	svc, conn := newTestService(t)
	tenant := dbtest.MustTenant(t, conn, "acme")
	dbtest.MustSKU(t, conn, tenant.ID, "LOW-B", 4, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "LOW-A", 1, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "OUT", 0, 5)
	dbtest.MustSKU(t, conn, tenant.ID, "OK", 30, 5)

	ch := dbtest.MustChannel(t, conn, tenant.ID, enums.PlatformPinduoduo, true)
	msg := "retry limit reached"
	require.NoError(t, conn.Create(&models.SyncTask{
		TenantID:     tenant.ID,
		ChannelID:    ch.ID,
		Type:         enums.SyncTaskTypeScheduled,
		Status:       enums.SyncTaskStatusFailed,
		MaxRetries:   3,
		ErrorMessage: &msg,
	}).Error)
	require.NoError(t, conn.Create(&models.SyncTask{
		TenantID:   tenant.ID,
		ChannelID:  ch.ID,
		Type:       enums.SyncTaskTypeManual,
		Status:     enums.SyncTaskStatusCompleted,
		MaxRetries: 3,
	}).Error)

	for i := 0; i < 7; i++ {
		mustReturn(t, conn, tenant.ID, testNow.Add(-time.Duration(i)*time.Minute), enums.ReturnStatusPending)
	}
	mustReturn(t, conn, tenant.ID, testNow, enums.ReturnStatusApproved)

	todos, err := svc.Todos(context.Background(), tenant.ID)
	require.NoError(t, err)

	require.Len(t, todos.LowStock, 2)
	assert.Equal(t, "LOW-A", todos.LowStock[0].SKUCode)
	assert.Equal(t, 1, todos.LowStock[0].TotalQuantity)
	assert.Equal(t, "LOW-B", todos.LowStock[1].SKUCode)

	require.Len(t, todos.FailedSyncs, 1)
	assert.Equal(t, ch.ShopName, todos.FailedSyncs[0].ShopName)
	require.NotNil(t, todos.FailedSyncs[0].ErrorMessage)

	assert.Len(t, todos.PendingReturns, todoLimit)
}
