package returns

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/dbtest"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/pagination"
)

type stubGate struct {
	err error
}

func (g *stubGate) RequireFeature(context.Context, uuid.UUID, subscriptions.Feature) error { return g.err }

func newTestService(t *testing.T, gate *stubGate) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	ledger, err := inventory.NewService(inventory.NewRepository(conn), db.Wrap(conn), logger.Nop(), inventory.Options{})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		TxRunner:  db.Wrap(conn),
		Inventory: ledger,
		Features:  gate,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return svc, conn
}

func returnInput(tenantID uuid.UUID, buyer string) RecordReturnInput {
	return RecordReturnInput{
		TenantID:     tenantID,
		OrderID:      "PDD-" + uuid.NewString()[:8],
		BuyerID:      buyer,
		Platform:     enums.PlatformPinduoduo,
		Quantity:     1,
		RefundAmount: decimal.RequireFromString("10.50"),
		ReturnType:   enums.ReturnTypeRefundOnly,
	}
}

func TestRecordReturnRestoresStock(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")
	ch := dbtest.MustChannel(t, conn, tenant.ID, enums.PlatformPinduoduo, true)
	sku := dbtest.MustSKU(t, conn, tenant.ID, "R-1", 5, 2)

	input := returnInput(tenant.ID, "buyer_zhang")
	input.ChannelID = &ch.ID
	input.Platform = ""
	input.SKUID = &sku.ID
	input.Quantity = 2
	input.ReturnType = enums.ReturnTypeReturnAndRefund

	res, err := svc.RecordReturn(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, res.Return.Restored)
	assert.Equal(t, enums.PlatformPinduoduo, res.Return.Platform)
	assert.Equal(t, enums.ReturnStatusPending, res.Return.Status)
	require.NotNil(t, res.Inventory)
	assert.Equal(t, 7, res.Inventory.TotalQuantity)

	inv := dbtest.LoadInventory(t, conn, sku.ID)
	assert.Equal(t, 7, inv.TotalQuantity)
	assert.Equal(t, 7, inv.AvailableQuantity)

	var logs []models.InventoryLog
	require.NoError(t, conn.Where("sku_id = ?", sku.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.ChangeTypeReturnRestore, logs[0].ChangeType)
	assert.Equal(t, 5, logs[0].BeforeQuantity)
	assert.Equal(t, 7, logs[0].AfterQuantity)
	require.NotNil(t, logs[0].SourceOrderID)
	assert.Equal(t, input.OrderID, *logs[0].SourceOrderID)
}

func TestRecordReturnWithoutRestore(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")
	auto := dbtest.MustChannel(t, conn, tenant.ID, enums.PlatformPinduoduo, true)
	manual := dbtest.MustChannel(t, conn, tenant.ID, enums.PlatformWechatMiniprogram, false)
	sku := dbtest.MustSKU(t, conn, tenant.ID, "R-1", 5, 2)

	cases := []struct {
		name    string
		channel uuid.UUID
		kind    enums.ReturnType
	}{
		{"refund only keeps goods with buyer", auto.ID, enums.ReturnTypeRefundOnly},
		{"channel without auto restore", manual.ID, enums.ReturnTypeReturnAndRefund},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := returnInput(tenant.ID, "buyer_"+tc.name)
			input.ChannelID = &tc.channel
			input.Platform = ""
			input.SKUID = &sku.ID
			input.ReturnType = tc.kind

			res, err := svc.RecordReturn(context.Background(), input)
			require.NoError(t, err)
			assert.False(t, res.Return.Restored)
			assert.Nil(t, res.Inventory)
		})
	}

	assert.Equal(t, 5, dbtest.LoadInventory(t, conn, sku.ID).TotalQuantity)
	assert.Zero(t, dbtest.CountLogs(t, conn, sku.ID))
}

func TestRecordReturnRollsBackWhenRestoreFails(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")
	ch := dbtest.MustChannel(t, conn, tenant.ID, enums.PlatformPinduoduo, true)
	missing := uuid.New()

	input := returnInput(tenant.ID, "buyer_zhang")
	input.ChannelID = &ch.ID
	input.SKUID = &missing
	input.ReturnType = enums.ReturnTypeReturnAndRefund

	_, err := svc.RecordReturn(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	var n int64
	require.NoError(t, conn.Model(&models.ReturnRecord{}).Count(&n).Error)
	assert.Zero(t, n, "return record must roll back with the failed restore")
}

func TestRecordReturnRiskEscalates(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")

	want := []enums.RiskLevel{
		enums.RiskLevelNormal,
		enums.RiskLevelNormal,
		enums.RiskLevelMedium,
		enums.RiskLevelMedium,
		enums.RiskLevelHigh,
	}
	for i, level := range want {
		res, err := svc.RecordReturn(context.Background(), returnInput(tenant.ID, "buyer_li"))
		require.NoError(t, err)
		assert.Equal(t, level, res.Return.RiskLevel, "return #%d", i+1)
	}

	other := dbtest.MustTenant(t, conn, "other")
	res, err := svc.RecordReturn(context.Background(), returnInput(other.ID, "buyer_li"))
	require.NoError(t, err)
	assert.Equal(t, enums.RiskLevelNormal, res.Return.RiskLevel, "counts are per tenant")
}

func TestRecordReturnBlacklistedBuyerIsHighRisk(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")

	_, err := svc.AddToBlacklist(context.Background(), BlacklistInput{
		TenantID: tenant.ID,
		BuyerID:  "buyer_wang",
		Platform: enums.PlatformPinduoduo,
	})
	require.NoError(t, err)

	res, err := svc.RecordReturn(context.Background(), returnInput(tenant.ID, "buyer_wang"))
	require.NoError(t, err)
	assert.Equal(t, enums.RiskLevelHigh, res.Return.RiskLevel)
}

func TestRecordReturnValidation(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")

	cases := []struct {
		name   string
		mutate func(*RecordReturnInput)
		code   pkgerrors.Code
	}{
		{"blank order", func(in *RecordReturnInput) { in.OrderID = " " }, pkgerrors.CodeValidation},
		{"blank buyer", func(in *RecordReturnInput) { in.BuyerID = "" }, pkgerrors.CodeValidation},
		{"negative quantity", func(in *RecordReturnInput) { in.Quantity = -1 }, pkgerrors.CodeValidation},
		{"negative refund", func(in *RecordReturnInput) { in.RefundAmount = decimal.NewFromInt(-1) }, pkgerrors.CodeValidation},
		{"fractional cents", func(in *RecordReturnInput) { in.RefundAmount = decimal.RequireFromString("1.005") }, pkgerrors.CodeValidation},
		{"unknown type", func(in *RecordReturnInput) { in.ReturnType = "exchange" }, pkgerrors.CodeValidation},
		{"no platform", func(in *RecordReturnInput) { in.Platform = "" }, pkgerrors.CodeValidation},
		{"unknown channel", func(in *RecordReturnInput) {
			id := uuid.New()
			in.ChannelID = &id
		}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := returnInput(tenant.ID, "buyer")
			tc.mutate(&input)
			_, err := svc.RecordReturn(context.Background(), input)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestRiskyBuyers(t *testing.T) {
	gate := &stubGate{}
	svc, conn := newTestService(t, gate)
	tenant := dbtest.MustTenant(t, conn, "acme")

	record := func(buyer string, n int) {
		for i := 0; i < n; i++ {
			_, err := svc.RecordReturn(context.Background(), returnInput(tenant.ID, buyer))
			require.NoError(t, err)
		}
	}
	record("buyer_zhang", 4)
	record("buyer_li", 2)
	record("buyer_wang", 3)
	_, err := svc.AddToBlacklist(context.Background(), BlacklistInput{TenantID: tenant.ID, BuyerID: "buyer_wang", Platform: enums.PlatformPinduoduo})
	require.NoError(t, err)

	buyers, err := svc.RiskyBuyers(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, buyers, 2)

	assert.Equal(t, "buyer_zhang", buyers[0].BuyerID)
	assert.Equal(t, 4, buyers[0].ReturnCount)
	assert.True(t, decimal.NewFromInt(42).Equal(buyers[0].TotalRefund), "got %s", buyers[0].TotalRefund)
	assert.False(t, buyers[0].Blacklisted)
	assert.Equal(t, enums.RiskLevelMedium, buyers[0].RiskLevel)
	assert.False(t, buyers[0].LastReturnAt.IsZero())

	assert.Equal(t, "buyer_wang", buyers[1].BuyerID)
	assert.True(t, buyers[1].Blacklisted)
	assert.Equal(t, enums.RiskLevelHigh, buyers[1].RiskLevel)

	gate.err = pkgerrors.New(pkgerrors.CodePlanRestricted, "return_detection not in plan")
	_, err = svc.RiskyBuyers(context.Background(), tenant.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePlanRestricted))
}

func TestBlacklistUpsertAndRemove(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")
	_, err := svc.RecordReturn(context.Background(), returnInput(tenant.ID, "buyer_zhao"))
	require.NoError(t, err)

	reason := "frequent returns"
	first, err := svc.AddToBlacklist(context.Background(), BlacklistInput{
		TenantID: tenant.ID,
		BuyerID:  " buyer_zhao ",
		Platform: enums.PlatformPinduoduo,
		Reason:   &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, "buyer_zhao", first.BuyerID)
	assert.Equal(t, 1, first.ReturnCount)
	assert.True(t, decimal.RequireFromString("10.5").Equal(first.ReturnAmount))

	require.NoError(t, svc.RemoveFromBlacklist(context.Background(), tenant.ID, first.ID))
	list, err := svc.Blacklist(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	again, err := svc.AddToBlacklist(context.Background(), BlacklistInput{TenantID: tenant.ID, BuyerID: "buyer_zhao", Platform: enums.PlatformPinduoduo})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "re-adding reactivates the same row")
	assert.Equal(t, enums.BlacklistStatusActive, again.Status)

	list, err = svc.Blacklist(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var rows int64
	require.NoError(t, conn.Model(&models.BuyerBlacklist{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	err = svc.RemoveFromBlacklist(context.Background(), tenant.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	other := dbtest.MustTenant(t, conn, "other")
	err = svc.RemoveFromBlacklist(context.Background(), other.ID, first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListReturnsAndUpdateStatus(t *testing.T) {
	svc, conn := newTestService(t, &stubGate{})
	tenant := dbtest.MustTenant(t, conn, "acme")
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		res, err := svc.RecordReturn(context.Background(), returnInput(tenant.ID, "buyer_sun"))
		require.NoError(t, err)
		ids = append(ids, res.Return.ID)
	}

	require.NoError(t, svc.UpdateStatus(context.Background(), tenant.ID, ids[0], enums.ReturnStatusApproved))
	assert.True(t, pkgerrors.IsCode(svc.UpdateStatus(context.Background(), tenant.ID, ids[0], "lost"), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(svc.UpdateStatus(context.Background(), tenant.ID, uuid.New(), enums.ReturnStatusRejected), pkgerrors.CodeNotFound))

	pending := enums.ReturnStatusPending
	page, err := svc.ListReturns(context.Background(), ListReturnsInput{TenantID: tenant.ID, Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)

	all, err := svc.ListReturns(context.Background(), ListReturnsInput{TenantID: tenant.ID, Page: pagination.PageParams{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Len(t, all.Items, 1)
	assert.Equal(t, 2, all.Page)
}

func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		count       int
		blacklisted bool
		want        enums.RiskLevel
	}{
		{0, false, enums.RiskLevelNormal},
		{2, false, enums.RiskLevelNormal},
		{3, false, enums.RiskLevelMedium},
		{4, false, enums.RiskLevelMedium},
		{5, false, enums.RiskLevelHigh},
		{1, true, enums.RiskLevelHigh},
	}
	for _, tc := range cases {
		if got := RiskLevelFor(tc.count, tc.blacklisted); got != tc.want {
			t.Fatalf("RiskLevelFor(%d, %v) = %s, want %s", tc.count, tc.blacklisted, got, tc.want)
		}
	}
}
