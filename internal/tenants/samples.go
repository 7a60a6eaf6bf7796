package tenants

import (
	"github.com/shopspring/decimal"

	"github.com/doumai/doumai-backend/pkg/enums"
)

type sampleProduct struct {
	Name     string
	Category string
	SKUCode  string
	Price    string
	Cost     string
	Stock    int
}

var sampleProducts = []sampleProduct{
	{Name: "陶瓷马克杯", Category: "杯壶", SKUCode: "MKB-001", Price: "29.90", Cost: "12.00", Stock: 120},
	{Name: "竹纤维毛巾", Category: "家纺", SKUCode: "ZXW-002", Price: "19.90", Cost: "6.50", Stock: 86},
	{Name: "收纳盒三件套", Category: "收纳", SKUCode: "SNH-003", Price: "39.90", Cost: "15.00", Stock: 64},
	{Name: "不锈钢保温杯", Category: "杯壶", SKUCode: "BWB-004", Price: "59.90", Cost: "22.00", Stock: 150},
	{Name: "硅胶厨房铲套装", Category: "厨具", SKUCode: "CFT-005", Price: "35.00", Cost: "13.00", Stock: 95},
}

type sampleChannel struct {
	Platform enums.Platform
	ShopName string
	ShopID   string
	SyncMode enums.SyncMode
	DeductOn enums.DeductOn
}

var sampleChannels = []sampleChannel{
	{Platform: enums.PlatformPinduoduo, ShopName: "我的拼多多店铺", ShopID: "pdd_demo", SyncMode: enums.SyncModeRealtime, DeductOn: enums.DeductOnPayment},
	{Platform: enums.PlatformWechatMiniprogram, ShopName: "我的微信小店", ShopID: "wx_demo", SyncMode: enums.SyncModeScheduled, DeductOn: enums.DeductOnOrder},
}

func (p sampleProduct) price() decimal.Decimal { return decimal.RequireFromString(p.Price) }

func (p sampleProduct) cost() decimal.Decimal { return decimal.RequireFromString(p.Cost) }
