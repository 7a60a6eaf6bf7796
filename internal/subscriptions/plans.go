package subscriptions

import (
	"github.com/shopspring/decimal"

	"github.com/doumai/doumai-backend/pkg/enums"
)

// Unlimited marks a limit the plan does not cap.
const Unlimited = -1

type Feature string

const (
	FeatureAutoSync        Feature = "auto_sync"
	FeatureInventoryAlert  Feature = "inventory_alert"
	FeatureReturnDetection Feature = "return_detection"
	FeatureDataExport      Feature = "data_export"
	FeatureAPIAccess       Feature = "api_access"
)

// Plan is one row of the price list.
type Plan struct {
	Type                   enums.PlanType  `json:"type"`
	Name                   string          `json:"name"`
	MonthlyPrice           decimal.Decimal `json:"monthly_price"`
	YearlyPrice            decimal.Decimal `json:"yearly_price"`
	SKULimit               int             `json:"sku_limit"`
	ChannelLimit           int             `json:"channel_limit"`
	MemberLimit            int             `json:"member_limit"`
	MinSyncIntervalMinutes int             `json:"min_sync_interval_minutes"`
	Features               []Feature       `json:"features"`
}

var plans = []Plan{
	{
		Type:         enums.PlanFree,
		Name:         "Free",
		MonthlyPrice: decimal.Zero,
		YearlyPrice:  decimal.Zero,
		SKULimit:     50,
		ChannelLimit: 1,
		MemberLimit:  1,
	},
	{
		Type:                   enums.PlanPro,
		Name:                   "Pro",
		MonthlyPrice:           decimal.NewFromInt(49),
		YearlyPrice:            decimal.NewFromInt(470),
		SKULimit:               500,
		ChannelLimit:           3,
		MemberLimit:            3,
		MinSyncIntervalMinutes: 5,
		Features:               []Feature{FeatureAutoSync, FeatureInventoryAlert, FeatureReturnDetection, FeatureDataExport},
	},
	{
		Type:                   enums.PlanEnterprise,
		Name:                   "Enterprise",
		MonthlyPrice:           decimal.NewFromInt(99),
		YearlyPrice:            decimal.NewFromInt(950),
		SKULimit:               Unlimited,
		ChannelLimit:           Unlimited,
		MemberLimit:            10,
		MinSyncIntervalMinutes: 1,
		Features:               []Feature{FeatureAutoSync, FeatureInventoryAlert, FeatureReturnDetection, FeatureDataExport, FeatureAPIAccess},
	},
}

// Plans returns the price list in display order.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanFor falls back to the free plan for unknown types.
func PlanFor(planType enums.PlanType) Plan {
	for _, p := range plans {
		if p.Type == planType {
			return p
		}
	}
	return plans[0]
}

func (p Plan) Price(cycle enums.BillingCycle) decimal.Decimal {
	if cycle == enums.BillingCycleYearly {
		return p.YearlyPrice
	}
	return p.MonthlyPrice
}

func (p Plan) Has(feature Feature) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

func withinLimit(limit, used, adding int) bool {
	if limit == Unlimited {
		return true
	}
	return used+adding <= limit
}
