package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

type Service interface {
	Overview(ctx context.Context, tenantID uuid.UUID) (*Overview, error)
	ReturnTrends(ctx context.Context, tenantID uuid.UUID, days int) ([]ReturnTrend, error)
	Todos(ctx context.Context, tenantID uuid.UUID) (*Todos, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Overview(ctx context.Context, tenantID uuid.UUID) (*Overview, error) {
	skus, err := s.repo.CountActiveSKUs(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count skus")
	}
	totals, err := s.repo.StockTotals(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: stock totals")
	}
	return &Overview{
		TotalSKUs:       skus,
		TotalInventory:  totals.TotalInventory,
		LowStockCount:   totals.LowStockCount,
		OutOfStockCount: totals.OutOfStockCount,
	}, nil
}

// ReturnTrends returns one entry per UTC day, oldest first, ending today.
// The rate is returns over orders; a day with returns but fewer recorded
// orders is capped at 100%.
func (s *service) ReturnTrends(ctx context.Context, tenantID uuid.UUID, days int) ([]ReturnTrend, error) {
	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 1 || days > MaxTrendDays {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "days must be between 1 and %d", MaxTrendDays)
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	returnTimes, err := s.repo.ReturnTimes(ctx, tenantID, start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load returns")
	}
	orderTimes, err := s.repo.OrderTimes(ctx, tenantID, start)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load orders")
	}

	returnsByDay := bucketByDay(returnTimes)
	ordersByDay := bucketByDay(orderTimes)

	out := make([]ReturnTrend, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(trendDateLayout)
		returns, orders := returnsByDay[day], ordersByDay[day]
		out = append(out, ReturnTrend{
			Date:        day,
			ReturnCount: returns,
			OrderCount:  orders,
			ReturnRate:  returnRate(returns, orders),
		})
	}
	return out, nil
}

func bucketByDay(times []time.Time) map[string]int {
	out := make(map[string]int, len(times))
	for _, t := range times {
		out[t.UTC().Format(trendDateLayout)]++
	}
	return out
}

func returnRate(returns, orders int) float64 {
	if returns == 0 {
		return 0
	}
	denominator := max(orders, returns)
	return math.Round(float64(returns)/float64(denominator)*1000) / 10
}

func (s *service) Todos(ctx context.Context, tenantID uuid.UUID) (*Todos, error) {
	low, err := s.repo.LowStock(ctx, tenantID, todoLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: low stock")
	}
	tasks, err := s.repo.FailedSyncs(ctx, tenantID, todoLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: failed syncs")
	}
	pending, err := s.repo.PendingReturns(ctx, tenantID, todoLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: pending returns")
	}

	todos := &Todos{
		LowStock:       low,
		FailedSyncs:    make([]FailedSync, 0, len(tasks)),
		PendingReturns: make([]PendingReturn, 0, len(pending)),
	}
	if todos.LowStock == nil {
		todos.LowStock = []LowStockItem{}
	}
	for _, t := range tasks {
		item := FailedSync{TaskID: t.ID, ChannelID: t.ChannelID, ErrorMessage: t.ErrorMessage, CreatedAt: t.CreatedAt}
		if t.Channel != nil {
			item.ShopName = t.Channel.ShopName
		}
		todos.FailedSyncs = append(todos.FailedSyncs, item)
	}
	for _, r := range pending {
		todos.PendingReturns = append(todos.PendingReturns, PendingReturn{
			ID:           r.ID,
			OrderID:      r.OrderID,
			BuyerName:    r.BuyerName,
			RefundAmount: r.RefundAmount,
			CreatedAt:    r.CreatedAt,
		})
	}
	return todos, nil
}
