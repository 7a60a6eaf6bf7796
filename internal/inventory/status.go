package inventory

import (
	"errors"
	"math"

	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
)

// ComputeStockStatus classifies a row as out, low or normal. A total equal
// to the alert threshold counts as low.
func ComputeStockStatus(inv models.Inventory) enums.StockStatus {
	return stockStatus(inv.TotalQuantity, inv.AlertThreshold)
}

func stockStatus(total, threshold int) enums.StockStatus {
	switch {
	case total <= 0:
		return enums.StockStatusOut
	case total <= threshold:
		return enums.StockStatusLow
	default:
		return enums.StockStatusNormal
	}
}

// MaxQuantity bounds every stored total and every requested change. It
// matches the integer columns of the inventory tables.
const MaxQuantity = math.MaxInt32

var errQuantityOutOfRange = errors.New("quantity out of range")

// nextTotal applies changeType to current. The second result reports whether
// an order deduction was clamped at zero.
func nextTotal(changeType enums.ChangeType, current, quantity int) (int, bool, error) {
	if quantity > MaxQuantity || quantity < -MaxQuantity {
		return current, false, errQuantityOutOfRange
	}
	magnitude := abs(quantity)
	switch changeType {
	case enums.ChangeTypeManualAdjust:
		return quantity, false, nil
	case enums.ChangeTypeOrderDeduct:
		if magnitude > current {
			return 0, true, nil
		}
		return current - magnitude, false, nil
	default:
		if magnitude > MaxQuantity-current {
			return current, false, errQuantityOutOfRange
		}
		return current + magnitude, false, nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
