package catalog

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

func validateMoney(field string, v *decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be >= 0", field)
	}
	if v.Exponent() < -2 && !v.Equal(v.Round(2)) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s supports at most 2 decimal places", field)
	}
	return nil
}
