package allocation

import (
	"github.com/shopspring/decimal"
	"github.com/vidinfra/revalloc/internal/types"
)

// Round rounds an amount to the given number of minor-unit decimal places
// using the policy rounding mode. HALF_UP rounds half away from zero, BANKERS
// rounds half to even.
func Round(amount decimal.Decimal, places int32, mode types.RoundingMode) decimal.Decimal {
	switch mode {
	case types.RoundingModeBankers:
		return amount.RoundBank(places)
	default:
		return amount.Round(places)
	}
}
