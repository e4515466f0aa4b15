package stats

import (
	"github.com/shopspring/decimal"
)

// VolatilityWarningThreshold is the spread percentage above which a
// calculation is flagged for manual review.
var VolatilityWarningThreshold = decimal.NewFromInt(30)

// Volatility returns the min/max spread of a value list as a percentage of
// the minimum: (max-min)/min*100, rounded to 2 decimals. Lists with fewer
// than 2 values, or a non-positive minimum, report zero.
func Volatility(values []decimal.Decimal) decimal.Decimal {
	if len(values) < 2 {
		return decimal.Zero
	}

	sorted := sortedCopy(values)
	min := sorted[0]
	max := sorted[len(sorted)-1]

	if min.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	hundred := decimal.NewFromInt(100)
	return max.Sub(min).Div(min).Mul(hundred).Round(2)
}
