package stats

import (
	"fmt"

	"github.com/shopspring/decimal"

	"rate-engine/core/types"
)

// OutlierThreshold is the ratio to the median beyond which a value is
// dropped. Deliberately a cheap, explainable heuristic rather than a formal
// statistical test: a reader of the justification can verify "this value was
// 6.94x the median, so it was dropped" without statistical background.
var OutlierThreshold = decimal.NewFromInt(3)

// RemoveOutliers iteratively removes extreme values relative to the median
// of the remaining set. Lists of 2 or fewer values are returned unchanged.
// Each removed value is reported with the ratio that condemned it.
// Termination is guaranteed: every step strictly shrinks the set and the
// len<=2 base case always halts it.
func RemoveOutliers(rates []decimal.Decimal) ([]decimal.Decimal, []types.ExcludedRate) {
	kept := make([]decimal.Decimal, len(rates))
	copy(kept, rates)
	var excluded []types.ExcludedRate

	for len(kept) > 2 {
		sorted := sortedCopy(kept)
		min := sorted[0]
		max := sorted[len(sorted)-1]
		median := medianOfSorted(sorted)

		if median.IsZero() {
			break
		}

		switch {
		case max.GreaterThan(median.Mul(OutlierThreshold)):
			filtered := removeAll(kept, max)
			if len(filtered) < 1 {
				return kept, excluded
			}
			excluded = append(excluded, types.ExcludedRate{
				Value:  max,
				Reason: ratioReason(max, median),
			})
			kept = filtered
		case min.LessThan(median.Div(OutlierThreshold)):
			filtered := removeAll(kept, min)
			if len(filtered) < 1 {
				return kept, excluded
			}
			excluded = append(excluded, types.ExcludedRate{
				Value:  min,
				Reason: ratioReason(min, median),
			})
			kept = filtered
		default:
			return kept, excluded
		}
	}

	return kept, excluded
}

func removeAll(values []decimal.Decimal, target decimal.Decimal) []decimal.Decimal {
	filtered := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if !v.Equal(target) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func ratioReason(value, median decimal.Decimal) string {
	return fmt.Sprintf("%sx median", value.Div(median).Round(2))
}
