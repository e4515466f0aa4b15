// Package stats provides the robust-statistics core for rate and price
// aggregation. All functions are pure and deterministic: identical inputs
// always produce identical outputs, with no time-dependent tie-breaks.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

// DefaultTrimFraction is the fraction trimmed from each end by the
// trimmed mean when no explicit fraction is given.
const DefaultTrimFraction = 0.10

// Result reports an aggregated value plus the diagnostics needed for exact
// provenance: which inputs were used and which were excluded, even when
// nothing was excluded.
type Result struct {
	Aggregated      decimal.Decimal   `json:"aggregated"`
	Min             decimal.Decimal   `json:"min"`
	Max             decimal.Decimal   `json:"max"`
	Count           int               `json:"count"`
	Method          types.Method      `json:"method"`
	Used            []decimal.Decimal `json:"used"`
	Excluded        []decimal.Decimal `json:"excluded"`
	TrimFraction    float64           `json:"trim_fraction,omitempty"`
	TrimmedEachSide int               `json:"trimmed_each_side,omitempty"`

	// FallbackNote is set when the trimmed mean fell back to the median
	// for a small sample. It is a note, not an error.
	FallbackNote string `json:"note,omitempty"`
}

// Option configures an aggregation
type Option func(*options)

type options struct {
	trimFraction float64
}

// WithTrimFraction overrides the trimmed-mean trim fraction
func WithTrimFraction(f float64) Option {
	return func(o *options) {
		o.trimFraction = f
	}
}

// Aggregate computes an aggregated value from a non-empty list of decimals
// using the given method. The input slice is not modified.
func Aggregate(values []decimal.Decimal, method types.Method, opts ...Option) (*Result, error) {
	if len(values) == 0 {
		return nil, errors.InvalidInput("value list must not be empty")
	}

	o := options{trimFraction: DefaultTrimFraction}
	for _, opt := range opts {
		opt(&o)
	}

	sorted := sortedCopy(values)
	count := len(sorted)
	min := sorted[0]
	max := sorted[count-1]

	switch method {
	case types.MethodSingle:
		return &Result{
			Aggregated: sorted[0],
			Min:        min,
			Max:        max,
			Count:      count,
			Method:     types.MethodSingle,
			Used:       sorted,
			Excluded:   []decimal.Decimal{},
		}, nil
	case types.MethodMean:
		return computeMean(sorted, min, max), nil
	case types.MethodMedian:
		return computeMedian(sorted, min, max), nil
	case types.MethodTrimmedMean:
		return computeTrimmedMean(sorted, min, max, o.trimFraction), nil
	default:
		return nil, errors.Newf(errors.TypeInvalidInput, "unknown aggregation method: %s", method)
	}
}

func computeMean(sorted []decimal.Decimal, min, max decimal.Decimal) *Result {
	return &Result{
		Aggregated: meanOf(sorted).Round(2),
		Min:        min,
		Max:        max,
		Count:      len(sorted),
		Method:     types.MethodMean,
		Used:       sorted,
		Excluded:   []decimal.Decimal{},
	}
}

func computeMedian(sorted []decimal.Decimal, min, max decimal.Decimal) *Result {
	return &Result{
		Aggregated: medianOfSorted(sorted).Round(2),
		Min:        min,
		Max:        max,
		Count:      len(sorted),
		Method:     types.MethodMedian,
		Used:       sorted,
		Excluded:   []decimal.Decimal{},
	}
}

// computeTrimmedMean drops trimCount values from each end and averages the
// remainder. Samples of fewer than 3 values fall back to the median with a
// note recorded on the result.
func computeTrimmedMean(sorted []decimal.Decimal, min, max decimal.Decimal, trimFraction float64) *Result {
	count := len(sorted)

	if count < 3 {
		result := computeMedian(sorted, min, max)
		result.Method = types.MethodTrimmedMean
		result.TrimFraction = trimFraction
		result.FallbackNote = fmt.Sprintf("n=%d < 3, fallback to median", count)
		return result
	}

	trimCount := int(math.Floor(float64(count) * trimFraction))
	if count-2*trimCount < 1 {
		trimCount = (count - 1) / 2
	}

	used := sorted[trimCount : count-trimCount]
	excluded := make([]decimal.Decimal, 0, 2*trimCount)
	excluded = append(excluded, sorted[:trimCount]...)
	excluded = append(excluded, sorted[count-trimCount:]...)

	return &Result{
		Aggregated:      meanOf(used).Round(2),
		Min:             min,
		Max:             max,
		Count:           count,
		Method:          types.MethodTrimmedMean,
		Used:            used,
		Excluded:        excluded,
		TrimFraction:    trimFraction,
		TrimmedEachSide: trimCount,
	}
}

// Median returns the unrounded median of a value list. Zero for an empty
// list.
func Median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return medianOfSorted(sortedCopy(values))
}

func medianOfSorted(sorted []decimal.Decimal) decimal.Decimal {
	count := len(sorted)
	middle := count / 2
	if count%2 == 0 {
		return sorted[middle-1].Add(sorted[middle]).Div(decimal.NewFromInt(2))
	}
	return sorted[middle]
}

func meanOf(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

func sortedCopy(values []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})
	return sorted
}
