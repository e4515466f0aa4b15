// Package ratemodel transforms an aggregated base rate into a final labor
// or contractor rate via a fixed economic formula with configurable
// parameters and rounding.
//
// Contractor formula:
//
//	contrib_rate      = base_rate * employer_contrib_pct/100
//	loaded_labor_rate = base_rate + contrib_rate
//	utilization_k     = base_hours_month / billable_hours_month
//	cost_rate         = loaded_labor_rate * utilization_k
//	profit_amount     = cost_rate * profit_pct/100
//	contractor_rate   = cost_rate + profit_amount
//	final_rate        = round(contractor_rate, rounding_mode)
package ratemodel

import (
	"github.com/shopspring/decimal"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

// Result carries the final rate plus the step-by-step breakdown the formula
// is re-derivable from.
type Result struct {
	FinalRate decimal.Decimal      `json:"final_rate"`
	Breakdown types.ModelBreakdown `json:"breakdown"`
}

// Calculate applies the rate formation model to a positive base rate.
// Unset contractor parameters are substituted with defaults; an absent
// billable hours value takes the default, while an explicit non-positive
// one is substituted with the base hours value.
func Calculate(baseRate decimal.Decimal, params types.ModelParams) (*Result, error) {
	if baseRate.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Newf(errors.TypeInvalidInput, "base rate must be positive, got %s", baseRate)
	}

	model := params.RateModel
	if model == "" {
		model = types.ModelLabor
	}
	mode := params.RoundingMode
	if mode == "" {
		mode = types.RoundingNone
	}

	if model == types.ModelContractor {
		return calculateContractor(baseRate, params, mode), nil
	}
	return calculateLabor(baseRate, mode), nil
}

func calculateLabor(baseRate decimal.Decimal, mode types.RoundingMode) *Result {
	finalRate := applyRounding(baseRate, mode)
	return &Result{
		FinalRate: finalRate,
		Breakdown: types.ModelBreakdown{
			RateModel:    types.ModelLabor,
			BaseRate:     baseRate.Round(2),
			RoundingMode: mode,
			FinalRate:    finalRate,
		},
	}
}

func calculateContractor(baseRate decimal.Decimal, params types.ModelParams, mode types.RoundingMode) *Result {
	defaults := types.DefaultParams(types.ModelContractor)

	contribPct := params.EmployerContribPct
	if contribPct.IsZero() {
		contribPct = defaults.EmployerContribPct
	}
	baseHours := params.BaseHoursMonth
	if baseHours <= 0 {
		baseHours = defaults.BaseHoursMonth
	}
	var billableHours int
	switch {
	case params.BillableHoursMonth == nil:
		billableHours = *defaults.BillableHoursMonth
	case *params.BillableHoursMonth <= 0:
		// Explicitly disabled utilization load: bill every base hour
		billableHours = baseHours
	default:
		billableHours = *params.BillableHoursMonth
	}
	profitPct := params.ProfitPct
	if profitPct.IsZero() {
		profitPct = defaults.ProfitPct
	}

	hundred := decimal.NewFromInt(100)

	contribRate := baseRate.Mul(contribPct.Div(hundred))
	loadedLaborRate := baseRate.Add(contribRate)

	utilizationK := decimal.NewFromInt(int64(baseHours)).Div(decimal.NewFromInt(int64(billableHours)))
	costRate := loadedLaborRate.Mul(utilizationK)

	profitAmount := costRate.Mul(profitPct.Div(hundred))
	contractorRate := costRate.Add(profitAmount)

	finalRate := applyRounding(contractorRate, mode)

	return &Result{
		FinalRate: finalRate,
		Breakdown: types.ModelBreakdown{
			RateModel:    types.ModelContractor,
			BaseRate:     baseRate.Round(2),
			RoundingMode: mode,
			FinalRate:    finalRate,
			Contractor: &types.ContractorBreakdown{
				EmployerContribPct: contribPct,
				ContribRate:        contribRate.Round(2),
				LoadedLaborRate:    loadedLaborRate.Round(2),
				BaseHoursMonth:     baseHours,
				BillableHoursMonth: billableHours,
				UtilizationK:       utilizationK.Round(4),
				CostRate:           costRate.Round(2),
				ProfitPct:          profitPct,
				ProfitAmount:       profitAmount.Round(2),
				ContractorRate:     contractorRate.Round(2),
			},
		},
	}
}

// applyRounding rounds a rate per the configured mode, round-half-up.
func applyRounding(rate decimal.Decimal, mode types.RoundingMode) decimal.Decimal {
	switch mode {
	case types.RoundingInt:
		return rate.Round(0)
	case types.RoundingTens:
		ten := decimal.NewFromInt(10)
		return rate.Div(ten).Round(0).Mul(ten)
	case types.RoundingHundreds:
		hundred := decimal.NewFromInt(100)
		return rate.Div(hundred).Round(0).Mul(hundred)
	default:
		return rate.Round(2)
	}
}
