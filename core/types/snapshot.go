package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModelParams configures the rate formation model for a profile.
// Contractor fields are ignored for the labor model.
//
// BillableHoursMonth is a pointer so an absent value (nil, meaning "use the
// default") is distinguishable from an explicit non-positive value (which
// substitutes BaseHoursMonth, disabling the utilization load).
type ModelParams struct {
	RateModel          Model           `json:"rate_model"`
	EmployerContribPct decimal.Decimal `json:"employer_contrib_pct"`
	BaseHoursMonth     int             `json:"base_hours_month"`
	BillableHoursMonth *int            `json:"billable_hours_month,omitempty"`
	ProfitPct          decimal.Decimal `json:"profit_pct"`
	RoundingMode       RoundingMode    `json:"rounding_mode"`
}

// DefaultParams returns the default parameter set for a model
func DefaultParams(model Model) ModelParams {
	if model == "" {
		model = ModelLabor
	}
	billable := 120
	return ModelParams{
		RateModel:          model,
		EmployerContribPct: decimal.NewFromInt(30),
		BaseHoursMonth:     160,
		BillableHoursMonth: &billable,
		ProfitPct:          decimal.NewFromInt(15),
		RoundingMode:       RoundingNone,
	}
}

// ContractorBreakdown retains every intermediate of the contractor formula
// so the final rate is re-derivable step by step.
type ContractorBreakdown struct {
	EmployerContribPct decimal.Decimal `json:"employer_contrib_pct"`
	ContribRate        decimal.Decimal `json:"contrib_rate"`
	LoadedLaborRate    decimal.Decimal `json:"loaded_labor_rate"`
	BaseHoursMonth     int             `json:"base_hours_month"`
	BillableHoursMonth int             `json:"billable_hours_month"`
	UtilizationK       decimal.Decimal `json:"utilization_k"`
	CostRate           decimal.Decimal `json:"cost_rate"`
	ProfitPct          decimal.Decimal `json:"profit_pct"`
	ProfitAmount       decimal.Decimal `json:"profit_amount"`
	ContractorRate     decimal.Decimal `json:"contractor_rate"`
}

// ModelBreakdown records how a base rate became a final rate.
// Contractor is set only when RateModel == ModelContractor.
type ModelBreakdown struct {
	RateModel    Model                `json:"rate_model"`
	BaseRate     decimal.Decimal      `json:"base_rate"`
	RoundingMode RoundingMode         `json:"rounding_mode"`
	FinalRate    decimal.Decimal      `json:"final_rate"`
	Contractor   *ContractorBreakdown `json:"contractor,omitempty"`
}

// SourceRecord is one observation frozen into a snapshot
type SourceRecord struct {
	ObservationID int64           `json:"observation_id"`
	SourceLabel   string          `json:"source_label"`
	RatePerHour   decimal.Decimal `json:"rate_per_hour"`
	RegionID      *int64          `json:"region_id,omitempty"`
	RegionName    string          `json:"region_name,omitempty"`
	ObservedAt    *time.Time      `json:"observed_at,omitempty"`
	ReferenceLink string          `json:"reference_link,omitempty"`
	Note          string          `json:"note,omitempty"`
}

// SourcesSnapshot is the frozen list of observations a rate was derived
// from. Once written to a Fixed or Locked override it is never rewritten.
type SourcesSnapshot []SourceRecord

// WarningKind classifies a non-fatal calculation warning
type WarningKind string

const (
	// WarnHighVolatility flags a wide min/max spread in the inputs
	WarnHighVolatility WarningKind = "high_volatility"

	// WarnLowSourceCount flags a calculation on fewer than 3 inputs
	WarnLowSourceCount WarningKind = "low_source_count"

	// WarnTrimFallback flags a trimmed mean that fell back to the median
	WarnTrimFallback WarningKind = "trim_fallback"
)

// Warning is a non-fatal note attached to a calculation
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// ExcludedRate records a value removed from the aggregation input and why
type ExcludedRate struct {
	Value  decimal.Decimal `json:"value"`
	Reason string          `json:"reason"`
}

// JustificationSnapshot is the frozen calculation record sufficient to
// reconstruct the rate in a dispute. It replays without re-querying
// observations.
type JustificationSnapshot struct {
	ProfileName        string          `json:"profile_name"`
	RegionName         string          `json:"region_name,omitempty"`
	Method             Method          `json:"method"`
	AllRates           []decimal.Decimal `json:"all_rates"`
	UsedRates          []decimal.Decimal `json:"used_rates"`
	Excluded           []ExcludedRate  `json:"excluded_rates,omitempty"`
	MedianBeforeFilter decimal.Decimal `json:"median_before_filtering"`
	OutlierThreshold   decimal.Decimal `json:"outlier_threshold"`
	VolatilityPct      decimal.Decimal `json:"volatility_pct"`
	Warnings           []Warning       `json:"warnings,omitempty"`
	BaseRate           decimal.Decimal `json:"base_rate"`
	RateModel          Model           `json:"rate_model"`
	ModelParams        ModelParams     `json:"model_params"`
	ModelBreakdown     ModelBreakdown  `json:"model_breakdown"`
	FinalRate          decimal.Decimal `json:"final_rate"`
	CalculatedAt       time.Time       `json:"calculated_at"`
}
