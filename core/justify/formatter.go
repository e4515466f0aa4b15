// Package justify renders frozen calculation snapshots into an auditable
// narrative. It is a pure transformation: it replays only from the snapshot
// data and never re-queries observations.
package justify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"rate-engine/core/types"
)

// Format renders a justification snapshot plus its frozen sources into a
// human-readable narrative sufficient to re-derive the rate step by step.
func Format(j types.JustificationSnapshot, sources types.SourcesSnapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Rate calculation for profile: %s\n", j.ProfileName)
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	writeSources(&sb, sources)
	writeRange(&sb, j)
	writeAggregation(&sb, j)
	writeModel(&sb, j)

	fmt.Fprintf(&sb, "Final rate: %s ₽/h\n", j.FinalRate.StringFixed(2))
	if j.RegionName != "" {
		fmt.Fprintf(&sb, "Region: %s\n", j.RegionName)
	}
	if !j.CalculatedAt.IsZero() {
		fmt.Fprintf(&sb, "Calculated at: %s\n", j.CalculatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(j.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warning := range j.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warning.Message)
		}
	} else {
		sb.WriteString("\nWarnings: none\n")
	}

	return sb.String()
}

// FormatResult renders the justification of a resolved rate. Results
// without a justification snapshot (None/Error) produce a short status
// line so a missing rate is never rendered as a zero-cost figure.
func FormatResult(result *types.RateResult) string {
	if result.Justification == nil {
		return fmt.Sprintf("Rate missing (source=%s): %s\n", result.Source, result.Breakdown.Message)
	}
	return Format(*result.Justification, result.Sources)
}

func writeSources(sb *strings.Builder, sources types.SourcesSnapshot) {
	fmt.Fprintf(sb, "Sources used (%d):\n", len(sources))
	for i, src := range sources {
		date := "date not specified"
		if src.ObservedAt != nil {
			date = src.ObservedAt.Format("2006-01-02")
		}
		fmt.Fprintf(sb, "  %d. %s: %s ₽/h (%s)\n", i+1, src.SourceLabel, src.RatePerHour.StringFixed(2), date)
		if src.RegionName != "" {
			fmt.Fprintf(sb, "     Region: %s\n", src.RegionName)
		}
		if src.Note != "" {
			fmt.Fprintf(sb, "     Note: %s\n", src.Note)
		}
	}
	sb.WriteString("\n")
}

func writeRange(sb *strings.Builder, j types.JustificationSnapshot) {
	if len(j.AllRates) == 0 {
		return
	}
	min := j.AllRates[0]
	max := j.AllRates[len(j.AllRates)-1]
	fmt.Fprintf(sb, "Range: %s - %s ₽/h (volatility %s%%)\n\n",
		min.StringFixed(2), max.StringFixed(2), j.VolatilityPct)
}

func writeAggregation(sb *strings.Builder, j types.JustificationSnapshot) {
	fmt.Fprintf(sb, "Method: %s\n", j.Method)
	fmt.Fprintf(sb, "Inputs (sorted): %s\n", joinRates(j.AllRates))

	if len(j.Excluded) > 0 {
		sb.WriteString("Excluded:\n")
		for _, excluded := range j.Excluded {
			fmt.Fprintf(sb, "  - %s (%s)\n", excluded.Value.StringFixed(2), excluded.Reason)
		}
		fmt.Fprintf(sb, "Used after exclusion: %s\n", joinRates(j.UsedRates))
	}

	if j.Method == types.MethodMedian {
		writeMedianArithmetic(sb, j.UsedRates)
	}

	fmt.Fprintf(sb, "Base rate: %s ₽/h\n\n", j.BaseRate.StringFixed(2))
}

// writeMedianArithmetic shows the pairwise arithmetic for an even count so
// the median is verifiable by eye.
func writeMedianArithmetic(sb *strings.Builder, used []decimal.Decimal) {
	count := len(used)
	if count == 0 {
		return
	}
	middle := count / 2
	if count%2 == 0 {
		a := used[middle-1]
		b := used[middle]
		median := a.Add(b).Div(decimal.NewFromInt(2)).Round(2)
		fmt.Fprintf(sb, "Median of %d values: (%s + %s) / 2 = %s\n", count, a, b, median)
	} else {
		fmt.Fprintf(sb, "Median of %d values: middle element = %s\n", count, used[middle])
	}
}

func writeModel(sb *strings.Builder, j types.JustificationSnapshot) {
	breakdown := j.ModelBreakdown
	fmt.Fprintf(sb, "Rate model: %s\n", breakdown.RateModel)

	if breakdown.RateModel == types.ModelContractor && breakdown.Contractor != nil {
		c := breakdown.Contractor
		fmt.Fprintf(sb, "  1. contrib_rate = %s x %s%% = %s\n",
			breakdown.BaseRate, c.EmployerContribPct, c.ContribRate)
		fmt.Fprintf(sb, "  2. loaded_labor_rate = %s + %s = %s\n",
			breakdown.BaseRate, c.ContribRate, c.LoadedLaborRate)
		fmt.Fprintf(sb, "  3. utilization_k = %d / %d = %s\n",
			c.BaseHoursMonth, c.BillableHoursMonth, c.UtilizationK)
		fmt.Fprintf(sb, "  4. cost_rate = %s x %s = %s\n",
			c.LoadedLaborRate, c.UtilizationK, c.CostRate)
		fmt.Fprintf(sb, "  5. profit_amount = %s x %s%% = %s\n",
			c.CostRate, c.ProfitPct, c.ProfitAmount)
		fmt.Fprintf(sb, "  6. contractor_rate = %s + %s = %s\n",
			c.CostRate, c.ProfitAmount, c.ContractorRate)
		fmt.Fprintf(sb, "  7. final_rate = round(%s, %s) = %s\n",
			c.ContractorRate, breakdown.RoundingMode, breakdown.FinalRate)
	} else {
		fmt.Fprintf(sb, "  final_rate = round(%s, %s) = %s\n",
			breakdown.BaseRate, breakdown.RoundingMode, breakdown.FinalRate)
	}
	sb.WriteString("\n")
}

func joinRates(rates []decimal.Decimal) string {
	parts := make([]string, len(rates))
	for i, rate := range rates {
		parts[i] = rate.StringFixed(2)
	}
	return strings.Join(parts, ", ")
}
