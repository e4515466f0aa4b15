package justify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate-engine/core/resolver"
	"rate-engine/core/types"
	"rate-engine/store/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// resolvePreview builds a real preview result so the formatter is tested
// against snapshots the engine actually produces.
func resolvePreview(t *testing.T, rates ...string) *types.RateResult {
	t.Helper()
	store := memory.New()
	store.PutProject(types.Project{ID: 1, Name: "Depot renovation"})
	store.PutProfile(types.Profile{ID: 2, Name: "Plumber", Params: types.ModelParams{RateModel: types.ModelLabor}})
	for i, rate := range rates {
		store.AddObservation(types.Observation{
			ProfileID:   2,
			RatePerHour: dec(rate),
			ObservedAt:  time.Date(2026, 5, 1+i, 0, 0, 0, 0, time.UTC),
			SourceLabel: "job board",
			IsActive:    true,
		})
	}
	r := resolver.New(store, store, store, store, store)
	result, err := r.Resolve(context.Background(), 1, 2, nil, false)
	require.NoError(t, err)
	return result
}

func TestFormatContainsHeaderAndSources(t *testing.T) {
	result := resolvePreview(t, "625", "1000", "1125")
	out := FormatResult(result)

	assert.Contains(t, out, "Rate calculation for profile: Plumber")
	assert.Contains(t, out, "Sources used (3):")
	assert.Contains(t, out, "job board: 625.00 ₽/h (2026-05-01)")
	assert.Contains(t, out, "Range: 625.00 - 1125.00 ₽/h")
	assert.Contains(t, out, "volatility 80%")
}

func TestFormatShowsMedianArithmeticOddCount(t *testing.T) {
	result := resolvePreview(t, "625", "1000", "1125")
	out := FormatResult(result)

	assert.Contains(t, out, "Method: median")
	assert.Contains(t, out, "Inputs (sorted): 625.00, 1000.00, 1125.00")
	assert.Contains(t, out, "Median of 3 values: middle element = 1000")
	assert.Contains(t, out, "Base rate: 1000.00 ₽/h")
	assert.Contains(t, out, "Final rate: 1000.00 ₽/h")
}

func TestFormatShowsMedianArithmeticEvenCount(t *testing.T) {
	result := resolvePreview(t, "625", "1000")
	out := FormatResult(result)

	assert.Contains(t, out, "Median of 2 values: (625 + 1000) / 2 = 812.5")
}

func TestFormatListsExclusions(t *testing.T) {
	result := resolvePreview(t, "625", "1000", "6937.50")
	out := FormatResult(result)

	assert.Contains(t, out, "Excluded:")
	assert.Contains(t, out, "6937.50 (6.94x median)")
	assert.Contains(t, out, "Used after exclusion: 625.00, 1000.00")
	// The dropped source still appears in the provenance listing.
	assert.Contains(t, out, "Sources used (3):")
}

func TestFormatRendersWarnings(t *testing.T) {
	result := resolvePreview(t, "625", "1000", "6937.50")
	out := FormatResult(result)

	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "high input volatility")
	assert.Contains(t, out, "sources used, result may be less reliable")
}

func TestFormatNoWarningsLine(t *testing.T) {
	result := resolvePreview(t, "990", "1000", "1010")
	out := FormatResult(result)

	assert.Contains(t, out, "Warnings: none")
}

func TestFormatContractorSteps(t *testing.T) {
	store := memory.New()
	store.PutProject(types.Project{ID: 1, Name: "Depot renovation"})
	store.PutProfile(types.Profile{
		ID: 2, Name: "Contract plumber",
		Params: types.ModelParams{RateModel: types.ModelContractor},
	})
	store.AddObservation(types.Observation{ProfileID: 2, RatePerHour: dec("1000"), IsActive: true})
	r := resolver.New(store, store, store, store, store)
	result, err := r.Resolve(context.Background(), 1, 2, nil, false)
	require.NoError(t, err)

	out := FormatResult(result)

	assert.Contains(t, out, "Rate model: contractor")
	for _, step := range []string{
		"1. contrib_rate",
		"2. loaded_labor_rate",
		"3. utilization_k = 160 / 120",
		"4. cost_rate",
		"5. profit_amount",
		"6. contractor_rate",
		"7. final_rate",
	} {
		assert.Contains(t, out, step)
	}
	assert.Contains(t, out, "Final rate: 1993.33 ₽/h")
}

func TestFormatResultWithoutJustification(t *testing.T) {
	result := &types.RateResult{
		Source: types.SourceNone,
		Breakdown: types.ResultBreakdown{
			Kind:    types.SourceNone,
			Message: "no active observations for profile 2",
		},
	}
	out := FormatResult(result)

	assert.Equal(t, "Rate missing (source=none): no active observations for profile 2\n", out)
	assert.NotContains(t, out, "0.00", "a missing rate never renders as zero money")
}

func TestFormatIsPure(t *testing.T) {
	result := resolvePreview(t, "625", "1000", "1125")

	first := FormatResult(result)
	second := FormatResult(result)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "Rate calculation for profile:"))
}
