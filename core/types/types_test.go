package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate-engine/internal/errors"
)

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"single", "mean", "median", "trimmed_mean"} {
		method, err := ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, Method(name), method)
	}

	method, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodMedian, method, "empty defaults to median")

	_, err = ParseMethod("harmonic")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestParseModel(t *testing.T) {
	for _, name := range []string{"labor", "contractor"} {
		model, err := ParseModel(name)
		require.NoError(t, err, name)
		assert.Equal(t, Model(name), model)
	}

	model, err := ParseModel("")
	require.NoError(t, err)
	assert.Equal(t, ModelLabor, model, "empty defaults to labor")

	_, err = ParseModel("freelance")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestParseRoundingMode(t *testing.T) {
	for _, name := range []string{"none", "int", "10", "100"} {
		mode, err := ParseRoundingMode(name)
		require.NoError(t, err, name)
		assert.Equal(t, RoundingMode(name), mode)
	}

	mode, err := ParseRoundingMode("")
	require.NoError(t, err)
	assert.Equal(t, RoundingNone, mode)

	_, err = ParseRoundingMode("1000")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestDefaultParams(t *testing.T) {
	labor := DefaultParams(ModelLabor)
	assert.Equal(t, ModelLabor, labor.RateModel)
	assert.Equal(t, RoundingNone, labor.RoundingMode)

	contractor := DefaultParams(ModelContractor)
	assert.Equal(t, ModelContractor, contractor.RateModel)
	assert.Equal(t, "30", contractor.EmployerContribPct.String())
	assert.Equal(t, 160, contractor.BaseHoursMonth)
	require.NotNil(t, contractor.BillableHoursMonth)
	assert.Equal(t, 120, *contractor.BillableHoursMonth)
	assert.Equal(t, "15", contractor.ProfitPct.String())

	blank := DefaultParams("")
	assert.Equal(t, ModelLabor, blank.RateModel, "blank model means labor")
}

func TestOverrideKey(t *testing.T) {
	region := int64(7)

	assert.Equal(t, OverrideKey(1, 2, nil), OverrideKey(1, 2, nil))
	assert.NotEqual(t, OverrideKey(1, 2, nil), OverrideKey(1, 2, &region))
	assert.NotEqual(t, OverrideKey(1, 2, &region), OverrideKey(1, 3, &region))

	other := int64(7)
	assert.Equal(t, OverrideKey(1, 2, &region), OverrideKey(1, 2, &other),
		"equal region values produce equal keys regardless of pointer identity")
}

func TestOverrideIsLocked(t *testing.T) {
	assert.True(t, (&RateOverride{State: StateLocked}).IsLocked())
	assert.False(t, (&RateOverride{State: StateFixed}).IsLocked())
	assert.False(t, (&RateOverride{State: StatePreview}).IsLocked())
}

func TestRateResultHasRate(t *testing.T) {
	tests := []struct {
		source Source
		want   bool
	}{
		{SourceLocked, true},
		{SourceFixed, true},
		{SourcePreview, true},
		{SourceNone, false},
		{SourceError, false},
	}
	for _, tt := range tests {
		result := &RateResult{Source: tt.source}
		assert.Equal(t, tt.want, result.HasRate(), "source %s", tt.source)
	}
}

func TestBulkResultSuccess(t *testing.T) {
	assert.True(t, (&BulkResult{}).Success())
	assert.False(t, (&BulkResult{Errors: []ProfileError{{ProfileID: 1, Message: "x"}}}).Success())
}
