package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decs(ss ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(ss))
	for i, s := range ss {
		out[i] = dec(s)
	}
	return out
}

func TestAggregateEmptyInput(t *testing.T) {
	methods := []types.Method{
		types.MethodSingle,
		types.MethodMean,
		types.MethodMedian,
		types.MethodTrimmedMean,
	}
	for _, method := range methods {
		t.Run(string(method), func(t *testing.T) {
			_, err := Aggregate(nil, method)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeInvalidInput))

			_, err = Aggregate([]decimal.Decimal{}, method)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
		})
	}
}

func TestAggregateUnknownMethod(t *testing.T) {
	_, err := Aggregate(decs("100"), types.Method("harmonic"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidInput))
}

func TestAggregateSingle(t *testing.T) {
	result, err := Aggregate(decs("1000", "625", "1125"), types.MethodSingle)
	require.NoError(t, err)

	assert.True(t, result.Aggregated.Equal(dec("625")), "single takes the smallest value, got %s", result.Aggregated)
	assert.Equal(t, 3, result.Count)
	assert.True(t, result.Min.Equal(dec("625")))
	assert.True(t, result.Max.Equal(dec("1125")))
}

func TestAggregateMean(t *testing.T) {
	result, err := Aggregate(decs("625", "1000", "1125"), types.MethodMean)
	require.NoError(t, err)

	// (625 + 1000 + 1125) / 3 = 916.666... -> 916.67
	assert.Equal(t, "916.67", result.Aggregated.StringFixed(2))
	assert.Empty(t, result.Excluded)
}

func TestAggregateMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"odd count takes middle", []string{"625", "1000", "1125"}, "1000"},
		{"even count averages middle pair", []string{"625", "1000"}, "812.5"},
		{"single value", []string{"750"}, "750"},
		{"unsorted input", []string{"1125", "625", "1000"}, "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Aggregate(decs(tt.values...), types.MethodMedian)
			require.NoError(t, err)
			assert.True(t, result.Aggregated.Equal(dec(tt.want)),
				"want %s, got %s", tt.want, result.Aggregated)
		})
	}
}

func TestAggregateTrimmedMeanSmallSampleFallsBackToMedian(t *testing.T) {
	result, err := Aggregate(decs("625", "1000"), types.MethodTrimmedMean)
	require.NoError(t, err)

	assert.True(t, result.Aggregated.Equal(dec("812.5")))
	assert.Equal(t, types.MethodTrimmedMean, result.Method)
	assert.Equal(t, "n=2 < 3, fallback to median", result.FallbackNote)
}

func TestAggregateTrimmedMeanTrimsFloorOfFraction(t *testing.T) {
	// n=10, fraction=0.10: exactly one value trimmed from each end.
	values := decs("100", "200", "300", "400", "500", "600", "700", "800", "900", "5000")
	result, err := Aggregate(values, types.MethodTrimmedMean)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TrimmedEachSide)
	assert.Len(t, result.Used, 8)
	assert.Len(t, result.Excluded, 2)
	// (200+...+900) / 8 = 550
	assert.Equal(t, "550.00", result.Aggregated.StringFixed(2))
}

func TestAggregateTrimmedMeanSmallSampleTrimsNothing(t *testing.T) {
	// n=5, fraction=0.10: floor(0.5)=0, so nothing is trimmed.
	result, err := Aggregate(decs("100", "200", "300", "400", "500"), types.MethodTrimmedMean)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TrimmedEachSide)
	assert.Len(t, result.Used, 5)
	assert.Equal(t, "300.00", result.Aggregated.StringFixed(2))
	assert.Empty(t, result.FallbackNote)
}

func TestAggregateTrimmedMeanNeverTrimsEverything(t *testing.T) {
	result, err := Aggregate(decs("100", "200", "300"), types.MethodTrimmedMean, WithTrimFraction(0.5))
	require.NoError(t, err)

	require.NotEmpty(t, result.Used)
	assert.Equal(t, 1, result.TrimmedEachSide)
	assert.True(t, result.Aggregated.Equal(dec("200")))
}

func TestAggregateDoesNotModifyInput(t *testing.T) {
	values := decs("1125", "625", "1000")
	_, err := Aggregate(values, types.MethodMedian)
	require.NoError(t, err)

	assert.True(t, values[0].Equal(dec("1125")))
	assert.True(t, values[1].Equal(dec("625")))
	assert.True(t, values[2].Equal(dec("1000")))
}

func TestAggregateIsDeterministic(t *testing.T) {
	values := decs("913.37", "625", "1125.55", "1000", "812.50")

	first, err := Aggregate(values, types.MethodTrimmedMean)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Aggregate(values, types.MethodTrimmedMean)
		require.NoError(t, err)
		assert.True(t, first.Aggregated.Equal(again.Aggregated))
		assert.Equal(t, first.Used, again.Used)
		assert.Equal(t, first.Excluded, again.Excluded)
	}
}

func TestMedianHelper(t *testing.T) {
	assert.True(t, Median(nil).IsZero())
	assert.True(t, Median(decs("625", "1000", "1125")).Equal(dec("1000")))
	assert.True(t, Median(decs("625", "1000")).Equal(dec("812.5")))
}
