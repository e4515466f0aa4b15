package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolatility(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"typical spread", []string{"625", "1125"}, "80"},
		{"unsorted input", []string{"1000", "625", "1125"}, "80"},
		{"no spread", []string{"1000", "1000"}, "0"},
		{"rounded to 2 decimals", []string{"3", "10"}, "233.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Volatility(decs(tt.values...))
			assert.True(t, got.Equal(dec(tt.want)), "want %s, got %s", tt.want, got)
		})
	}
}

func TestVolatilityDegenerateInputs(t *testing.T) {
	assert.True(t, Volatility(nil).IsZero())
	assert.True(t, Volatility(decs("1000")).IsZero())
	assert.True(t, Volatility(decs("0", "1000")).IsZero(), "non-positive minimum reports zero")
}
