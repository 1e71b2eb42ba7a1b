package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/pkg/stats"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{name: "empty sample", values: nil, p: 0.75, expected: 0},
		{name: "empty sample at zero", values: []float64{}, p: 0, expected: 0},
		{name: "single value", values: []float64{42}, p: 0.75, expected: 42},
		{name: "p zero is minimum", values: []float64{5, 1, 9}, p: 0, expected: 1},
		{name: "p negative is minimum", values: []float64{5, 1, 9}, p: -0.5, expected: 1},
		{name: "p one is maximum", values: []float64{5, 1, 9}, p: 1, expected: 9},
		{name: "p above one is maximum", values: []float64{5, 1, 9}, p: 2, expected: 9},
		{name: "median of even sample interpolates", values: []float64{1, 2, 3, 4}, p: 0.5, expected: 2.5},
		{name: "median of odd sample is exact", values: []float64{1, 2, 3}, p: 0.5, expected: 2},
		// rank = (5-1)*0.75 = 3 -> exact order statistic
		{name: "p75 lands on order statistic", values: []float64{10, 20, 30, 40, 50}, p: 0.75, expected: 40},
		// rank = (4-1)*0.75 = 2.25 -> 30*(0.75) + 40*(0.25)... interpolated
		{name: "p75 interpolates between ranks", values: []float64{10, 20, 30, 40}, p: 0.75, expected: 32.5},
		{name: "unsorted input is handled", values: []float64{40, 10, 30, 20}, p: 0.75, expected: 32.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, stats.Percentile(tt.values, tt.p), 1e-9)
		})
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	stats.Percentile(values, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
