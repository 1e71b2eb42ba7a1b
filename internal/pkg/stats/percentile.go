// Package stats provides the numeric helpers used by the report queries.
package stats

import "sort"

// Percentile computes the p-th percentile of values using linear
// interpolation between closest ranks. An empty sample yields 0; p <= 0
// yields the minimum and p >= 1 the maximum.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	k := float64(len(sorted)-1) * p
	f := int(k)
	c := f + 1
	if c > len(sorted)-1 {
		c = len(sorted) - 1
	}
	if f == c {
		return sorted[f]
	}

	d0 := sorted[f] * (float64(c) - k)
	d1 := sorted[c] * (k - float64(f))
	return d0 + d1
}
