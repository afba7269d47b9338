// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

// round rounds x to the given number of decimals, halves away from zero.
func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

// percent returns num/den as a percentage with one decimal, or 0 when den
// is zero.
func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return round(float64(num)/float64(den)*100, 1)
}

// mean returns the arithmetic mean of xs, or 0 for an empty sample.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// durationStats summarizes whole-day durations. The median is the upper of
// the two middle values for even samples (index n/2 of the sorted list).
func durationStats(days []int) types.DurationStats {
	if len(days) == 0 {
		return types.DurationStats{}
	}
	sorted := slices.Clone(days)
	slices.Sort(sorted)

	xs := make([]float64, len(sorted))
	for i, d := range sorted {
		xs[i] = float64(d)
	}
	avg := round(mean(xs), 1)
	lo, hi, mid := sorted[0], sorted[len(sorted)-1], sorted[len(sorted)/2]
	return types.DurationStats{
		Count:   len(sorted),
		AvgDays: &avg,
		MinDays: &lo,
		MaxDays: &hi,
		Median:  &mid,
	}
}
