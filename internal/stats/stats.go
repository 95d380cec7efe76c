// Package stats implements the peer-statistics primitives the fraud
// detectors compare providers against: means, deviations, order statistics,
// and entropy. Every function is order-invariant and total — degenerate
// inputs produce defined neutral values instead of NaN or Inf.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDevPop returns the population standard deviation, or 0 for fewer than
// two observations.
func StdDevPop(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// StdDevSamp returns the sample (n-1) standard deviation, or 0 for fewer
// than two observations.
func StdDevSamp(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Percentile returns the p-th percentile (p in [0,1]) using linear
// interpolation between order statistics, matching percentile_cont.
// Returns 0 for an empty slice. The input is not modified.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 50th percentile.
func Median(xs []float64) float64 {
	return Percentile(xs, 0.5)
}

// Quartiles returns Q1, median, and Q3.
func Quartiles(xs []float64) (q1, median, q3 float64) {
	return Percentile(xs, 0.25), Percentile(xs, 0.5), Percentile(xs, 0.75)
}

// Entropy returns the Shannon entropy (natural log) of the distribution of
// shares xs[i]/sum(xs). A single observation, a zero or negative total, or
// an empty slice all yield exactly 0.
func Entropy(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var total float64
	for _, x := range xs {
		if x > 0 {
			total += x
		}
	}
	if total <= 0 {
		return 0
	}
	var h float64
	for _, x := range xs {
		if x <= 0 {
			continue
		}
		p := x / total
		h -= p * math.Log(p)
	}
	return h
}

// CV returns the coefficient of variation (sample std over mean), or 0
// when the mean is zero or negative.
func CV(xs []float64) float64 {
	m := Mean(xs)
	if m <= 0 {
		return 0
	}
	return StdDevSamp(xs) / m
}

// SafeDiv divides num by den, reporting ok=false (and 0) when the
// denominator is zero or negative.
func SafeDiv(num, den float64) (float64, bool) {
	if den <= 0 {
		return 0, false
	}
	return num / den, true
}

// ZScore standardizes value against a peer mean and deviation, returning 0
// when the deviation is zero or undefined so a degenerate peer group can
// never produce a flag.
func ZScore(value, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	return (value - mean) / std
}
