package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrZeroDispersion is returned when a score's denominator is zero.
var ErrZeroDispersion = errors.New("zero dispersion")

// ErrEmpty is returned when a statistic needs at least one value.
var ErrEmpty = errors.New("no values")

// madScale converts a median absolute deviation into a normal-consistent sigma.
const madScale = 0.6745

// ZScore returns (x - mean) / std using the population standard deviation.
func ZScore(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, ErrZeroDispersion
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - mean) / std
	}
	return out, nil
}

// IQRScore returns (x - median) / (P75 - P25).
func IQRScore(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	sorted := sortedCopy(x)
	iqr := Quantile(sorted, 0.75) - Quantile(sorted, 0.25)
	if iqr == 0 {
		return nil, ErrZeroDispersion
	}
	med := Quantile(sorted, 0.5)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - med) / iqr
	}
	return out, nil
}

// MADScore returns (x - median) / (MAD / 0.6745).
func MADScore(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	med, mad := MedianMAD(x)
	if mad == 0 {
		return nil, ErrZeroDispersion
	}
	sigma := mad / madScale
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - med) / sigma
	}
	return out, nil
}

// Mean returns the arithmetic mean, NaN for empty input.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Median returns the 0.5 quantile, NaN for empty input.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return Quantile(sortedCopy(x), 0.5)
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := sortedCopy(vals)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// Quantile linearly interpolates between closest ranks of an ascending slice,
// matching numpy's default percentile definition.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// NearestQuantile picks the element at round-half-even(q*(n-1)) of an ascending slice.
func NearestQuantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.RoundToEven(q * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func sortedCopy(x []float64) []float64 {
	cp := make([]float64, len(x))
	copy(cp, x)
	sort.Float64s(cp)
	return cp
}
