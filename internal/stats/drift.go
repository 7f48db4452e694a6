package stats

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// psiFloor keeps empty bins from sending the index to infinity.
const psiFloor = 1e-6

// PSIBin is one bucket of a population stability comparison.
type PSIBin struct {
	Lower, Upper float64
	BenchPct     float64
	TargetPct    float64
}

// PSIResult holds the per-bin shares and the index itself.
type PSIResult struct {
	Bins      []PSIBin
	Statistic float64
}

// PSI computes the population stability index of target against bench.
// Bin edges are nearest-rank percentiles of bench; the first bin is closed on the left.
func PSI(bench, target []float64, groups int) (PSIResult, error) {
	if groups < 1 {
		return PSIResult{}, fmt.Errorf("psi: groups must be >= 1, got %d", groups)
	}
	if len(bench) == 0 || len(target) == 0 {
		return PSIResult{}, ErrEmpty
	}
	sb := sortedCopy(bench)
	var edges []float64
	for i := 0; i <= groups; i++ {
		e := NearestQuantile(sb, float64(i)/float64(groups))
		if len(edges) == 0 || e != edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	if len(edges) < 2 {
		return PSIResult{}, ErrZeroDispersion
	}
	bc := binCounts(bench, edges)
	tc := binCounts(target, edges)
	res := PSIResult{Bins: make([]PSIBin, len(edges)-1)}
	for i := range res.Bins {
		b := float64(bc[i]) / float64(len(bench))
		t := float64(tc[i]) / float64(len(target))
		res.Bins[i] = PSIBin{Lower: edges[i], Upper: edges[i+1], BenchPct: b, TargetPct: t}
		b = math.Max(b, psiFloor)
		t = math.Max(t, psiFloor)
		res.Statistic += (t - b) * math.Log(t/b)
	}
	return res, nil
}

// binCounts counts values in (e[i], e[i+1]], the first bin also taking e[0].
// Values outside the edges are ignored.
func binCounts(x []float64, edges []float64) []int {
	counts := make([]int, len(edges)-1)
	for _, v := range x {
		if v < edges[0] || v > edges[len(edges)-1] {
			continue
		}
		i := sort.SearchFloat64s(edges, v) // first edge >= v
		if i == 0 {
			counts[0]++
			continue
		}
		counts[i-1]++
	}
	return counts
}

// BootstrapCI returns a percentile confidence interval for the mean of x using n resamples.
// Empty input yields (NaN, NaN).
func BootstrapCI(rng *rand.Rand, x []float64, n int, ci float64) (lo, hi float64) {
	if len(x) == 0 || n <= 0 {
		return math.NaN(), math.NaN()
	}
	means := make([]float64, n)
	for b := 0; b < n; b++ {
		var sum float64
		for i := 0; i < len(x); i++ {
			sum += x[rng.Intn(len(x))]
		}
		means[b] = sum / float64(len(x))
	}
	sort.Float64s(means)
	low := (1 - ci) / 2
	return Quantile(means, low), Quantile(means, ci+low)
}
