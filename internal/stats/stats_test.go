package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleSize(t *testing.T) {
	require.Equal(t, 50, SampleSize(1000, 0.05, 10, 0))
	require.Equal(t, 10, SampleSize(100, 0.05, 10, 0), "min_rows wins when fraction*n rounds below it")
	require.Equal(t, 61, SampleSize(1000, 0.061, 10, 0))
	require.Equal(t, 100, SampleSize(10000, 0.05, 10, 100), "max_rows caps the sample")
	require.Equal(t, 3, SampleSize(3, 0.05, 10, 0), "sample never exceeds the population")
	require.Equal(t, 0, SampleSize(0, 0.05, 10, 0))
}

func TestSampleIndicesDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	idx := SampleIndices(rng, 100, 30)
	require.Len(t, idx, 30)
	seen := map[int]bool{}
	for _, i := range idx {
		require.False(t, seen[i], "index %d drawn twice", i)
		require.True(t, i >= 0 && i < 100)
		seen[i] = true
	}
	require.Empty(t, SampleIndices(rng, 0, 10))
}

func TestQuantileMatchesNumpy(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	require.InDelta(t, 1.75, Quantile(s, 0.25), 1e-12)
	require.InDelta(t, 2.5, Quantile(s, 0.5), 1e-12)
	require.InDelta(t, 3.25, Quantile(s, 0.75), 1e-12)
	require.Equal(t, 3.0, NearestQuantile(s, 0.5), "1.5 rounds half to even, index 2")
}

func TestScores(t *testing.T) {
	x := []float64{1, 2, 3, 4, 100}

	z, err := ZScore(x)
	require.NoError(t, err)
	mean := 22.0
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	std := math.Sqrt(ss / 5)
	require.InDelta(t, (100-mean)/std, z[4], 1e-9)

	iqr, err := IQRScore(x)
	require.NoError(t, err)
	require.InDelta(t, (100-3.0)/(4.0-2.0), iqr[4], 1e-9)

	mad, err := MADScore(x)
	require.NoError(t, err)
	// deviations from 3: 2,1,0,1,97 -> MAD 1
	require.InDelta(t, (100-3.0)/(1/0.6745), mad[4], 1e-9)
}

func TestScoresDegenerate(t *testing.T) {
	_, err := ZScore([]float64{5, 5, 5})
	require.ErrorIs(t, err, ErrZeroDispersion)
	_, err = IQRScore([]float64{1, 1, 1, 1, 9})
	require.ErrorIs(t, err, ErrZeroDispersion)
	_, err = MADScore([]float64{0, 0, 0, 1, 2})
	require.ErrorIs(t, err, ErrZeroDispersion)
	_, err = ZScore(nil)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestCorrelationMethods(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	for _, m := range []Method{Pearson, Spearman, Kendall} {
		require.InDelta(t, 1.0, Correlation(m, x, y), 1e-12, "method %s", m)
	}
	// monotonic but not linear: rank methods stay at 1
	cube := []float64{1, 8, 27, 64, 125}
	require.Less(t, Correlation(Pearson, x, cube), 1.0)
	require.InDelta(t, 1.0, Correlation(Spearman, x, cube), 1e-12)
	require.InDelta(t, 1.0, Correlation(Kendall, x, cube), 1e-12)

	rev := []float64{5, 4, 3, 2, 1}
	require.InDelta(t, -1.0, Correlation(Kendall, x, rev), 1e-12)

	require.True(t, math.IsNaN(Correlation(Pearson, x, []float64{3, 3, 3, 3, 3})))
	require.True(t, math.IsNaN(Correlation(Pearson, []float64{1}, []float64{2})))
}

func TestRanksAverageTies(t *testing.T) {
	require.Equal(t, []float64{1, 2.5, 2.5, 4}, Ranks([]float64{10, 20, 20, 30}))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" Spearman ")
	require.NoError(t, err)
	require.Equal(t, Spearman, m)
	_, err = ParseMethod("distance")
	require.Error(t, err)
}

func TestPSI(t *testing.T) {
	bench := make([]float64, 100)
	for i := range bench {
		bench[i] = float64(i)
	}
	same, err := PSI(bench, bench, 10)
	require.NoError(t, err)
	require.InDelta(t, 0, same.Statistic, 1e-12)
	require.Len(t, same.Bins, 10)

	shifted := make([]float64, 100)
	for i := range shifted {
		shifted[i] = float64(i) + 40
	}
	drift, err := PSI(bench, shifted, 10)
	require.NoError(t, err)
	require.Greater(t, drift.Statistic, 0.25)

	_, err = PSI([]float64{1, 1, 1}, bench, 4)
	require.ErrorIs(t, err, ErrZeroDispersion)
}

func TestBootstrapCI(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := []float64{4, 5, 6, 5, 4, 6, 5, 5}
	lo, hi := BootstrapCI(rng, x, 300, 0.95)
	require.LessOrEqual(t, lo, 5.0)
	require.GreaterOrEqual(t, hi, 5.0)
	lo, hi = BootstrapCI(rng, nil, 300, 0.95)
	require.True(t, math.IsNaN(lo) && math.IsNaN(hi))
}
