package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Method names a correlation coefficient.
type Method string

const (
	Pearson  Method = "pearson"
	Spearman Method = "spearman"
	Kendall  Method = "kendall"
)

// ParseMethod validates a correlation method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case Pearson, Spearman, Kendall:
		return m, nil
	default:
		return "", fmt.Errorf("unknown correlation method %q (use pearson, spearman or kendall)", s)
	}
}

// Correlation computes the coefficient for two equally long samples.
// It returns NaN when fewer than two pairs are given or a sample is constant.
func Correlation(m Method, x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	switch m {
	case Spearman:
		return pearson(Ranks(x), Ranks(y))
	case Kendall:
		return KendallTauB(x, y)
	default:
		return pearson(x, y)
	}
}

func pearson(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// Ranks assigns 1-based ranks, ties receiving the average of their positions.
func Ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	ranks := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // mean of 1-based positions i+1..j
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// KendallTauB computes Kendall's tau-b, which corrects for ties in either sample.
func KendallTauB(x, y []float64) float64 {
	n := len(x)
	var concordant, discordant, tiesX, tiesY float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx == 0 && dy == 0:
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case (dx > 0) == (dy > 0):
				concordant++
			default:
				discordant++
			}
		}
	}
	denom := math.Sqrt((concordant + discordant + tiesX) * (concordant + discordant + tiesY))
	if denom == 0 {
		return math.NaN()
	}
	return (concordant - discordant) / denom
}

// PairwiseComplete returns the pairs where both sides are present.
func PairwiseComplete(x, y []float64, xOK, yOK []bool) ([]float64, []float64) {
	var a, b []float64
	for i := range x {
		if xOK[i] && yOK[i] {
			a = append(a, x[i])
			b = append(b, y[i])
		}
	}
	return a, b
}
