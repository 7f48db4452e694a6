package analysis

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

const fixtureRows = 1000

// newFixture builds a 1000-row dataset exercising every detector.
func newFixture() *dataset.Dataset {
	rng := rand.New(rand.NewSource(42))
	n := fixtureRows
	num := func(f func(i int) float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = f(i)
		}
		return out
	}
	str := func(f func(i int) string) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = f(i)
		}
		return out
	}
	letters := []string{"A", "B", "C", "D", "E", "F", "G"}

	idNA := num(func(i int) float64 {
		if i >= 1 && i <= 3 {
			return math.NaN()
		}
		return float64(i + 1)
	})
	nzv := str(func(i int) string {
		if i == 0 {
			return "one_value"
		}
		return "most_common_value"
	})
	fillStr := str(func(i int) string {
		switch {
		case i < 300:
			return "A"
		case i < 500:
			return "B"
		case i < 700:
			return "C"
		}
		return ""
	})
	fillStrValid := make([]bool, n)
	for i := range fillStrValid {
		fillStrValid[i] = i < 700
	}
	outlier := num(func(int) float64 { return rng.NormFloat64() })
	outlier[1], outlier[10], outlier[100] = 10, 5, 10

	return dataset.MustNew(
		dataset.NewNumeric("id", num(func(i int) float64 { return float64(i + 1) }), nil),
		dataset.NewNumeric("member_id", num(func(i int) float64 { return float64(10 * (i + 1)) }), nil),
		dataset.NewNumeric("na_col", num(func(int) float64 { return math.NaN() }), nil),
		dataset.NewNumeric("id_na", idNA, nil),
		dataset.NewCategorical("constant_col", str(func(int) string { return "constant" }), nil),
		dataset.NewNumeric("constant_col_num", num(func(int) float64 { return 0 }), nil),
		dataset.NewCategorical("character_factor", str(func(int) string { return letters[rng.Intn(len(letters))] }), nil),
		dataset.NewNumeric("num_factor", num(func(int) float64 { return float64(1 + rng.Intn(4)) }), nil),
		dataset.NewCategorical("nearzerovar_variable", nzv, nil),
		dataset.NewNumeric("binary_variable", num(func(int) float64 { return float64(rng.Intn(2)) }), nil),
		dataset.NewCategorical("character_variable", str(strconv.Itoa), nil),
		dataset.NewNumeric("duplicated_column", num(func(i int) float64 { return float64(i + 1) }), nil),
		dataset.NewNumeric("many_missing_70", num(func(i int) float64 {
			if i < 300 {
				return 1
			}
			return math.NaN()
		}), nil),
		dataset.NewCategorical("character_variable_fillna", fillStr, fillStrValid),
		dataset.NewNumeric("numeric_variable_fillna", num(func(i int) float64 {
			switch {
			case i < 400:
				return 1
			case i < 800:
				return 3
			}
			return math.NaN()
		}), nil),
		dataset.NewNumeric("num_variable", num(func(int) float64 { return 100 }), nil),
		dataset.NewNumeric("outlier", outlier, nil),
	)
}

func newTestProfiler(d *dataset.Dataset) *Profiler {
	return NewProfiler(d, WithRand(rand.New(rand.NewSource(7))))
}
