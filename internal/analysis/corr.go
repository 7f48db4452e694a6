package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/stats"
)

// DefaultCorrCutoff is the absolute correlation above which a pair is pruned.
const DefaultCorrCutoff = 0.9

// CorrMatrix holds a symmetric correlation matrix across numeric columns.
type CorrMatrix struct {
	Method  stats.Method `json:"method"`
	Columns []string     `json:"columns"`
	Values  [][]float64  `json:"values"` // row-major, NaN when undefined
}

// PairCorr is one off-diagonal entry of a correlation matrix.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs returns up to n pairs ordered by descending |r|; undefined pairs are skipped.
func (m CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return math.Abs(pairs[a].R) > math.Abs(pairs[b].R) })
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// EliminationResult lists columns removed by recursive pairwise elimination, in removal order.
type EliminationResult struct {
	Method  stats.Method `json:"method"`
	Cutoff  float64      `json:"cutoff"`
	Dropped []string     `json:"dropped"`
}

// Found reports whether any column was eliminated.
func (r EliminationResult) Found() bool { return len(r.Dropped) > 0 }

func validateCorr(cutoff float64, method string) (stats.Method, error) {
	m, err := stats.ParseMethod(method)
	if err != nil {
		return "", &InvalidConfigurationError{Option: "correlation method", Value: method, Reason: "use pearson, spearman or kendall"}
	}
	if !(cutoff > 0 && cutoff < 1) {
		return "", &InvalidConfigurationError{Option: "correlation cutoff", Value: cutoff, Reason: "must lie in (0, 1)"}
	}
	return m, nil
}

// Correlations computes the pairwise-complete correlation matrix of the named numeric
// columns, or of every numeric column when names is empty.
func Correlations(d *dataset.Dataset, method string, names ...string) (CorrMatrix, error) {
	m, err := stats.ParseMethod(method)
	if err != nil {
		return CorrMatrix{}, &InvalidConfigurationError{Option: "correlation method", Value: method, Reason: "use pearson, spearman or kendall"}
	}
	cols, err := numericColumns(d, names)
	if err != nil {
		return CorrMatrix{}, err
	}
	return correlationMatrix(cols, m), nil
}

func correlationMatrix(cols []dataset.Column, m stats.Method) CorrMatrix {
	out := CorrMatrix{Method: m, Columns: make([]string, len(cols)), Values: make([][]float64, len(cols))}
	for i := range cols {
		out.Columns[i] = cols[i].Name
		out.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		out.Values[i][i] = 1
		for j := i + 1; j < len(cols); j++ {
			x, y := stats.PairwiseComplete(cols[i].Num, cols[j].Num, cols[i].Valid, cols[j].Valid)
			r := stats.Correlation(m, x, y)
			out.Values[i][j] = r
			out.Values[j][i] = r
		}
	}
	return out
}

func numericColumns(d *dataset.Dataset, names []string) ([]dataset.Column, error) {
	if len(names) == 0 {
		var cols []dataset.Column
		for _, c := range d.Columns() {
			if c.Kind == dataset.Numeric {
				cols = append(cols, c)
			}
		}
		return cols, nil
	}
	cols := make([]dataset.Column, 0, len(names))
	for _, n := range names {
		c, err := lookup(d, n)
		if err != nil {
			return nil, err
		}
		if err := requireKind(c, dataset.Numeric); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// FindCorrelated runs recursive pairwise elimination over the numeric columns of d.
// Categorical columns are ignored.
func FindCorrelated(d *dataset.Dataset, cutoff float64, method string) (EliminationResult, error) {
	return FindCorrelatedColumns(d, cutoff, method)
}

// FindCorrelatedColumns runs recursive pairwise elimination over the named columns.
// Naming a categorical column is an error.
//
// Each round takes the column A holding the largest remaining |r| (first in column order on
// ties) and its most correlated partner B, then drops whichever of the two has the higher
// mean |r| against the remaining columns, B on equal means. Rounds stop once no |r| exceeds
// the cutoff.
func FindCorrelatedColumns(d *dataset.Dataset, cutoff float64, method string, names ...string) (EliminationResult, error) {
	m, err := validateCorr(cutoff, method)
	if err != nil {
		return EliminationResult{}, err
	}
	cols, err := numericColumns(d, names)
	if err != nil {
		return EliminationResult{}, err
	}
	res := EliminationResult{Method: m, Cutoff: cutoff, Dropped: []string{}}
	cm := correlationMatrix(cols, m)
	abs := make([][]float64, len(cols))
	for i := range cm.Values {
		abs[i] = make([]float64, len(cols))
		for j, r := range cm.Values[i] {
			if i == j || math.IsNaN(r) {
				continue
			}
			abs[i][j] = math.Abs(r)
		}
	}

	active := make([]int, len(cols))
	for i := range active {
		active[i] = i
	}
	for len(active) > 1 {
		a, maxR := -1, 0.0
		for _, i := range active {
			if mx := rowMax(abs[i], active); a < 0 || mx > maxR {
				a, maxR = i, mx
			}
		}
		if maxR <= cutoff {
			break
		}
		b, bestR := -1, 0.0
		for _, j := range active {
			if b < 0 || abs[a][j] > bestR {
				b, bestR = j, abs[a][j]
			}
		}
		drop := b
		if rowMean(abs[a], active) > rowMean(abs[b], active) {
			drop = a
		}
		res.Dropped = append(res.Dropped, cols[drop].Name)
		active = removeIndex(active, drop)
	}
	return res, nil
}

func rowMax(row []float64, active []int) float64 {
	mx := math.Inf(-1)
	for _, j := range active {
		if row[j] > mx {
			mx = row[j]
		}
	}
	return mx
}

func rowMean(row []float64, active []int) float64 {
	var s float64
	for _, j := range active {
		s += row[j]
	}
	return s / float64(len(active))
}

func removeIndex(active []int, v int) []int {
	out := active[:0:0]
	for _, i := range active {
		if i != v {
			out = append(out, i)
		}
	}
	return out
}
