package analysis

import (
	"errors"
	"math"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/stats"
)

// Score names accepted by Outliers.
const (
	ScoreZ   = "z"
	ScoreIQR = "iqr"
	ScoreMAD = "mad"
)

type scoreFunc func([]float64) ([]float64, error)

var scoreFuncs = map[string]scoreFunc{
	ScoreZ:   stats.ZScore,
	ScoreIQR: stats.IQRScore,
	ScoreMAD: stats.MADScore,
}

var scoreStat = map[string]string{
	ScoreZ:   "standard deviation",
	ScoreIQR: "interquartile range",
	ScoreMAD: "median absolute deviation",
}

// DefaultCutoffs are the |score| thresholds at which a row is flagged.
func DefaultCutoffs() map[string]float64 {
	return map[string]float64{ScoreZ: 3, ScoreIQR: 2, ScoreMAD: 2}
}

// OutlierOptions selects scores, cutoffs and columns. Empty Scores means all three,
// empty Columns means every numeric column, missing cutoffs fall back to the defaults.
type OutlierOptions struct {
	Scores  []string
	Cutoffs map[string]float64
	Columns []string
}

// OutlierTable holds the per-row scores and flags of one numeric column.
// Rows missing in the source column score NaN and are never flagged.
type OutlierTable struct {
	Column    string
	Scores    map[string][]float64
	Flags     map[string][]bool
	IsOutlier []bool
	order     []string
}

// ScoreNames returns the scores of the table in request order.
func (t OutlierTable) ScoreNames() []string { return t.order }

// Count returns the number of rows flagged by any score.
func (t OutlierTable) Count() int {
	n := 0
	for _, f := range t.IsOutlier {
		if f {
			n++
		}
	}
	return n
}

// Headers returns the flat column names <col>_<score> followed by <col>_is_outlier.
func (t OutlierTable) Headers() []string {
	out := make([]string, 0, len(t.order)+1)
	for _, s := range t.order {
		out = append(out, t.Column+"_"+s)
	}
	return append(out, t.Column+"_is_outlier")
}

// OutlierReport is the concatenation of per-column tables. Columns whose
// dispersion is zero for a requested score are listed in Errors instead.
type OutlierReport struct {
	Rows   int
	Tables []OutlierTable
	Errors map[string]error
}

// Found reports whether any row was flagged in any column.
func (r OutlierReport) Found() bool {
	for _, t := range r.Tables {
		if t.Count() > 0 {
			return true
		}
	}
	return false
}

// Dataset flattens the report into numeric score columns and 0/1 outlier flags.
func (r OutlierReport) Dataset() (*dataset.Dataset, error) {
	var cols []dataset.Column
	for _, t := range r.Tables {
		h := t.Headers()
		for i, s := range t.order {
			cols = append(cols, dataset.NewNumeric(h[i], t.Scores[s], nil))
		}
		flag := make([]float64, len(t.IsOutlier))
		for i, f := range t.IsOutlier {
			if f {
				flag[i] = 1
			}
		}
		cols = append(cols, dataset.NewNumeric(h[len(h)-1], flag, nil))
	}
	return dataset.New(cols...)
}

func validateScores(opt OutlierOptions) ([]string, map[string]float64, error) {
	scores := opt.Scores
	if len(scores) == 0 {
		scores = []string{ScoreZ, ScoreIQR, ScoreMAD}
	}
	cutoffs := DefaultCutoffs()
	for _, s := range scores {
		if _, ok := scoreFuncs[s]; !ok {
			return nil, nil, &InvalidConfigurationError{Option: "outlier score", Value: s, Reason: "use z, iqr or mad"}
		}
	}
	for s, v := range opt.Cutoffs {
		if _, ok := scoreFuncs[s]; !ok {
			return nil, nil, &InvalidConfigurationError{Option: "outlier cutoff", Value: s, Reason: "unknown score"}
		}
		if !(v > 0) {
			return nil, nil, &InvalidConfigurationError{Option: "outlier cutoff " + s, Value: v, Reason: "must be positive"}
		}
		cutoffs[s] = v
	}
	return scores, cutoffs, nil
}

// Outliers scores every selected numeric column and flags rows with |score| >= cutoff.
// Configuration problems fail the whole call; a degenerate column only drops that column.
// A dataset without rows yields an empty report.
func Outliers(d *dataset.Dataset, opt OutlierOptions) (OutlierReport, error) {
	scores, cutoffs, err := validateScores(opt)
	if err != nil {
		return OutlierReport{}, err
	}
	cols, err := numericColumns(d, opt.Columns)
	if err != nil {
		return OutlierReport{}, err
	}
	rep := OutlierReport{Rows: d.Rows(), Errors: map[string]error{}}
	if d.Rows() == 0 {
		return rep, nil
	}
	for _, c := range cols {
		t, err := scoreColumn(c, scores, cutoffs)
		if err != nil {
			rep.Errors[c.Name] = err
			continue
		}
		rep.Tables = append(rep.Tables, t)
	}
	return rep, nil
}

func scoreColumn(c dataset.Column, scores []string, cutoffs map[string]float64) (OutlierTable, error) {
	present := c.Present()
	if len(present) == 0 {
		return OutlierTable{}, &DegenerateDistributionError{Column: c.Name, Stat: "present value count"}
	}
	t := OutlierTable{
		Column:    c.Name,
		Scores:    make(map[string][]float64, len(scores)),
		Flags:     make(map[string][]bool, len(scores)),
		IsOutlier: make([]bool, c.Len()),
		order:     scores,
	}
	for _, s := range scores {
		vals, err := scoreFuncs[s](present)
		if err != nil {
			if errors.Is(err, stats.ErrZeroDispersion) {
				return OutlierTable{}, &DegenerateDistributionError{Column: c.Name, Stat: scoreStat[s]}
			}
			return OutlierTable{}, err
		}
		full := make([]float64, c.Len())
		flags := make([]bool, c.Len())
		k := 0
		for i := range full {
			if c.IsMissing(i) {
				full[i] = math.NaN()
				continue
			}
			full[i] = vals[k]
			k++
			if math.Abs(full[i]) >= cutoffs[s] {
				flags[i] = true
				t.IsOutlier[i] = true
			}
		}
		t.Scores[s] = full
		t.Flags[s] = flags
	}
	return t, nil
}

// NegativeCounts returns the number of negative values per numeric column.
func NegativeCounts(d *dataset.Dataset) map[string]int {
	out := map[string]int{}
	for _, c := range d.Columns() {
		if c.Kind != dataset.Numeric {
			continue
		}
		n := 0
		for _, v := range c.Present() {
			if v < 0 {
				n++
			}
		}
		out[c.Name] = n
	}
	return out
}
