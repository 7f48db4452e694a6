package analysis

import (
	"sort"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

// ImportanceRow is one predictor with its externally computed scores and
// whether recursive pairwise elimination kept it.
type ImportanceRow struct {
	Predictor string             `json:"predictor"`
	Scores    map[string]float64 `json:"scores"`
	RPE       bool               `json:"rpe"`
}

// ImportanceTable merges importance vectors by predictor name.
type ImportanceTable struct {
	Methods []string        `json:"methods"`
	Rows    []ImportanceRow `json:"rows"`
}

// MergeImportance joins precomputed importance scores (method -> predictor -> score) with the
// elimination result. Only predictors scored by every method are kept, in the given order.
func MergeImportance(predictors []string, scores map[string]map[string]float64, rpe EliminationResult) ImportanceTable {
	methods := make([]string, 0, len(scores))
	for m := range scores {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	dropped := make(map[string]bool, len(rpe.Dropped))
	for _, n := range rpe.Dropped {
		dropped[n] = true
	}
	t := ImportanceTable{Methods: methods, Rows: []ImportanceRow{}}
outer:
	for _, p := range predictors {
		row := ImportanceRow{Predictor: p, Scores: make(map[string]float64, len(methods)), RPE: !dropped[p]}
		for _, m := range methods {
			v, ok := scores[m][p]
			if !ok {
				continue outer
			}
			row.Scores[m] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Dataset lays the table out as a predictor column, one numeric column per method and a 0/1 rpe column.
func (t ImportanceTable) Dataset() (*dataset.Dataset, error) {
	names := make([]string, len(t.Rows))
	rpe := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		names[i] = r.Predictor
		if r.RPE {
			rpe[i] = 1
		}
	}
	cols := []dataset.Column{dataset.NewCategorical("predictor", names, nil)}
	for _, m := range t.Methods {
		v := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			v[i] = r.Scores[m]
		}
		cols = append(cols, dataset.NewNumeric(m, v, nil))
	}
	cols = append(cols, dataset.NewNumeric("rpe", rpe, nil))
	return dataset.New(cols...)
}
