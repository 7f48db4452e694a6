package analysis

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

// ColumnProfile is the structural summary of one column.
type ColumnProfile struct {
	Name       string       `json:"name"`
	Kind       string       `json:"kind"`
	Semantic   SemanticType `json:"semantic"`
	Missing    int          `json:"missing"`
	MissingPct float64      `json:"missing_pct"`
	Distinct   int          `json:"distinct"`
	Constant   bool         `json:"constant"`
	AllMissing bool         `json:"all_missing"`
	IsKey      bool         `json:"is_key"`
	NZV        bool         `json:"nzv"`
}

// Structure profiles every column. Distinct counts exclude missing cells; a column is a
// key when every row holds a distinct present value.
func (p *Profiler) Structure(factorThreshold int) []ColumnProfile {
	v, _ := memo(p, "structure", []any{factorThreshold, p.settings.FreqCut, p.settings.UniqueCut}, func() ([]ColumnProfile, error) {
		defer p.timer("structure").Stop()
		missing := p.NAColCount()
		nzv := p.NearZeroVar(p.settings.FreqCut, p.settings.UniqueCut)
		out := make([]ColumnProfile, 0, p.data.NumCols())
		for i, c := range p.data.Columns() {
			distinct := distinctCount(c, false)
			out = append(out, ColumnProfile{
				Name:       c.Name,
				Kind:       c.Kind.String(),
				Semantic:   Classify(c, factorThreshold),
				Missing:    missing[i].Missing,
				MissingPct: missing[i].Percentage,
				Distinct:   distinct,
				Constant:   p.data.Rows() > 0 && distinctCount(c, true) == 1,
				AllMissing: p.data.Rows() > 0 && missing[i].Missing == p.data.Rows(),
				IsKey:      p.data.Rows() > 0 && distinct == p.data.Rows(),
				NZV:        nzv[i].NZV,
			})
		}
		return out, nil
	})
	return v
}

// OpErrors maps an operation name to the error it failed with.
type OpErrors map[string]error

// MarshalJSON renders errors as their messages.
func (e OpErrors) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(e))
	for k, v := range e {
		m[k] = v.Error()
	}
	return json.Marshal(m)
}

// UnmarshalJSON restores errors from their messages.
func (e *OpErrors) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*e = make(OpErrors, len(m))
	for k, v := range m {
		(*e)[k] = errors.New(v)
	}
	return nil
}

// Keys returns the failed operation names, sorted.
func (e OpErrors) Keys() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Summary aggregates the data-quality findings of a dataset.
type Summary struct {
	Name             string          `json:"name,omitempty"`
	Rows             int             `json:"rows"`
	Columns          int             `json:"columns"`
	DuplicatedRows   int             `json:"duplicated_rows"`
	ManyMissingPct   float64         `json:"many_missing_percentage"`
	ManyMissing      []string        `json:"manymissing_columns"`
	LowMissingPct    float64         `json:"low_missing_percentage"`
	LowMissing       []string        `json:"lowmissing_columns"`
	Keys             []string        `json:"keys_detected"`
	DuplicateColumns [][]string      `json:"dup_columns"`
	Constant         []string        `json:"constant_columns"`
	NearZeroVar      []string        `json:"nearzerovar_columns"`
	Correlated       []string        `json:"high_correlated_col"`
	StringThreshold  int             `json:"string_threshold"`
	BigStrings       []string        `json:"big_strings_col"`
	Outliers         map[string]int  `json:"outlier_rows"`
	Negative         map[string]int  `json:"negative_values"`
	Structure        []ColumnProfile `json:"structure"`
	Head             [][]string      `json:"-"`
	Errors           OpErrors        `json:"errors,omitempty"`
}

// Summary runs every detector with the profiler settings. A failing operation is
// recorded in Errors and the remaining ones still run.
func (p *Profiler) Summary() Summary {
	s := p.settings
	sum := Summary{
		Name:            p.data.Name,
		Rows:            p.data.Rows(),
		Columns:         p.data.NumCols(),
		ManyMissingPct:  s.ManyMissing,
		LowMissingPct:   s.LowMissing,
		StringThreshold: s.StringThreshold,
		ManyMissing:     []string{},
		Errors:          OpErrors{},
	}
	defer p.timer("psummary").Stop()

	if rows, err := p.DuplicateRows(nil); err != nil {
		sum.Errors["finduprow"] = err
	} else {
		sum.DuplicatedRows = rows.Repeats()
	}
	counts := p.NAColCount()
	for _, c := range counts {
		if c.Percentage > s.ManyMissing {
			sum.ManyMissing = append(sum.ManyMissing, c.Name)
		}
	}
	sum.LowMissing = LowMissingColumns(counts, s.LowMissing)
	sum.Keys = p.DetectKeys(s.Keys).Keys
	sum.DuplicateColumns = p.DuplicateColumns().Groups
	sum.Constant = p.ConstantColumns()
	sum.NearZeroVar = p.NearZeroVar(s.FreqCut, s.UniqueCut).Flagged()
	if rpe, err := p.FindCorrelated(s.CorrCutoff, s.CorrMethod); err != nil {
		sum.Errors["findcorr"] = err
		sum.Correlated = []string{}
	} else {
		sum.Correlated = rpe.Dropped
	}
	sum.BigStrings = BigStringColumns(p.data, s.StringThreshold)
	sum.Outliers = map[string]int{}
	if rep, err := p.Outliers(s.Outliers); err != nil {
		sum.Errors["outliers"] = err
	} else {
		for _, t := range rep.Tables {
			sum.Outliers[t.Column] = t.Count()
		}
		for col, err := range rep.Errors {
			sum.Errors["outliers/"+col] = err
		}
	}
	sum.Negative = p.NegativeCounts()
	sum.Structure = p.Structure(s.FactorMaxLevels)
	sum.Head = head(p.data, 5)
	return sum
}

func head(d *dataset.Dataset, n int) [][]string {
	if d.Rows() < n {
		n = d.Rows()
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		out[r] = d.Row(r)
	}
	return out
}
