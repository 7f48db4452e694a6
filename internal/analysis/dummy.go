package analysis

import (
	"fmt"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

// LevelPolicy decides what happens to a column with more levels than allowed.
type LevelPolicy string

const (
	PolicyDrop LevelPolicy = "drop"
	PolicyKeep LevelPolicy = "keep"
)

// ParseLevelPolicy validates a policy name.
func ParseLevelPolicy(s string) (LevelPolicy, error) {
	switch p := LevelPolicy(s); p {
	case PolicyDrop, PolicyKeep:
		return p, nil
	case "":
		return PolicyKeep, nil
	default:
		return "", &InvalidConfigurationError{Option: "levels policy", Value: s, Reason: "use drop or keep"}
	}
}

// DummyOptions selects the columns to one-hot encode.
type DummyOptions struct {
	// Auto encodes every factor column detected with LevelsLimit as cap.
	Auto        bool
	Subset      []string
	LevelsLimit int
	IncludeNA   bool
	Policy      LevelPolicy
}

// DefaultDummyOptions allows 30 levels, adds a missing indicator and keeps wide columns.
func DefaultDummyOptions() DummyOptions {
	return DummyOptions{LevelsLimit: 30, IncludeNA: true, Policy: PolicyKeep}
}

// DummyResult is the encoded dataset and what happened to each selected column.
// NonNumeric lists columns that are still categorical after encoding.
type DummyResult struct {
	Data       *dataset.Dataset
	Encoded    []string
	Dropped    []string
	Untouched  []string
	NonNumeric []string
}

// ToDummy expands selected categorical columns into 0/1 indicator columns named
// <col>_<level>, levels in first-seen order, plus <col>_nan when IncludeNA is set.
// Indicators take the position of the column they replace. A name already taken by
// another column or indicator gets a __N suffix; the missing indicator keeps <col>_nan.
func ToDummy(d *dataset.Dataset, opt DummyOptions) (DummyResult, error) {
	if opt.LevelsLimit <= 0 {
		return DummyResult{}, &InvalidConfigurationError{Option: "levels limit", Value: opt.LevelsLimit, Reason: "must be positive"}
	}
	if _, err := ParseLevelPolicy(string(opt.Policy)); err != nil {
		return DummyResult{}, err
	}
	selected := map[string]bool{}
	for _, n := range opt.Subset {
		c, err := lookup(d, n)
		if err != nil {
			return DummyResult{}, err
		}
		if err := requireKind(c, dataset.Categorical); err != nil {
			return DummyResult{}, err
		}
		selected[n] = true
	}
	if opt.Auto {
		for _, n := range Factors(d, opt.LevelsLimit, 0).Factors {
			selected[n] = true
		}
	}

	res := DummyResult{Encoded: []string{}, Dropped: []string{}, Untouched: []string{}, NonNumeric: []string{}}
	var cols []dataset.Column
	taken := make(map[string]bool, d.NumCols())
	for _, n := range d.Names() {
		taken[n] = true
	}
	for _, c := range d.Columns() {
		if !selected[c.Name] {
			cols = append(cols, c)
			continue
		}
		levels, _ := valueCounts(c)
		if len(levels) > opt.LevelsLimit {
			if opt.Policy == PolicyDrop {
				res.Dropped = append(res.Dropped, c.Name)
				continue
			}
			res.Untouched = append(res.Untouched, c.Name)
			cols = append(cols, c)
			continue
		}
		cols = append(cols, indicators(c, levels, opt.IncludeNA, taken)...)
		res.Encoded = append(res.Encoded, c.Name)
	}
	for _, c := range cols {
		if c.Kind != dataset.Numeric {
			res.NonNumeric = append(res.NonNumeric, c.Name)
		}
	}
	nd, err := dataset.New(cols...)
	if err != nil {
		return DummyResult{}, fmt.Errorf("assemble encoded dataset: %w", err)
	}
	nd.Name = d.Name
	if d.NumCols() > 0 && nd.NumCols() == 0 {
		nd = d.Drop(d.Names()...)
	}
	res.Data = nd
	return res, nil
}

func indicators(c dataset.Column, levels []string, includeNA bool, taken map[string]bool) []dataset.Column {
	pos := make(map[string]int, len(levels))
	names := make([]string, len(levels))
	for j, k := range levels {
		pos[k] = j
	}
	vals := make([][]float64, len(levels))
	for j := range vals {
		vals[j] = make([]float64, c.Len())
	}
	var na []float64
	if includeNA {
		na = make([]float64, c.Len())
	}
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			if na != nil {
				na[i] = 1
			}
			continue
		}
		j := pos[c.Key(i)]
		if names[j] == "" {
			names[j] = c.Name + "_" + c.Format(i)
		}
		vals[j][i] = 1
	}
	var naName string
	if na != nil {
		naName = reserveName(taken, c.Name+"_nan")
	}
	out := make([]dataset.Column, 0, len(levels)+1)
	for j := range levels {
		out = append(out, dataset.NewNumeric(reserveName(taken, names[j]), vals[j], nil))
	}
	if na != nil {
		out = append(out, dataset.NewNumeric(naName, na, nil))
	}
	return out
}

// reserveName returns name, or name__N for the first free N >= 2, and marks it taken.
func reserveName(taken map[string]bool, name string) string {
	cand := name
	for n := 2; taken[cand]; n++ {
		cand = fmt.Sprintf("%s__%d", name, n)
	}
	taken[cand] = true
	return cand
}
