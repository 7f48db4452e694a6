package analysis

import (
	"strconv"
	"strings"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/stats"
)

// FillRule names an imputation strategy.
type FillRule string

const (
	FillAuto     FillRule = "auto" // mean for numeric, mode for categorical
	FillMean     FillRule = "mean"
	FillMedian   FillRule = "median"
	FillMode     FillRule = "mode"
	FillConstant FillRule = "constant"
)

// ParseFillRule validates a rule name.
func ParseFillRule(s string) (FillRule, error) {
	switch r := FillRule(strings.ToLower(strings.TrimSpace(s))); r {
	case FillAuto, FillMean, FillMedian, FillMode, FillConstant:
		return r, nil
	case "":
		return FillAuto, nil
	default:
		return "", &InvalidConfigurationError{Option: "fill rule", Value: s, Reason: "use auto, mean, median, mode or constant"}
	}
}

// FillResult is the outcome of an imputation pass. Skipped columns had no present
// value to impute from and are left untouched.
type FillResult struct {
	Data    *dataset.Dataset
	Filled  []string
	Skipped []string
}

// FillNA replaces the missing cells of one column. value is only used by FillConstant.
func FillNA(d *dataset.Dataset, name string, rule FillRule, value string) (FillResult, error) {
	c, err := lookup(d, name)
	if err != nil {
		return FillResult{}, err
	}
	filled, ok, err := fillColumn(c, rule, value)
	if err != nil {
		return FillResult{}, err
	}
	if !ok {
		return FillResult{Data: d, Filled: []string{}, Skipped: []string{name}}, nil
	}
	nd, err := d.Replace(filled)
	if err != nil {
		return FillResult{}, err
	}
	return FillResult{Data: nd, Filled: []string{name}, Skipped: []string{}}, nil
}

// FillLowNA imputes, with the auto rule, the given columns plus every column whose
// missing share lies strictly between 0 and threshold. A threshold <= 0 selects none.
func FillLowNA(d *dataset.Dataset, columns []string, threshold float64) (FillResult, error) {
	selected := map[string]bool{}
	var order []string
	add := func(n string) {
		if !selected[n] {
			selected[n] = true
			order = append(order, n)
		}
	}
	for _, n := range columns {
		if _, err := lookup(d, n); err != nil {
			return FillResult{}, err
		}
		add(n)
	}
	if threshold > 0 {
		for _, m := range NAColCount(d) {
			if m.Percentage > 0 && m.Percentage < threshold {
				add(m.Name)
			}
		}
	}
	res := FillResult{Data: d, Filled: []string{}, Skipped: []string{}}
	var repl []dataset.Column
	for _, n := range order {
		c, _ := d.Column(n)
		if c.MissingCount() == 0 {
			continue
		}
		filled, ok, err := fillColumn(c, FillAuto, "")
		if err != nil {
			return FillResult{}, err
		}
		if !ok {
			res.Skipped = append(res.Skipped, n)
			continue
		}
		repl = append(repl, filled)
		res.Filled = append(res.Filled, n)
	}
	if len(repl) == 0 {
		return res, nil
	}
	nd, err := d.Replace(repl...)
	if err != nil {
		return FillResult{}, err
	}
	res.Data = nd
	return res, nil
}

// fillColumn returns the imputed column; ok is false when nothing can be imputed from.
func fillColumn(c dataset.Column, rule FillRule, value string) (dataset.Column, bool, error) {
	if rule == FillAuto {
		rule = FillMean
		if c.Kind == dataset.Categorical {
			rule = FillMode
		}
	}
	if rule == FillConstant {
		return fillConstant(c, value)
	}
	if c.MissingCount() == c.Len() {
		return c, false, nil
	}
	out := c.Clone("")
	switch rule {
	case FillMean, FillMedian:
		if err := requireKind(c, dataset.Numeric); err != nil {
			return c, false, err
		}
		v := stats.Mean(c.Present())
		if rule == FillMedian {
			v = stats.Median(c.Present())
		}
		for i := range out.Valid {
			if !out.Valid[i] {
				out.Num[i], out.Valid[i] = v, true
			}
		}
	case FillMode:
		row := modeRow(c)
		for i := range out.Valid {
			if out.Valid[i] {
				continue
			}
			out.Valid[i] = true
			if c.Kind == dataset.Numeric {
				out.Num[i] = c.Num[row]
			} else {
				out.Str[i] = c.Str[row]
			}
		}
	default:
		return c, false, &InvalidConfigurationError{Option: "fill rule", Value: string(rule)}
	}
	return out, true, nil
}

func fillConstant(c dataset.Column, value string) (dataset.Column, bool, error) {
	out := c.Clone("")
	var num float64
	if c.Kind == dataset.Numeric {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return c, false, &InvalidConfigurationError{Option: "fill value", Value: value, Reason: "column " + c.Name + " is numeric"}
		}
		num = v
	}
	for i := range out.Valid {
		if out.Valid[i] {
			continue
		}
		out.Valid[i] = true
		if c.Kind == dataset.Numeric {
			out.Num[i] = num
		} else {
			out.Str[i] = value
		}
	}
	return out, true, nil
}

// modeRow returns the first row holding the most frequent present value.
// Ties go to the value seen first.
func modeRow(c dataset.Column) int {
	first := map[string]int{}
	count := map[string]int{}
	best, bestN := -1, 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		k := c.Key(i)
		if _, ok := first[k]; !ok {
			first[k] = i
		}
		count[k]++
		n := count[k]
		if n > bestN || (n == bestN && first[k] < best) {
			best, bestN = first[k], n
		}
	}
	return best
}
