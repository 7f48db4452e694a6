package analysis

import (
	"math"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

// FactorResult holds the per-column factor mask and the factor names in column order.
type FactorResult struct {
	Mask    map[string]bool `json:"mask"`
	Factors []string        `json:"factors"`
}

// Factors detects categorical columns with at most max(maxLevels, thresholdFraction*rows)
// distinct values. The scan stops as soon as the cap is reached and another value arrives.
// Missing cells count as one level. Without rows no column is a factor.
func Factors(d *dataset.Dataset, maxLevels int, thresholdFraction float64) FactorResult {
	limit := float64(maxLevels)
	if thresholdFraction > 0 {
		limit = math.Max(limit, thresholdFraction*float64(d.Rows()))
	}
	res := FactorResult{Mask: make(map[string]bool, d.NumCols()), Factors: []string{}}
	for _, c := range d.Columns() {
		ok := d.Rows() > 0 && isFactor(c, limit)
		res.Mask[c.Name] = ok
		if ok {
			res.Factors = append(res.Factors, c.Name)
		}
	}
	return res
}

func isFactor(c dataset.Column, limit float64) bool {
	if c.Kind == dataset.Numeric {
		return false
	}
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		k := c.Key(i)
		if _, ok := seen[k]; ok {
			continue
		}
		if float64(len(seen)) >= limit {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}
