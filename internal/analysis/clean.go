package analysis

import (
	"math/rand"
	"unicode/utf8"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

// CleaningOptions drives BasicCleaning.
type CleaningOptions struct {
	// ManyMissing drops columns whose missing share is >= this value; 0 disables.
	ManyMissing  float64
	DropColumns  []string
	DropConstant bool
}

// DefaultCleaningOptions drops columns at least 90% missing and constant columns.
func DefaultCleaningOptions() CleaningOptions {
	return CleaningOptions{ManyMissing: 0.9, DropConstant: true}
}

// CleaningResult is the cleaned dataset and the removed columns in removal order.
type CleaningResult struct {
	Data    *dataset.Dataset
	Removed []string
}

// BasicCleaning removes heavily missing columns, constant columns and user-listed columns.
func BasicCleaning(d *dataset.Dataset, rng *rand.Rand, opt CleaningOptions) (CleaningResult, error) {
	seen := map[string]bool{}
	var removed []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				removed = append(removed, n)
			}
		}
	}
	if opt.ManyMissing > 0 {
		add(ManyMissingColumns(NAColCount(d), opt.ManyMissing))
	}
	if opt.DropConstant {
		add(ConstantColumns(d, rng, 0.05, 10))
	}
	for _, n := range opt.DropColumns {
		if _, err := lookup(d, n); err != nil {
			return CleaningResult{}, err
		}
	}
	add(opt.DropColumns)
	if removed == nil {
		removed = []string{}
	}
	return CleaningResult{Data: d.Drop(removed...), Removed: removed}, nil
}

// MaxStringLen returns the longest value length, in characters, of each categorical column.
func MaxStringLen(d *dataset.Dataset) map[string]int {
	out := map[string]int{}
	for _, c := range d.Columns() {
		if c.Kind != dataset.Categorical {
			continue
		}
		mx := 0
		for i, s := range c.Str {
			if c.Valid[i] {
				if n := utf8.RuneCountInString(s); n > mx {
					mx = n
				}
			}
		}
		out[c.Name] = mx
	}
	return out
}

// BigStringColumns returns categorical columns holding a value longer than threshold, in column order.
func BigStringColumns(d *dataset.Dataset, threshold int) []string {
	lens := MaxStringLen(d)
	out := []string{}
	for _, c := range d.Columns() {
		if n, ok := lens[c.Name]; ok && n > threshold {
			out = append(out, c.Name)
		}
	}
	return out
}
