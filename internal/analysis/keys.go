package analysis

import (
	"math/rand"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/stats"
)

// KeyOptions controls candidate key detection.
type KeyOptions struct {
	Fraction float64
	MinRows  int
	MaxRows  int
	// DropNA ignores missing cells, so a key with gaps still qualifies.
	DropNA bool
	// Verify re-checks screened candidates on every row.
	Verify bool
}

// DefaultKeyOptions screens on 15% of the rows and verifies on the full data.
func DefaultKeyOptions() KeyOptions {
	return KeyOptions{Fraction: 0.15, MinRows: 10, Verify: true}
}

// KeyResult holds the per-column key mask and the key names in column order.
type KeyResult struct {
	Mask map[string]bool `json:"mask"`
	Keys []string        `json:"keys"`
}

// Found reports whether any key column was detected.
func (r KeyResult) Found() bool { return len(r.Keys) > 0 }

// DetectKeys flags columns whose values are unique per row.
func DetectKeys(d *dataset.Dataset, rng *rand.Rand, opt KeyOptions) KeyResult {
	res := KeyResult{Mask: make(map[string]bool, d.NumCols()), Keys: []string{}}
	size := stats.SampleSize(d.Rows(), opt.Fraction, opt.MinRows, opt.MaxRows)
	rows := stats.SampleIndices(rng, d.Rows(), size)
	for _, c := range d.Columns() {
		ok := size > 0 && isUnique(c.Slice(rows), opt.DropNA)
		if ok && opt.Verify {
			ok = isUnique(c, opt.DropNA)
		}
		res.Mask[c.Name] = ok
		if ok {
			res.Keys = append(res.Keys, c.Name)
		}
	}
	return res
}

// isUnique reports whether no value repeats. Without dropNA, missing cells count as one
// shared value; with dropNA they are ignored, but at least one value must be present.
func isUnique(c dataset.Column, dropNA bool) bool {
	seen := make(map[string]struct{}, c.Len())
	for i := 0; i < c.Len(); i++ {
		if dropNA && c.IsMissing(i) {
			continue
		}
		k := c.Key(i)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return !dropNA || len(seen) > 0
}
