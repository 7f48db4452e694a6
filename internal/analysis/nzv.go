package analysis

import (
	"math/rand"
	"sort"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/stats"
)

// Near-zero-variance defaults: a 95/5 frequency ratio and 10% unique values.
const (
	DefaultFreqCut   = 95.0 / 5.0
	DefaultUniqueCut = 10.0
)

// ConstantColumns returns columns whose cells are all identical, missing cells included.
// Candidates are screened on a row sample and confirmed on every row.
func ConstantColumns(d *dataset.Dataset, rng *rand.Rand, fraction float64, minRows int) []string {
	out := []string{}
	if d.Rows() == 0 {
		return out
	}
	rows := stats.SampleIndices(rng, d.Rows(), stats.SampleSize(d.Rows(), fraction, minRows, 0))
	for _, c := range d.Columns() {
		if distinctCount(c.Slice(rows), true) != 1 {
			continue
		}
		if distinctCount(c, true) == 1 {
			out = append(out, c.Name)
		}
	}
	return out
}

// NZVMetrics holds the near-zero-variance measures of one column.
type NZVMetrics struct {
	Name          string  `json:"name"`
	FreqRatio     float64 `json:"freq_ratio"`
	PercentUnique float64 `json:"percent_unique"`
	ZeroVar       bool    `json:"zero_var"`
	NZV           bool    `json:"nzv"`
}

// NZVTable is the metrics table in column order.
type NZVTable []NZVMetrics

// Flagged returns the near-zero-variance columns.
func (t NZVTable) Flagged() []string {
	out := []string{}
	for _, m := range t {
		if m.NZV {
			out = append(out, m.Name)
		}
	}
	return out
}

// Kept returns the columns that are not near-zero-variance.
func (t NZVTable) Kept() []string {
	out := []string{}
	for _, m := range t {
		if !m.NZV {
			out = append(out, m.Name)
		}
	}
	return out
}

// NearZeroVar computes, per column, the ratio of the most to the second most frequent value
// and the percentage of distinct values. A column is flagged when it has at most one distinct
// value, or when freqRatio >= freqCut and percentUnique <= uniqueCut. Nothing is flagged
// without rows.
func NearZeroVar(d *dataset.Dataset, freqCut, uniqueCut float64) NZVTable {
	out := make(NZVTable, 0, d.NumCols())
	for _, c := range d.Columns() {
		keys, counts := valueCounts(c)
		m := NZVMetrics{Name: c.Name}
		if d.Rows() > 0 {
			m.PercentUnique = 100 * float64(len(keys)) / float64(d.Rows())
		}
		switch len(keys) {
		case 0:
			m.FreqRatio = 0
		case 1:
			m.FreqRatio = 1
		default:
			freq := make([]int, 0, len(keys))
			for _, k := range keys {
				freq = append(freq, counts[k])
			}
			sort.Sort(sort.Reverse(sort.IntSlice(freq)))
			m.FreqRatio = float64(freq[0]) / float64(freq[1])
		}
		m.ZeroVar = d.Rows() > 0 && len(keys) <= 1
		m.NZV = m.ZeroVar || (d.Rows() > 0 && m.FreqRatio >= freqCut && m.PercentUnique <= uniqueCut)
		out = append(out, m)
	}
	return out
}
