package analysis

import "github.com/KaramelBytes/dataclean-cli/internal/dataset"

// ColumnMissing is the missing-value tally of one column.
type ColumnMissing struct {
	Name       string  `json:"name"`
	Missing    int     `json:"missing"`
	Percentage float64 `json:"percentage"`
}

// RowMissing is the missing-value tally of one row. Percentage is relative to the column count.
type RowMissing struct {
	Row        int     `json:"row"`
	Missing    int     `json:"missing"`
	Percentage float64 `json:"percentage"`
}

// NAColCount counts missing cells per column, as a share of the row count.
func NAColCount(d *dataset.Dataset) []ColumnMissing {
	out := make([]ColumnMissing, 0, d.NumCols())
	for _, c := range d.Columns() {
		m := c.MissingCount()
		pct := 0.0
		if d.Rows() > 0 {
			pct = float64(m) / float64(d.Rows())
		}
		out = append(out, ColumnMissing{Name: c.Name, Missing: m, Percentage: pct})
	}
	return out
}

// NARowCount counts missing cells per row, as a share of the column count.
func NARowCount(d *dataset.Dataset) []RowMissing {
	out := make([]RowMissing, d.Rows())
	for r := range out {
		out[r].Row = r
	}
	for _, c := range d.Columns() {
		for r := 0; r < c.Len(); r++ {
			if c.IsMissing(r) {
				out[r].Missing++
			}
		}
	}
	if n := d.NumCols(); n > 0 {
		for r := range out {
			out[r].Percentage = float64(out[r].Missing) / float64(n)
		}
	}
	return out
}

// ManyMissingColumns filters column tallies with percentage >= threshold.
func ManyMissingColumns(counts []ColumnMissing, threshold float64) []string {
	out := []string{}
	for _, c := range counts {
		if c.Percentage >= threshold {
			out = append(out, c.Name)
		}
	}
	return out
}

// ManyMissingRows filters row tallies with percentage >= threshold.
func ManyMissingRows(counts []RowMissing, threshold float64) []int {
	out := []int{}
	for _, r := range counts {
		if r.Percentage >= threshold {
			out = append(out, r.Row)
		}
	}
	return out
}

// LowMissingColumns returns columns whose missing share lies in (0, threshold].
func LowMissingColumns(counts []ColumnMissing, threshold float64) []string {
	out := []string{}
	for _, c := range counts {
		if c.Percentage > 0 && c.Percentage <= threshold {
			out = append(out, c.Name)
		}
	}
	return out
}
