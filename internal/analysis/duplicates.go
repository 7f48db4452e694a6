package analysis

import (
	"encoding/binary"
	"math/rand"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/stats"
)

// DuplicateOptions controls the sampled screening pass of duplicate column detection.
type DuplicateOptions struct {
	Fraction float64
	MinRows  int
	MaxRows  int
}

// DefaultDuplicateOptions screens on at most 100 sampled rows.
func DefaultDuplicateOptions() DuplicateOptions {
	return DuplicateOptions{Fraction: 0.05, MinRows: 10, MaxRows: 100}
}

// DuplicateColumnsResult lists groups of columns holding identical values.
// Groups are disjoint, have at least two members and follow column order.
type DuplicateColumnsResult struct {
	Groups [][]string `json:"groups"`
}

// Found reports whether any duplicate group exists.
func (r DuplicateColumnsResult) Found() bool { return len(r.Groups) > 0 }

// Redundant returns every group member except the first, i.e. the columns that can be dropped.
func (r DuplicateColumnsResult) Redundant() []string {
	out := []string{}
	for _, g := range r.Groups {
		out = append(out, g[1:]...)
	}
	return out
}

func (r DuplicateColumnsResult) String() string {
	if !r.Found() {
		return "no duplicated columns"
	}
	s := ""
	for i, g := range r.Groups {
		if i > 0 {
			s += "; "
		}
		for j, n := range g {
			if j > 0 {
				s += " = "
			}
			s += n
		}
	}
	return s
}

// DuplicateColumns finds groups of identical columns. Columns sharing a fingerprint on a
// row sample are shortlisted, then compared over every row.
func DuplicateColumns(d *dataset.Dataset, rng *rand.Rand, opt DuplicateOptions) DuplicateColumnsResult {
	res := DuplicateColumnsResult{Groups: [][]string{}}
	cols := d.Columns()
	if len(cols) < 2 || d.Rows() == 0 {
		return res
	}
	size := stats.SampleSize(d.Rows(), opt.Fraction, opt.MinRows, opt.MaxRows)
	rows := stats.SampleIndices(rng, d.Rows(), size)
	sort.Ints(rows)

	buckets := make(map[uint64][]int)
	var order []uint64
	for i, c := range cols {
		h := columnFingerprint(c, rows)
		if _, ok := buckets[h]; !ok {
			order = append(order, h)
		}
		buckets[h] = append(buckets[h], i)
	}

	var groups [][]int
	for _, h := range order {
		cand := buckets[h]
		if len(cand) < 2 {
			continue
		}
		groups = append(groups, verifyColumns(cols, cand)...)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })
	for _, g := range groups {
		names := make([]string, len(g))
		for j, i := range g {
			names[j] = cols[i].Name
		}
		res.Groups = append(res.Groups, names)
	}
	return res
}

// verifyColumns partitions shortlisted columns into classes of full-length equality.
func verifyColumns(cols []dataset.Column, cand []int) [][]int {
	var classes [][]int
	full := make(map[uint64][]int)
	for _, i := range cand {
		h := columnFingerprint(cols[i], nil)
		placed := false
		for _, ci := range full[h] {
			if cols[classes[ci][0]].Equal(cols[i]) {
				classes[ci] = append(classes[ci], i)
				placed = true
				break
			}
		}
		if !placed {
			classes = append(classes, []int{i})
			full[h] = append(full[h], len(classes)-1)
		}
	}
	out := classes[:0]
	for _, c := range classes {
		if len(c) > 1 {
			out = append(out, c)
		}
	}
	return out
}

// columnFingerprint hashes the kind and cell keys of the given rows (all rows when nil).
func columnFingerprint(c dataset.Column, rows []int) uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte{byte(c.Kind)})
	if rows == nil {
		for i := 0; i < c.Len(); i++ {
			writeKey(h, c.Key(i))
		}
		return h.Sum64()
	}
	for _, i := range rows {
		writeKey(h, c.Key(i))
	}
	return h.Sum64()
}

func writeKey(h *xxhash.Digest, k string) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(k)))
	_, _ = h.Write(n[:])
	_, _ = h.WriteString(k)
}

// DuplicateRowsResult lists groups of identical rows. Every member of a group is a duplicate.
type DuplicateRowsResult struct {
	Subset []string `json:"subset,omitempty"`
	Groups [][]int  `json:"groups"`
}

// Found reports whether any duplicated row exists.
func (r DuplicateRowsResult) Found() bool { return len(r.Groups) > 0 }

// Rows returns every flagged row index in ascending order.
func (r DuplicateRowsResult) Rows() []int {
	out := []int{}
	for _, g := range r.Groups {
		out = append(out, g...)
	}
	sort.Ints(out)
	return out
}

// Repeats counts rows that repeat an earlier row.
func (r DuplicateRowsResult) Repeats() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g) - 1
	}
	return n
}

func (r DuplicateRowsResult) String() string {
	if !r.Found() {
		return "no duplicated rows"
	}
	return "duplicated rows found"
}

// DuplicateRows groups rows whose cells match on subset (all columns when empty).
func DuplicateRows(d *dataset.Dataset, subset []string) (DuplicateRowsResult, error) {
	res := DuplicateRowsResult{Subset: subset, Groups: [][]int{}}
	var cols []dataset.Column
	if len(subset) == 0 {
		cols = d.Columns()
	} else {
		for _, n := range subset {
			c, err := lookup(d, n)
			if err != nil {
				return res, err
			}
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return res, nil
	}

	keys := func(r int) []string {
		k := make([]string, len(cols))
		for j, c := range cols {
			k[j] = c.Key(r)
		}
		return k
	}
	buckets := make(map[uint64][]int) // row hash -> indices into groups
	var groups [][]int
	var reps [][]string
	for r := 0; r < d.Rows(); r++ {
		rk := keys(r)
		h := xxhash.New()
		for _, k := range rk {
			writeKey(h, k)
		}
		sum := h.Sum64()
		placed := false
		for _, gi := range buckets[sum] {
			if equalKeys(reps[gi], rk) {
				groups[gi] = append(groups[gi], r)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []int{r})
			reps = append(reps, rk)
			buckets[sum] = append(buckets[sum], len(groups)-1)
		}
	}
	for _, g := range groups {
		if len(g) > 1 {
			res.Groups = append(res.Groups, g)
		}
	}
	return res, nil
}

func equalKeys(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
