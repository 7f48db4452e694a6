package dataset

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Dataset is an ordered set of equally long, uniquely named columns.
// It is never mutated after construction; transforms return a new Dataset.
type Dataset struct {
	Name    string
	cols    []Column
	index   map[string]int
	rows    int
	version string
}

// ErrEmptyName is returned when a column has no name.
var ErrEmptyName = errors.New("column name is empty")

// New validates and assembles columns into a Dataset.
func New(cols ...Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(cols)), version: uuid.NewString()}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyName)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), d.rows)
		}
		if c.Kind == Numeric && len(c.Num) != c.Len() || c.Kind == Categorical && len(c.Str) != c.Len() {
			return nil, fmt.Errorf("column %q: payload length does not match validity mask", c.Name)
		}
		d.index[c.Name] = i
	}
	d.cols = cols
	return d, nil
}

// MustNew is New that panics on error. Intended for fixtures.
func MustNew(cols ...Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// Rows returns the row count.
func (d *Dataset) Rows() int { return d.rows }

// NumCols returns the column count.
func (d *Dataset) NumCols() int { return len(d.cols) }

// Version identifies this Dataset instance; derived datasets get a new one.
func (d *Dataset) Version() string { return d.version }

// Columns returns the columns in insertion order. Callers must not mutate them.
func (d *Dataset) Columns() []Column { return d.cols }

// Names returns column names in insertion order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of a column, or -1.
func (d *Dataset) Index(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.cols[i], true
}

// NumericNames returns the names of numeric columns in order.
func (d *Dataset) NumericNames() []string {
	var out []string
	for _, c := range d.cols {
		if c.Kind == Numeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// Take returns a Dataset with the given rows, in the given order.
func (d *Dataset) Take(rows []int) *Dataset {
	cols := make([]Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.Slice(rows)
	}
	return &Dataset{Name: d.Name, cols: cols, index: d.cloneIndex(), rows: len(rows), version: uuid.NewString()}
}

// Drop returns a Dataset without the named columns. Unknown names are ignored.
func (d *Dataset) Drop(names ...string) *Dataset {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var keep []Column
	for _, c := range d.cols {
		if !skip[c.Name] {
			keep = append(keep, c)
		}
	}
	return d.derive(keep)
}

// Select returns a Dataset with only the named columns, in the given order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		c, ok := d.Column(n)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", n)
		}
		cols = append(cols, c)
	}
	return d.derive(cols), nil
}

// Replace returns a Dataset where columns with matching names are swapped for
// the given ones and any new names are appended.
func (d *Dataset) Replace(cols ...Column) (*Dataset, error) {
	out := make([]Column, len(d.cols))
	copy(out, d.cols)
	for _, c := range cols {
		if i, ok := d.index[c.Name]; ok {
			out[i] = c
		} else {
			out = append(out, c)
		}
	}
	nd, err := New(out...)
	if err != nil {
		return nil, err
	}
	nd.Name = d.Name
	return nd, nil
}

// Row renders row r as display strings in column order.
func (d *Dataset) Row(r int) []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Format(r)
	}
	return out
}

func (d *Dataset) derive(cols []Column) *Dataset {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c.Name] = i
	}
	return &Dataset{Name: d.Name, cols: cols, index: idx, rows: d.rows, version: uuid.NewString()}
}

func (d *Dataset) cloneIndex() map[string]int {
	idx := make(map[string]int, len(d.index))
	for k, v := range d.index {
		idx[k] = v
	}
	return idx
}
