package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the declared storage kind of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// missingKey is the canonical key of an absent cell. It cannot collide with
// numeric keys (always prefixed "n:") nor categorical keys ("s:").
const missingKey = "\x00NA"

// Column is a named, ordered sequence of values of a single kind.
// Valid[i] == false marks row i as missing regardless of the payload value.
type Column struct {
	Name  string
	Kind  Kind
	Num   []float64 // numeric payload
	Str   []string  // categorical payload
	Valid []bool
}

// NewNumeric builds a numeric column. A nil valid slice means every value is present,
// NaN values are always treated as missing.
func NewNumeric(name string, vals []float64, valid []bool) Column {
	v := make([]bool, len(vals))
	for i, x := range vals {
		v[i] = !math.IsNaN(x) && (valid == nil || (i < len(valid) && valid[i]))
	}
	num := make([]float64, len(vals))
	copy(num, vals)
	return Column{Name: name, Kind: Numeric, Num: num, Valid: v}
}

// NewCategorical builds a categorical column. A nil valid slice means every value is present.
func NewCategorical(name string, vals []string, valid []bool) Column {
	v := make([]bool, len(vals))
	for i := range vals {
		v[i] = valid == nil || (i < len(valid) && valid[i])
	}
	str := make([]string, len(vals))
	copy(str, vals)
	return Column{Name: name, Kind: Categorical, Str: str, Valid: v}
}

// NumericFromPtrs builds a numeric column where nil entries are missing.
func NumericFromPtrs(name string, vals []*float64) Column {
	num := make([]float64, len(vals))
	valid := make([]bool, len(vals))
	for i, p := range vals {
		if p != nil {
			num[i] = *p
			valid[i] = true
		}
	}
	return NewNumeric(name, num, valid)
}

// CategoricalFromPtrs builds a categorical column where nil entries are missing.
func CategoricalFromPtrs(name string, vals []*string) Column {
	str := make([]string, len(vals))
	valid := make([]bool, len(vals))
	for i, p := range vals {
		if p != nil {
			str[i] = *p
			valid[i] = true
		}
	}
	return NewCategorical(name, str, valid)
}

// Len returns the number of rows.
func (c Column) Len() int { return len(c.Valid) }

// IsMissing reports whether row i is absent.
func (c Column) IsMissing(i int) bool { return !c.Valid[i] }

// MissingCount returns the number of absent rows.
func (c Column) MissingCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Key returns a canonical string for the cell at row i. Two cells are equal
// iff their keys are equal; all missing cells share one key.
func (c Column) Key(i int) string {
	if !c.Valid[i] {
		return missingKey
	}
	switch c.Kind {
	case Numeric:
		x := c.Num[i]
		if x == 0 {
			x = 0 // fold -0
		}
		return "n:" + strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return "s:" + c.Str[i]
	}
}

// IsMissingKey reports whether k is the key of a missing cell.
func IsMissingKey(k string) bool { return k == missingKey }

// Format renders row i for display and CSV output; missing renders as "".
func (c Column) Format(i int) string {
	if !c.Valid[i] {
		return ""
	}
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.Num[i], 'g', -1, 64)
	}
	return c.Str[i]
}

// Present returns the non-missing numeric values in row order.
// It returns nil for categorical columns.
func (c Column) Present() []float64 {
	if c.Kind != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.Num))
	for i, x := range c.Num {
		if c.Valid[i] {
			out = append(out, x)
		}
	}
	return out
}

// Equal reports whether two columns hold identical cells row by row.
// Columns of different kinds are never equal.
func (c Column) Equal(o Column) bool {
	if c.Kind != o.Kind || c.Len() != o.Len() {
		return false
	}
	for i := range c.Valid {
		if c.Valid[i] != o.Valid[i] {
			return false
		}
		if !c.Valid[i] {
			continue
		}
		if c.Kind == Numeric {
			if c.Num[i] != o.Num[i] {
				return false
			}
		} else if c.Str[i] != o.Str[i] {
			return false
		}
	}
	return true
}

// Slice returns a new column holding the given rows in order.
func (c Column) Slice(rows []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind, Valid: make([]bool, len(rows))}
	switch c.Kind {
	case Numeric:
		out.Num = make([]float64, len(rows))
		for j, r := range rows {
			out.Num[j] = c.Num[r]
			out.Valid[j] = c.Valid[r]
		}
	default:
		out.Str = make([]string, len(rows))
		for j, r := range rows {
			out.Str[j] = c.Str[r]
			out.Valid[j] = c.Valid[r]
		}
	}
	return out
}

// Clone returns a deep copy, optionally renamed.
func (c Column) Clone(name string) Column {
	if name == "" {
		name = c.Name
	}
	out := Column{Name: name, Kind: c.Kind, Valid: append([]bool(nil), c.Valid...)}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Str != nil {
		out.Str = append([]string(nil), c.Str...)
	}
	return out
}
