package analysis

import (
	"fmt"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

// InvalidColumnKindError indicates an operation was applied to a column of the wrong kind.
type InvalidColumnKindError struct {
	Column string
	Want   dataset.Kind
	Got    dataset.Kind
}

func (e *InvalidColumnKindError) Error() string {
	return fmt.Sprintf("column %q is %s, want %s", e.Column, e.Got, e.Want)
}

// DegenerateDistributionError indicates a score that is undefined for a column: its standard
// deviation, IQR or MAD is zero, or it has no present values.
type DegenerateDistributionError struct {
	Column string
	Stat   string
}

func (e *DegenerateDistributionError) Error() string {
	return fmt.Sprintf("column %q: %s is zero, score undefined", e.Column, e.Stat)
}

// InvalidConfigurationError indicates an unrecognized or out-of-range option.
type InvalidConfigurationError struct {
	Option string
	Value  any
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s: %v", e.Option, e.Value)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Option, e.Value, e.Reason)
}

func lookup(d *dataset.Dataset, name string) (dataset.Column, error) {
	c, ok := d.Column(name)
	if !ok {
		return dataset.Column{}, &InvalidConfigurationError{Option: "column", Value: name, Reason: "not in dataset"}
	}
	return c, nil
}

func requireKind(c dataset.Column, want dataset.Kind) error {
	if c.Kind != want {
		return &InvalidColumnKindError{Column: c.Name, Want: want, Got: c.Kind}
	}
	return nil
}
