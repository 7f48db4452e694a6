package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes a header row and every record; missing cells are empty.
func WriteCSV(w io.Writer, d *Dataset, delim rune) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for r := 0; r < d.Rows(); r++ {
		if err := cw.Write(d.Row(r)); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
