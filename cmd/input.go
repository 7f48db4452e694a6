package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/dataclean-cli/internal/config"
	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

// inputFlags are the dataset loading flags shared by every command that reads a file.
type inputFlags struct {
	delimiter   string
	decimal     string
	thousands   string
	maxRows     int
	sheetName   string
	sheetIndex  int
	naValues    []string
	categorical []string
}

func (f *inputFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',', ';' or 'tab' (default by extension)")
	c.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator: '.' or 'comma' (default auto)")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator: ',', '.' or 'space'")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "read at most this many rows (0 = all)")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index when --sheet-name is not set")
	c.Flags().StringSliceVar(&f.naValues, "na", nil, "extra cell values to treat as missing")
	c.Flags().StringSliceVar(&f.categorical, "categorical", nil, "columns to load as categorical even when numeric")
}

func (f *inputFlags) options(c *cfgpkg.Config) (dataset.LoadOptions, error) {
	opt := dataset.DefaultLoadOptions()
	opt.NAValues = append(opt.NAValues, c.NAValues...)
	opt.NAValues = append(opt.NAValues, f.naValues...)
	opt.MaxRows = f.maxRows
	opt.Categorical = f.categorical
	switch strings.ToLower(strings.TrimSpace(f.delimiter)) {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(f.thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	return opt, nil
}

// load reads path with the configured options, honoring sheet selection for workbooks.
func (f *inputFlags) load(c *cfgpkg.Config, path string) (*dataset.Dataset, error) {
	opt, err := f.options(c)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return dataset.LoadXLSX(path, f.sheetName, f.sheetIndex, opt)
	}
	return dataset.Load(path, opt)
}

// writeDataset writes d as CSV to path, or to w when path is empty or "-".
func writeDataset(w io.Writer, path string, d *dataset.Dataset) error {
	if path == "" || path == "-" {
		return dataset.WriteCSV(w, d, ',')
	}
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, d, ','); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote %d rows x %d columns to %s\n", d.Rows(), d.NumCols(), path)
	return nil
}
