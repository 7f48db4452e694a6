package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/xuri/excelize/v2"
)

// LoadOptions controls how raw text cells become typed columns.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picked from the file extension (.tsv -> tab, else comma).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// NAValues are cell contents (after trimming) loaded as missing.
	NAValues []string
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Categorical forces the named columns to load as categorical.
	Categorical []string
}

// DefaultLoadOptions returns the NA tokens pandas recognises by default.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{NAValues: []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL"}}
}

// Load reads a dataset from a CSV/TSV (optionally .gz, .zst or .lz4 compressed) or XLSX file.
func Load(path string, opt LoadOptions) (*Dataset, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") {
		return LoadXLSX(path, "", 1, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r, closeFn, err := decompress(lower, f)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(lower, ".gz"), ".zst"), ".lz4"))
	}
	d, err := ReadCSV(r, opt)
	if err != nil {
		return nil, err
	}
	d.Name = filepath.Base(path)
	return d, nil
}

func decompress(lower string, f io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(lower, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("open gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("open zstd: %w", err)
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(lower, ".lz4"):
		return lz4.NewReader(f), func() {}, nil
	default:
		return bufio.NewReader(f), func() {}, nil
	}
}

// ReadCSV parses a header row plus records into a Dataset.
func ReadCSV(src io.Reader, opt LoadOptions) (*Dataset, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New()
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
		records = append(records, rec)
	}
	return FromRecords(header, records, opt)
}

// FromRecords types raw string records column by column. A column is numeric
// when every non-missing cell parses as a number; otherwise it is categorical.
func FromRecords(header []string, records [][]string, opt LoadOptions) (*Dataset, error) {
	na := make(map[string]bool, len(opt.NAValues))
	for _, v := range opt.NAValues {
		na[v] = true
	}
	forced := make(map[string]bool, len(opt.Categorical))
	for _, n := range opt.Categorical {
		forced[n] = true
	}
	cols := make([]Column, len(header))
	for j, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}
		raw := make([]string, len(records))
		valid := make([]bool, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = strings.TrimSpace(rec[j])
			}
			valid[i] = !na[raw[i]]
		}
		if !forced[name] {
			if num, ok := parseColumn(raw, valid, opt); ok {
				cols[j] = NewNumeric(name, num, valid)
				continue
			}
		}
		cols[j] = NewCategorical(name, raw, valid)
	}
	return New(cols...)
}

func parseColumn(raw []string, valid []bool, opt LoadOptions) ([]float64, bool) {
	out := make([]float64, len(raw))
	for i, v := range raw {
		if !valid[i] {
			out[i] = math.NaN()
			continue
		}
		x, ok := parseNumeric(v, opt)
		if !ok {
			return nil, false
		}
		out[i] = x
	}
	return out, true
}

// LoadXLSX reads one sheet of a workbook. If sheetName is empty the 1-based
// sheetIndex selects the sheet.
func LoadXLSX(path, sheetName string, sheetIndex int, opt LoadOptions) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	target := ""
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, sheetName) {
				target = s
				break
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				sheetName, filepath.Base(path), strings.Join(sheets, ", "))
		}
	} else {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
		}
		target = sheets[idx-1]
	}
	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	if len(rows) == 0 {
		d, _ := New()
		d.Name = filepath.Base(path)
		return d, nil
	}
	records := rows[1:]
	if opt.MaxRows > 0 && len(records) > opt.MaxRows {
		records = records[:opt.MaxRows]
	}
	d, err := FromRecords(rows[0], records, opt)
	if err != nil {
		return nil, err
	}
	d.Name = filepath.Base(path)
	return d, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
