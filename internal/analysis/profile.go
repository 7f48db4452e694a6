package analysis

import (
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/stats"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

// Settings gathers the thresholds used by the Profiler's default analyses.
type Settings struct {
	ManyMissing             float64
	LowMissing              float64
	FreqCut                 float64
	UniqueCut               float64
	CorrCutoff              float64
	CorrMethod              string
	Outliers                OutlierOptions
	FactorMaxLevels         int
	FactorThresholdFraction float64
	Keys                    KeyOptions
	Duplicates              DuplicateOptions
	StringThreshold         int
}

// DefaultSettings mirrors the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		ManyMissing:     0.7,
		LowMissing:      0.05,
		FreqCut:         DefaultFreqCut,
		UniqueCut:       DefaultUniqueCut,
		CorrCutoff:      DefaultCorrCutoff,
		CorrMethod:      string(stats.Pearson),
		Outliers:        OutlierOptions{Scores: []string{ScoreZ, ScoreIQR, ScoreMAD}, Cutoffs: DefaultCutoffs()},
		FactorMaxLevels: DefaultFactorThreshold,
		Keys:            DefaultKeyOptions(),
		Duplicates:      DefaultDuplicateOptions(),
		StringThreshold: 40,
	}
}

// Validate rejects settings that would fail deep inside an analysis.
func (s Settings) Validate() error {
	if _, err := validateCorr(s.CorrCutoff, s.CorrMethod); err != nil {
		return err
	}
	if _, _, err := validateScores(s.Outliers); err != nil {
		return err
	}
	if s.ManyMissing < 0 || s.ManyMissing > 1 {
		return &InvalidConfigurationError{Option: "manymissing threshold", Value: s.ManyMissing, Reason: "must lie in [0, 1]"}
	}
	if s.LowMissing < 0 || s.LowMissing > 1 {
		return &InvalidConfigurationError{Option: "lowmissing threshold", Value: s.LowMissing, Reason: "must lie in [0, 1]"}
	}
	if s.Keys.Fraction <= 0 || s.Keys.Fraction > 1 {
		return &InvalidConfigurationError{Option: "key sample fraction", Value: s.Keys.Fraction, Reason: "must lie in (0, 1]"}
	}
	return nil
}

// Profiler runs the analyses over one dataset and memoizes their results.
// It is not safe for concurrent use.
type Profiler struct {
	data     *dataset.Dataset
	settings Settings
	log      logrus.FieldLogger
	rng      *rand.Rand
	cache    *cache
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithLogger sets the logger used for per-analysis debug lines and warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Profiler) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRand sets the random source used by sampled screening.
func WithRand(r *rand.Rand) Option {
	return func(p *Profiler) {
		if r != nil {
			p.rng = r
		}
	}
}

// WithSettings overrides the default thresholds.
func WithSettings(s Settings) Option {
	return func(p *Profiler) { p.settings = s }
}

// NewProfiler wraps a dataset. Without WithLogger, logs are discarded.
func NewProfiler(d *dataset.Dataset, opts ...Option) *Profiler {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	p := &Profiler{
		data:     d,
		settings: DefaultSettings(),
		log:      quiet,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:    newCache(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Data returns the profiled dataset.
func (p *Profiler) Data() *dataset.Dataset { return p.data }

// Settings returns the active thresholds.
func (p *Profiler) Settings() Settings { return p.settings }

// SetData swaps the dataset and drops every cached result.
func (p *Profiler) SetData(d *dataset.Dataset) {
	p.data = d
	p.Reset()
}

// Reset drops every cached result.
func (p *Profiler) Reset() { p.cache.reset() }

// CacheStats returns the number of cache hits and misses so far.
func (p *Profiler) CacheStats() (hits, misses int) { return p.cache.hits, p.cache.misses }

func (p *Profiler) timer(name string) *utils.Timer {
	return utils.StartTimer(p.log, name).With("rows", p.data.Rows()).With("columns", p.data.NumCols())
}

// NAColCount returns per-column missing tallies.
func (p *Profiler) NAColCount() []ColumnMissing {
	v, _ := memo(p, "nacolcount", nil, func() ([]ColumnMissing, error) {
		defer p.timer("nacolcount").Stop()
		return NAColCount(p.data), nil
	})
	return v
}

// NARowCount returns per-row missing tallies.
func (p *Profiler) NARowCount() []RowMissing {
	v, _ := memo(p, "narowcount", nil, func() ([]RowMissing, error) {
		defer p.timer("narowcount").Stop()
		return NARowCount(p.data), nil
	})
	return v
}

// ManyMissing returns columns whose missing share is >= threshold. Tallies are reused
// across thresholds.
func (p *Profiler) ManyMissing(threshold float64) []string {
	return ManyMissingColumns(p.NAColCount(), threshold)
}

// ManyMissingRows returns rows whose missing share is >= threshold.
func (p *Profiler) ManyMissingRows(threshold float64) []int {
	return ManyMissingRows(p.NARowCount(), threshold)
}

// Sample draws max(floor(fraction*rows), minRows) rows without replacement, capped by
// maxRows when positive.
func (p *Profiler) Sample(fraction float64, minRows, maxRows int) *dataset.Dataset {
	n := p.data.Rows()
	return p.data.Take(stats.SampleIndices(p.rng, n, stats.SampleSize(n, fraction, minRows, maxRows)))
}

// DuplicateColumns finds groups of identical columns.
func (p *Profiler) DuplicateColumns() DuplicateColumnsResult {
	opt := p.settings.Duplicates
	v, _ := memo(p, "findupcol", []any{opt}, func() (DuplicateColumnsResult, error) {
		defer p.timer("findupcol").Stop()
		return DuplicateColumns(p.data, p.rng, opt), nil
	})
	return v
}

// DuplicateRows groups identical rows, compared on subset when given.
func (p *Profiler) DuplicateRows(subset []string) (DuplicateRowsResult, error) {
	return memo(p, "finduprow", []any{subset}, func() (DuplicateRowsResult, error) {
		defer p.timer("finduprow").Stop()
		return DuplicateRows(p.data, subset)
	})
}

// ConstantColumns returns columns holding a single value.
func (p *Profiler) ConstantColumns() []string {
	v, _ := memo(p, "constantcol", nil, func() ([]string, error) {
		defer p.timer("constantcol").Stop()
		return ConstantColumns(p.data, p.rng, 0.05, 10), nil
	})
	return v
}

// NearZeroVar returns the near-zero-variance metrics table.
func (p *Profiler) NearZeroVar(freqCut, uniqueCut float64) NZVTable {
	v, _ := memo(p, "nearzerovar", []any{freqCut, uniqueCut}, func() (NZVTable, error) {
		defer p.timer("nearzerovar").Stop()
		return NearZeroVar(p.data, freqCut, uniqueCut), nil
	})
	return v
}

// DetectKeys flags key-like columns.
func (p *Profiler) DetectKeys(opt KeyOptions) KeyResult {
	v, _ := memo(p, "detectkey", []any{opt}, func() (KeyResult, error) {
		defer p.timer("detectkey").Stop()
		return DetectKeys(p.data, p.rng, opt), nil
	})
	return v
}

// Factors detects low-cardinality categorical columns.
func (p *Profiler) Factors(maxLevels int, thresholdFraction float64) FactorResult {
	v, _ := memo(p, "factors", []any{maxLevels, thresholdFraction}, func() (FactorResult, error) {
		defer p.timer("factors").Stop()
		return Factors(p.data, maxLevels, thresholdFraction), nil
	})
	return v
}

// FindCorrelated runs recursive pairwise elimination over the numeric columns.
func (p *Profiler) FindCorrelated(cutoff float64, method string) (EliminationResult, error) {
	return memo(p, "findcorr", []any{cutoff, method}, func() (EliminationResult, error) {
		defer p.timer("findcorr").With("cutoff", cutoff).With("method", method).Stop()
		return FindCorrelated(p.data, cutoff, method)
	})
}

// Outliers scores numeric columns. Degenerate columns are logged and listed in the report.
func (p *Profiler) Outliers(opt OutlierOptions) (OutlierReport, error) {
	return memo(p, "outliers", []any{opt.Scores, opt.Cutoffs, opt.Columns}, func() (OutlierReport, error) {
		defer p.timer("outliers").Stop()
		rep, err := Outliers(p.data, opt)
		if err != nil {
			return rep, err
		}
		for col, cerr := range rep.Errors {
			p.log.WithFields(logrus.Fields{"column": col, "error": cerr}).Warn("outlier scores skipped")
		}
		return rep, nil
	})
}

// NegativeCounts returns the number of negative values per numeric column.
func (p *Profiler) NegativeCounts() map[string]int {
	v, _ := memo(p, "negative", nil, func() (map[string]int, error) {
		return NegativeCounts(p.data), nil
	})
	return v
}

// FillNA imputes one column and returns the new dataset.
func (p *Profiler) FillNA(column string, rule FillRule, value string) (FillResult, error) {
	defer p.timer("fillna").With("column", column).Stop()
	return FillNA(p.data, column, rule, value)
}

// FillLowNA imputes the given columns and every column with a missing share under threshold.
func (p *Profiler) FillLowNA(columns []string, threshold float64) (FillResult, error) {
	defer p.timer("fill_low_na").Stop()
	res, err := FillLowNA(p.data, columns, threshold)
	if err != nil {
		return res, err
	}
	if len(res.Skipped) > 0 {
		p.log.WithField("columns", res.Skipped).Warn("entirely missing columns left unfilled")
	}
	return res, nil
}

// ToDummy one-hot encodes categorical columns and warns about columns left non-numeric.
func (p *Profiler) ToDummy(opt DummyOptions) (DummyResult, error) {
	defer p.timer("to_dummy").Stop()
	res, err := ToDummy(p.data, opt)
	if err != nil {
		return res, err
	}
	if len(res.NonNumeric) > 0 {
		p.log.WithField("columns", res.NonNumeric).Warn("non numeric columns remain after encoding")
	}
	return res, nil
}

// BasicCleaning drops heavily missing, constant and user-listed columns.
func (p *Profiler) BasicCleaning(opt CleaningOptions) (CleaningResult, error) {
	defer p.timer("basic_cleaning").Stop()
	return BasicCleaning(p.data, p.rng, opt)
}

// MaxStringLen returns the longest value per categorical column.
func (p *Profiler) MaxStringLen() map[string]int {
	v, _ := memo(p, "df_len_string", nil, func() (map[string]int, error) {
		return MaxStringLen(p.data), nil
	})
	return v
}
