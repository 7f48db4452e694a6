package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
)

const appDir = ".dataclean"

// Config holds profiling thresholds and CLI defaults.
type Config struct {
	ManyMissingThreshold    float64  `mapstructure:"manymissing_threshold" yaml:"manymissing_threshold"`
	LowMissingThreshold     float64  `mapstructure:"lowmissing_threshold" yaml:"lowmissing_threshold"`
	NZVFreqCut              float64  `mapstructure:"nzv_freq_cut" yaml:"nzv_freq_cut"`
	NZVUniqueCut            float64  `mapstructure:"nzv_unique_cut" yaml:"nzv_unique_cut"`
	CorrCutoff              float64  `mapstructure:"corr_cutoff" yaml:"corr_cutoff"`
	CorrMethod              string   `mapstructure:"corr_method" yaml:"corr_method"`
	OutlierScores           []string `mapstructure:"outlier_scores" yaml:"outlier_scores"`
	OutlierCutoffZ          float64  `mapstructure:"outlier_cutoff_z" yaml:"outlier_cutoff_z"`
	OutlierCutoffIQR        float64  `mapstructure:"outlier_cutoff_iqr" yaml:"outlier_cutoff_iqr"`
	OutlierCutoffMAD        float64  `mapstructure:"outlier_cutoff_mad" yaml:"outlier_cutoff_mad"`
	FactorMaxLevels         int      `mapstructure:"factor_max_levels" yaml:"factor_max_levels"`
	FactorThresholdFraction float64  `mapstructure:"factor_threshold_fraction" yaml:"factor_threshold_fraction"`
	KeySampleFraction       float64  `mapstructure:"key_sample_fraction" yaml:"key_sample_fraction"`
	KeyDropNA               bool     `mapstructure:"key_drop_na" yaml:"key_drop_na"`
	DummyLevelsLimit        int      `mapstructure:"dummy_levels_limit" yaml:"dummy_levels_limit"`
	DummyIncludeNA          bool     `mapstructure:"dummy_include_na" yaml:"dummy_include_na"`
	StringThreshold         int      `mapstructure:"string_threshold" yaml:"string_threshold"`
	// SampleSeed seeds sampled screening; 0 picks a time-based seed.
	SampleSeed int64    `mapstructure:"sample_seed" yaml:"sample_seed"`
	NAValues   []string `mapstructure:"na_values" yaml:"na_values"`
	ReportsDir string   `mapstructure:"reports_dir" yaml:"reports_dir"`
	ServeAddr  string   `mapstructure:"serve_addr" yaml:"serve_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("manymissing_threshold", 0.7)
	v.SetDefault("lowmissing_threshold", 0.05)
	v.SetDefault("nzv_freq_cut", analysis.DefaultFreqCut)
	v.SetDefault("nzv_unique_cut", analysis.DefaultUniqueCut)
	v.SetDefault("corr_cutoff", analysis.DefaultCorrCutoff)
	v.SetDefault("corr_method", "pearson")
	v.SetDefault("outlier_scores", []string{analysis.ScoreZ, analysis.ScoreIQR, analysis.ScoreMAD})
	v.SetDefault("outlier_cutoff_z", 3.0)
	v.SetDefault("outlier_cutoff_iqr", 2.0)
	v.SetDefault("outlier_cutoff_mad", 2.0)
	v.SetDefault("factor_max_levels", analysis.DefaultFactorThreshold)
	v.SetDefault("factor_threshold_fraction", 0.0)
	v.SetDefault("key_sample_fraction", 0.15)
	v.SetDefault("key_drop_na", false)
	v.SetDefault("dummy_levels_limit", 30)
	v.SetDefault("dummy_include_na", true)
	v.SetDefault("string_threshold", 40)
	v.SetDefault("sample_seed", 0)
	v.SetDefault("na_values", []string{})
	v.SetDefault("serve_addr", ":8080")
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, appDir), nil
}

// Load reads configuration from defaults, ~/.dataclean/config.yaml (or cfgFile) and
// DATACLEAN_* environment variables, in increasing precedence.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DATACLEAN")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ReportsDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.ReportsDir = filepath.Join(dir, "runs")
	}
	return &c, nil
}

// Save writes the configuration to cfgFile, or ~/.dataclean/config.yaml when empty.
func Save(c *Config, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Settings converts the configuration into analysis thresholds.
func (c *Config) Settings() analysis.Settings {
	s := analysis.DefaultSettings()
	s.ManyMissing = c.ManyMissingThreshold
	s.LowMissing = c.LowMissingThreshold
	s.FreqCut = c.NZVFreqCut
	s.UniqueCut = c.NZVUniqueCut
	s.CorrCutoff = c.CorrCutoff
	s.CorrMethod = c.CorrMethod
	s.Outliers = analysis.OutlierOptions{
		Scores:  append([]string(nil), c.OutlierScores...),
		Cutoffs: map[string]float64{analysis.ScoreZ: c.OutlierCutoffZ, analysis.ScoreIQR: c.OutlierCutoffIQR, analysis.ScoreMAD: c.OutlierCutoffMAD},
	}
	s.FactorMaxLevels = c.FactorMaxLevels
	s.FactorThresholdFraction = c.FactorThresholdFraction
	s.Keys.Fraction = c.KeySampleFraction
	s.Keys.DropNA = c.KeyDropNA
	s.StringThreshold = c.StringThreshold
	return s
}

// DummyOptions returns the encoder defaults carried by the configuration.
func (c *Config) DummyOptions() analysis.DummyOptions {
	o := analysis.DefaultDummyOptions()
	o.LevelsLimit = c.DummyLevelsLimit
	o.IncludeNA = c.DummyIncludeNA
	return o
}

// Validate rejects unknown methods, scores and out-of-range thresholds.
func (c *Config) Validate() error {
	if err := c.Settings().Validate(); err != nil {
		return err
	}
	if c.FactorMaxLevels < 1 {
		return &analysis.InvalidConfigurationError{Option: "factor_max_levels", Value: c.FactorMaxLevels, Reason: "must be >= 1"}
	}
	if c.DummyLevelsLimit < 1 {
		return &analysis.InvalidConfigurationError{Option: "dummy_levels_limit", Value: c.DummyLevelsLimit, Reason: "must be >= 1"}
	}
	return nil
}

// Keys lists the settable configuration keys in display order.
func Keys() []string {
	return []string{
		"manymissing_threshold", "lowmissing_threshold", "nzv_freq_cut", "nzv_unique_cut",
		"corr_cutoff", "corr_method", "outlier_scores", "outlier_cutoff_z", "outlier_cutoff_iqr",
		"outlier_cutoff_mad", "factor_max_levels", "factor_threshold_fraction", "key_sample_fraction",
		"key_drop_na", "dummy_levels_limit", "dummy_include_na", "string_threshold", "sample_seed",
		"na_values", "reports_dir", "serve_addr",
	}
}

// Get renders one key for display.
func (c *Config) Get(key string) (string, error) {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	switch key {
	case "manymissing_threshold":
		return f(c.ManyMissingThreshold), nil
	case "lowmissing_threshold":
		return f(c.LowMissingThreshold), nil
	case "nzv_freq_cut":
		return f(c.NZVFreqCut), nil
	case "nzv_unique_cut":
		return f(c.NZVUniqueCut), nil
	case "corr_cutoff":
		return f(c.CorrCutoff), nil
	case "corr_method":
		return c.CorrMethod, nil
	case "outlier_scores":
		return strings.Join(c.OutlierScores, ","), nil
	case "outlier_cutoff_z":
		return f(c.OutlierCutoffZ), nil
	case "outlier_cutoff_iqr":
		return f(c.OutlierCutoffIQR), nil
	case "outlier_cutoff_mad":
		return f(c.OutlierCutoffMAD), nil
	case "factor_max_levels":
		return strconv.Itoa(c.FactorMaxLevels), nil
	case "factor_threshold_fraction":
		return f(c.FactorThresholdFraction), nil
	case "key_sample_fraction":
		return f(c.KeySampleFraction), nil
	case "key_drop_na":
		return strconv.FormatBool(c.KeyDropNA), nil
	case "dummy_levels_limit":
		return strconv.Itoa(c.DummyLevelsLimit), nil
	case "dummy_include_na":
		return strconv.FormatBool(c.DummyIncludeNA), nil
	case "string_threshold":
		return strconv.Itoa(c.StringThreshold), nil
	case "sample_seed":
		return strconv.FormatInt(c.SampleSeed, 10), nil
	case "na_values":
		return strings.Join(c.NAValues, ","), nil
	case "reports_dir":
		return c.ReportsDir, nil
	case "serve_addr":
		return c.ServeAddr, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set parses and assigns one key, then validates the result.
func (c *Config) Set(key, val string) error {
	val = strings.TrimSpace(val)
	float := func(dst *float64) error {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		*dst = v
		return nil
	}
	integer := func(dst *int) error {
		v, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = v
		return nil
	}
	boolean := func(dst *bool) error {
		v, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		*dst = v
		return nil
	}
	var err error
	switch key {
	case "manymissing_threshold":
		err = float(&c.ManyMissingThreshold)
	case "lowmissing_threshold":
		err = float(&c.LowMissingThreshold)
	case "nzv_freq_cut":
		err = float(&c.NZVFreqCut)
	case "nzv_unique_cut":
		err = float(&c.NZVUniqueCut)
	case "corr_cutoff":
		err = float(&c.CorrCutoff)
	case "corr_method":
		c.CorrMethod = strings.ToLower(val)
	case "outlier_scores":
		c.OutlierScores = splitList(strings.ToLower(val))
	case "outlier_cutoff_z":
		err = float(&c.OutlierCutoffZ)
	case "outlier_cutoff_iqr":
		err = float(&c.OutlierCutoffIQR)
	case "outlier_cutoff_mad":
		err = float(&c.OutlierCutoffMAD)
	case "factor_max_levels":
		err = integer(&c.FactorMaxLevels)
	case "factor_threshold_fraction":
		err = float(&c.FactorThresholdFraction)
	case "key_sample_fraction":
		err = float(&c.KeySampleFraction)
	case "key_drop_na":
		err = boolean(&c.KeyDropNA)
	case "dummy_levels_limit":
		err = integer(&c.DummyLevelsLimit)
	case "dummy_include_na":
		err = boolean(&c.DummyIncludeNA)
	case "string_threshold":
		err = integer(&c.StringThreshold)
	case "sample_seed":
		v, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		c.SampleSeed = v
	case "na_values":
		c.NAValues = splitList(val)
	case "reports_dir":
		c.ReportsDir = val
	case "serve_addr":
		c.ServeAddr = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
