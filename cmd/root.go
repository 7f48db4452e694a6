package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/dataclean-cli/internal/config"
	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Config

	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "dataclean",
	Short: "DataClean CLI: profile tabular data for quality problems",
	Long: `DataClean profiles CSV/TSV/XLSX datasets: missing values, duplicated rows and columns,
constant and near-zero-variance columns, candidate keys, correlated predictors and outliers.
It can also impute, encode and clean a dataset and write the result back as CSV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dataclean/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format on stderr: text|json")
}

func loadConfig() {
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	switch strings.ToLower(strings.TrimSpace(logFormat)) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !debug})
	}

	// DATACLEAN_* variables may also come from a .env file in the working directory
	_ = godotenv.Load()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config load it again and report the error
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
}

// requireConfig returns the loaded configuration, loading it on demand, and validates it.
func requireConfig() (*cfgpkg.Config, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newProfiler wraps d with the configured thresholds, the CLI logger and,
// when sample_seed is set, a deterministic random source.
func newProfiler(c *cfgpkg.Config, d *dataset.Dataset, s analysis.Settings) *analysis.Profiler {
	opts := []analysis.Option{
		analysis.WithLogger(logger.WithField("dataset", d.Name)),
		analysis.WithSettings(s),
	}
	if c.SampleSeed != 0 {
		opts = append(opts, analysis.WithRand(rand.New(rand.NewSource(c.SampleSeed))))
	}
	return analysis.NewProfiler(d, opts...)
}
