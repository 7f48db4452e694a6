package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	"github.com/KaramelBytes/dataclean-cli/internal/store"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

var (
	prInput       inputFlags
	prOutputPath  string
	prJSON        bool
	prSave        bool
	prNZV         bool
	prSaveMetrics bool
	prFactors     bool
	prCorrTop     int
	prCorrMethod  string
	prCorrCutoff  float64
	prManyMissing float64
	prKeyDropNA   bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV/TSV/XLSX dataset and print a data-quality report",
	Long: `Profile a dataset and summarize missing values, keys, duplicated rows and columns,
constant and near-zero-variance columns, correlated predictors, long strings and outliers.

Compressed CSV inputs (.gz, .zst, .lz4) are decompressed on the fly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		path := args[0]
		d, err := prInput.load(c, path)
		if err != nil {
			return err
		}

		s := c.Settings()
		f := cmd.Flags()
		if f.Changed("method") {
			s.CorrMethod = prCorrMethod
		}
		if f.Changed("cutoff") {
			s.CorrCutoff = prCorrCutoff
		}
		if f.Changed("manymissing") {
			s.ManyMissing = prManyMissing
		}
		if f.Changed("key-dropna") {
			s.Keys.DropNA = prKeyDropNA
		}
		if err := s.Validate(); err != nil {
			return err
		}
		p := newProfiler(c, d, s)
		sum := p.Summary()

		var out []byte
		if prJSON {
			out, err = utils.PrettyJSON(sum)
			if err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(sum.Text())
		}

		w := cmd.OutOrStdout()
		if prOutputPath != "" {
			if err := utils.SafeWriteFile(prOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(w, "✓ Wrote profile to %s\n", prOutputPath)
		} else {
			if _, err := w.Write(out); err != nil {
				return err
			}
		}

		if prNZV {
			printNZV(w, p.NearZeroVar(s.FreqCut, s.UniqueCut), prSaveMetrics)
		}
		if prFactors {
			fr := p.Factors(s.FactorMaxLevels, s.FactorThresholdFraction)
			fmt.Fprintf(w, "\n[FACTORS]\n- %s\n", utils.JoinOrNone(fr.Factors))
		}
		if prCorrTop > 0 {
			if err := printTopPairs(w, d, s.CorrMethod, prCorrTop); err != nil {
				return err
			}
		}

		for _, op := range sum.Errors.Keys() {
			fmt.Fprintf(os.Stderr, "⚠ %s: %v\n", op, sum.Errors[op])
		}

		if prSave {
			st, err := store.Open(c.ReportsDir)
			if err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			run := store.NewRun(abs, "profile", sum)
			if err := st.Save(run); err != nil {
				return err
			}
			fmt.Fprintf(w, "✓ Saved run %s\n", run.ID)
		}
		return nil
	},
}

// printNZV prints the full metrics table when metrics is set, else the columns kept.
func printNZV(w io.Writer, t analysis.NZVTable, metrics bool) {
	fmt.Fprintln(w, "\n[NEAR-ZERO VARIANCE]")
	if !metrics {
		fmt.Fprintf(w, "- kept: %s\n", utils.JoinOrNone(t.Kept()))
		return
	}
	fmt.Fprintf(w, "%-24s %12s %14s %8s %5s\n", "column", "freq_ratio", "percent_unique", "zero_var", "nzv")
	for _, m := range t {
		fmt.Fprintf(w, "%-24s %12.3f %14.3f %8t %5t\n", utils.Truncate(m.Name, 24), m.FreqRatio, m.PercentUnique, m.ZeroVar, m.NZV)
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
	prInput.register(profileCmd)
	profileCmd.Flags().StringVarP(&prOutputPath, "output", "o", "", "write the report to a file instead of stdout")
	profileCmd.Flags().BoolVar(&prJSON, "json", false, "emit the summary as JSON")
	profileCmd.Flags().BoolVar(&prSave, "save", false, "persist the run under reports_dir (see 'dataclean history')")
	profileCmd.Flags().BoolVar(&prNZV, "nzv", false, "append the near-zero-variance section")
	profileCmd.Flags().BoolVar(&prSaveMetrics, "save-metrics", false, "with --nzv, print the metrics table instead of the kept columns")
	profileCmd.Flags().BoolVar(&prFactors, "factors", false, "append the columns that look like factors")
	profileCmd.Flags().IntVar(&prCorrTop, "corr-top", 0, "append the N most correlated numeric pairs")
	profileCmd.Flags().StringVar(&prCorrMethod, "method", "", "correlation method: pearson|spearman|kendall (overrides config)")
	profileCmd.Flags().Float64Var(&prCorrCutoff, "cutoff", 0, "correlation cutoff in (0,1) (overrides config)")
	profileCmd.Flags().Float64Var(&prManyMissing, "manymissing", 0, "share of missing values that flags a column (overrides config)")
	profileCmd.Flags().BoolVar(&prKeyDropNA, "key-dropna", false, "ignore missing cells when detecting keys (overrides config)")
}
