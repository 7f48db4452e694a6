package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
)

var (
	olInput      inputFlags
	olOutputPath string
	olScores     []string
	olColumns    []string
	olCutoffZ    float64
	olCutoffIQR  float64
	olCutoffMAD  float64
	olOnlyFlags  bool
)

var outliersCmd = &cobra.Command{
	Use:   "outliers <file>",
	Short: "Score numeric columns for outliers and write the per-row table as CSV",
	Long: `Score every numeric column (or --columns) with z, iqr and mad scores.
The output has <col>_<score> and <col>_is_outlier columns, one row per input row.
Columns with zero dispersion are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		d, err := olInput.load(c, args[0])
		if err != nil {
			return err
		}
		s := c.Settings()
		opt := s.Outliers
		f := cmd.Flags()
		if f.Changed("scores") {
			opt.Scores = olScores
		}
		opt.Columns = olColumns
		if f.Changed("cutoff-z") {
			opt.Cutoffs[analysis.ScoreZ] = olCutoffZ
		}
		if f.Changed("cutoff-iqr") {
			opt.Cutoffs[analysis.ScoreIQR] = olCutoffIQR
		}
		if f.Changed("cutoff-mad") {
			opt.Cutoffs[analysis.ScoreMAD] = olCutoffMAD
		}

		p := newProfiler(c, d, s)
		rep, err := p.Outliers(opt)
		if err != nil {
			return err
		}
		stderr := cmd.ErrOrStderr()
		cols := make([]string, 0, len(rep.Errors))
		for col := range rep.Errors {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			e := rep.Errors[col]
			var dde *analysis.DegenerateDistributionError
			if errors.As(e, &dde) {
				fmt.Fprintf(stderr, "⚠ Skipped %s: %s is zero\n", col, dde.Stat)
				continue
			}
			fmt.Fprintf(stderr, "⚠ Skipped %s: %v\n", col, e)
		}
		for _, t := range rep.Tables {
			fmt.Fprintf(stderr, "- %s: %d outlier rows\n", t.Column, t.Count())
		}
		if !rep.Found() {
			fmt.Fprintln(stderr, "✓ No outliers found")
		}

		out, err := rep.Dataset()
		if err != nil {
			return err
		}
		if olOnlyFlags {
			var flagged []int
			for r := 0; r < rep.Rows; r++ {
				for _, t := range rep.Tables {
					if t.IsOutlier[r] {
						flagged = append(flagged, r)
						break
					}
				}
			}
			out = d.Take(flagged)
		}
		return writeDataset(cmd.OutOrStdout(), olOutputPath, out)
	},
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	olInput.register(outliersCmd)
	outliersCmd.Flags().StringVarP(&olOutputPath, "output", "o", "", "write the CSV to a file instead of stdout")
	outliersCmd.Flags().StringSliceVar(&olScores, "scores", nil, "scores to compute: z,iqr,mad (overrides config)")
	outliersCmd.Flags().StringSliceVar(&olColumns, "columns", nil, "numeric columns to score (default all)")
	outliersCmd.Flags().Float64Var(&olCutoffZ, "cutoff-z", 0, "z score cutoff (overrides config)")
	outliersCmd.Flags().Float64Var(&olCutoffIQR, "cutoff-iqr", 0, "iqr score cutoff (overrides config)")
	outliersCmd.Flags().Float64Var(&olCutoffMAD, "cutoff-mad", 0, "mad score cutoff (overrides config)")
	outliersCmd.Flags().BoolVar(&olOnlyFlags, "rows", false, "write the flagged input rows instead of the score table")
}
