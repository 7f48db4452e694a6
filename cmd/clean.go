package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

var (
	clInput        inputFlags
	clOutputPath   string
	clManyMissing  float64
	clDrop         []string
	clKeepConstant bool
	clFillLow      float64
	clFillColumns  []string
	clFill         []string
	clDummy        bool
	clDummyColumns []string
	clLevelsLimit  int
	clPolicy       string
	clNoNA         bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Drop uninformative columns, impute missing values, one-hot encode and write CSV",
	Long: `Clean a dataset in three steps and write the result as CSV:

  1. drop columns at least --manymissing missing, constant columns and --drop columns
  2. impute columns whose missing share is below --fill-low (plus --fill-columns) and
     apply explicit --fill rules (col=mean|median|mode|auto or col=constant:value)
  3. one-hot encode factor columns (--dummy) or --dummy-columns`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		d, err := clInput.load(c, args[0])
		if err != nil {
			return err
		}
		f := cmd.Flags()
		dopt := c.DummyOptions()
		if f.Changed("levels-limit") {
			dopt.LevelsLimit = clLevelsLimit
		}
		if f.Changed("policy") {
			pol, err := analysis.ParseLevelPolicy(clPolicy)
			if err != nil {
				return err
			}
			dopt.Policy = pol
		}
		if clNoNA {
			dopt.IncludeNA = false
		}
		dopt.Auto = clDummy
		dopt.Subset = clDummyColumns
		fills, err := parseFills(clFill)
		if err != nil {
			return err
		}
		fillLow := c.LowMissingThreshold
		if f.Changed("fill-low") {
			fillLow = clFillLow
		}

		p := newProfiler(c, d, c.Settings())
		w := cmd.ErrOrStderr()

		cleaned, err := p.BasicCleaning(analysis.CleaningOptions{
			ManyMissing:  clManyMissing,
			DropColumns:  clDrop,
			DropConstant: !clKeepConstant,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "- removed: %s\n", utils.JoinOrNone(cleaned.Removed))
		p.SetData(cleaned.Data)

		if fillLow > 0 || len(clFillColumns) > 0 {
			filled, err := p.FillLowNA(clFillColumns, fillLow)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "- imputed: %s\n", utils.JoinOrNone(filled.Filled))
			p.SetData(filled.Data)
		}
		for _, fl := range fills {
			res, err := p.FillNA(fl.column, fl.rule, fl.value)
			if err != nil {
				return err
			}
			if len(res.Skipped) > 0 {
				fmt.Fprintf(w, "⚠ %s is entirely missing; left as is\n", fl.column)
			}
			p.SetData(res.Data)
		}

		if dopt.Auto || len(dopt.Subset) > 0 {
			enc, err := p.ToDummy(dopt)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "- encoded: %s\n", utils.JoinOrNone(enc.Encoded))
			if len(enc.Dropped) > 0 {
				fmt.Fprintf(w, "- dropped (over %d levels): %s\n", dopt.LevelsLimit, strings.Join(enc.Dropped, ", "))
			}
			if len(enc.NonNumeric) > 0 {
				fmt.Fprintf(w, "⚠ still non numeric: %s\n", strings.Join(enc.NonNumeric, ", "))
			}
			p.SetData(enc.Data)
		}
		return writeDataset(cmd.OutOrStdout(), clOutputPath, p.Data())
	},
}

type fillArg struct {
	column string
	rule   analysis.FillRule
	value  string
}

// parseFills reads col=rule or col=constant:value pairs.
func parseFills(raw []string) ([]fillArg, error) {
	var out []fillArg
	for _, r := range raw {
		col, rule, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("invalid --fill %q (use col=rule)", r)
		}
		rule, value, _ := strings.Cut(rule, ":")
		fr, err := analysis.ParseFillRule(rule)
		if err != nil {
			return nil, err
		}
		if fr == analysis.FillConstant && value == "" {
			return nil, fmt.Errorf("invalid --fill %q: constant needs a value (col=constant:value)", r)
		}
		out = append(out, fillArg{column: strings.TrimSpace(col), rule: fr, value: value})
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	clInput.register(cleanCmd)
	cleanCmd.Flags().StringVarP(&clOutputPath, "output", "o", "", "write the CSV to a file instead of stdout")
	cleanCmd.Flags().Float64Var(&clManyMissing, "manymissing", analysis.DefaultCleaningOptions().ManyMissing, "drop columns with at least this share missing (0 disables)")
	cleanCmd.Flags().StringSliceVar(&clDrop, "drop", nil, "columns to drop")
	cleanCmd.Flags().BoolVar(&clKeepConstant, "keep-constant", false, "keep constant columns")
	cleanCmd.Flags().Float64Var(&clFillLow, "fill-low", 0, "impute columns with a missing share below this value (default lowmissing_threshold)")
	cleanCmd.Flags().StringSliceVar(&clFillColumns, "fill-columns", nil, "columns to impute regardless of their missing share")
	cleanCmd.Flags().StringArrayVar(&clFill, "fill", nil, "explicit imputation: col=auto|mean|median|mode or col=constant:value (repeatable)")
	cleanCmd.Flags().BoolVar(&clDummy, "dummy", false, "one-hot encode every factor column")
	cleanCmd.Flags().StringSliceVar(&clDummyColumns, "dummy-columns", nil, "categorical columns to one-hot encode")
	cleanCmd.Flags().IntVar(&clLevelsLimit, "levels-limit", 0, "maximum levels to encode (overrides config)")
	cleanCmd.Flags().StringVar(&clPolicy, "policy", "keep", "over-limit columns: keep|drop")
	cleanCmd.Flags().BoolVar(&clNoNA, "no-na-indicator", false, "do not add a <col>_nan indicator")
}
