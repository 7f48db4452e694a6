package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

var (
	coInput         inputFlags
	coMethod        string
	coCutoff        float64
	coColumns       []string
	coTop           int
	coDropOutput    string
	coImportance    string
	coImportanceOut string
	coJSON          bool
)

var corrCmd = &cobra.Command{
	Use:   "corr <file>",
	Short: "Find highly correlated numeric columns by recursive pairwise elimination",
	Long: `Repeatedly take the most correlated pair of numeric columns and drop the one with the
larger mean absolute correlation until no pair exceeds the cutoff.

--importance merges precomputed importance scores (JSON: {"method": {"column": score}})
with the elimination result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		d, err := coInput.load(c, args[0])
		if err != nil {
			return err
		}
		s := c.Settings()
		if cmd.Flags().Changed("method") {
			s.CorrMethod = coMethod
		}
		if cmd.Flags().Changed("cutoff") {
			s.CorrCutoff = coCutoff
		}

		var res analysis.EliminationResult
		if len(coColumns) > 0 {
			res, err = analysis.FindCorrelatedColumns(d, s.CorrCutoff, s.CorrMethod, coColumns...)
		} else {
			res, err = newProfiler(c, d, s).FindCorrelated(s.CorrCutoff, s.CorrMethod)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if coJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
		} else {
			fmt.Fprintf(w, "[CORRELATION]\nmethod: %s, cutoff: %.2f\n", res.Method, res.Cutoff)
			fmt.Fprintf(w, "- drop: %s\n", utils.JoinOrNone(res.Dropped))
		}
		if coTop > 0 {
			if err := printTopPairs(w, d, s.CorrMethod, coTop, coColumns...); err != nil {
				return err
			}
		}

		if coDropOutput != "" {
			if err := writeDataset(w, coDropOutput, d.Drop(res.Dropped...)); err != nil {
				return err
			}
		}
		if coImportance != "" {
			predictors := coColumns
			if len(predictors) == 0 {
				predictors = d.NumericNames()
			}
			t, err := mergeImportanceFile(coImportance, predictors, res)
			if err != nil {
				return err
			}
			if coImportanceOut != "" {
				td, err := t.Dataset()
				if err != nil {
					return err
				}
				return writeDataset(w, coImportanceOut, td)
			}
			printImportance(w, t)
		}
		return nil
	},
}

func mergeImportanceFile(path string, predictors []string, res analysis.EliminationResult) (analysis.ImportanceTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return analysis.ImportanceTable{}, fmt.Errorf("read importance: %w", err)
	}
	var scores map[string]map[string]float64
	if err := json.Unmarshal(b, &scores); err != nil {
		return analysis.ImportanceTable{}, fmt.Errorf("decode importance: %w", err)
	}
	return analysis.MergeImportance(predictors, scores, res), nil
}

func printImportance(w io.Writer, t analysis.ImportanceTable) {
	fmt.Fprintln(w, "\n[IMPORTANCE]")
	fmt.Fprintf(w, "%-24s", "predictor")
	for _, m := range t.Methods {
		fmt.Fprintf(w, " %14s", utils.Truncate(m, 14))
	}
	fmt.Fprintf(w, " %5s\n", "rpe")
	for _, r := range t.Rows {
		fmt.Fprintf(w, "%-24s", utils.Truncate(r.Predictor, 24))
		for _, m := range t.Methods {
			fmt.Fprintf(w, " %14.4f", r.Scores[m])
		}
		fmt.Fprintf(w, " %5t\n", r.RPE)
	}
}

// printTopPairs lists the n most correlated pairs among the named (or all) numeric columns.
func printTopPairs(w io.Writer, d *dataset.Dataset, method string, n int, names ...string) error {
	m, err := analysis.Correlations(d, method, names...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n[TOP CORRELATIONS] (%s)\n", m.Method)
	pairs := m.TopPairs(n)
	if len(pairs) == 0 {
		fmt.Fprintln(w, "- (none)")
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "- %s ~ %s: %.3f\n", p.A, p.B, p.R)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(corrCmd)
	coInput.register(corrCmd)
	corrCmd.Flags().StringVar(&coMethod, "method", "", "correlation method: pearson|spearman|kendall (overrides config)")
	corrCmd.Flags().Float64Var(&coCutoff, "cutoff", 0, "correlation cutoff in (0,1) (overrides config)")
	corrCmd.Flags().StringSliceVar(&coColumns, "columns", nil, "numeric columns to consider (default all)")
	corrCmd.Flags().IntVar(&coTop, "top", 0, "also print the N most correlated pairs")
	corrCmd.Flags().StringVar(&coDropOutput, "drop-output", "", "write the dataset without the dropped columns as CSV")
	corrCmd.Flags().StringVar(&coImportance, "importance", "", "JSON file of importance scores to merge with the result")
	corrCmd.Flags().StringVar(&coImportanceOut, "importance-output", "", "with --importance, write the merged table as CSV")
	corrCmd.Flags().BoolVar(&coJSON, "json", false, "emit the elimination result as JSON")
}
