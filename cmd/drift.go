package cmd

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataclean-cli/internal/stats"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

var (
	drInput     inputFlags
	drGroups    int
	drBootstrap int
	drCI        float64
	drFailAbove float64
	drColumns   []string
)

var driftCmd = &cobra.Command{
	Use:   "drift <benchmark> <target>",
	Short: "Compare numeric columns of two datasets with the population stability index",
	Long: `Compute the population stability index (PSI) of every numeric column the two datasets
share. Bins are percentiles of the benchmark. A PSI under 0.1 is usually read as stable,
0.1-0.25 as a moderate shift and above 0.25 as a significant one.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		bench, err := drInput.load(c, args[0])
		if err != nil {
			return fmt.Errorf("load benchmark: %w", err)
		}
		target, err := drInput.load(c, args[1])
		if err != nil {
			return fmt.Errorf("load target: %w", err)
		}
		if drGroups < 1 {
			return fmt.Errorf("--groups must be >= 1")
		}
		if !(drCI > 0 && drCI < 1) {
			return fmt.Errorf("--ci must lie in (0, 1)")
		}

		seed := c.SampleSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))

		names := drColumns
		if len(names) == 0 {
			names = bench.NumericNames()
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "[DRIFT] %s -> %s (%d bins)\n", bench.Name, target.Name, drGroups)
		var over []string
		compared := 0
		for _, name := range names {
			bc, ok := bench.Column(name)
			if !ok {
				return fmt.Errorf("column %q not in benchmark", name)
			}
			tc, ok := target.Column(name)
			if !ok {
				if len(drColumns) > 0 {
					return fmt.Errorf("column %q not in target", name)
				}
				continue
			}
			if bc.Kind != tc.Kind || len(bc.Present()) == 0 {
				continue
			}
			t := utils.StartTimer(logger, "psi").With("column", name)
			res, err := stats.PSI(bc.Present(), tc.Present(), drGroups)
			t.Stop()
			if errors.Is(err, stats.ErrZeroDispersion) || errors.Is(err, stats.ErrEmpty) {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Skipped %s: %v\n", name, err)
				continue
			}
			if err != nil {
				return err
			}
			compared++
			fmt.Fprintf(w, "- %s: psi %.4f (%s)\n", name, res.Statistic, psiBand(res.Statistic))
			if drBootstrap > 0 {
				blo, bhi := stats.BootstrapCI(rng, bc.Present(), drBootstrap, drCI)
				tlo, thi := stats.BootstrapCI(rng, tc.Present(), drBootstrap, drCI)
				fmt.Fprintf(w, "  mean %.0f%% CI: benchmark [%.4g, %.4g], target [%.4g, %.4g]\n", drCI*100, blo, bhi, tlo, thi)
			}
			if drFailAbove > 0 && res.Statistic > drFailAbove {
				over = append(over, name)
			}
		}
		if compared == 0 {
			fmt.Fprintln(w, "- no shared numeric columns")
		}
		if len(over) > 0 {
			return fmt.Errorf("psi above %.2f for: %s", drFailAbove, utils.JoinOrNone(over))
		}
		return nil
	},
}

func psiBand(v float64) string {
	switch {
	case v < 0.1:
		return "stable"
	case v < 0.25:
		return "moderate shift"
	default:
		return "significant shift"
	}
}

func init() {
	rootCmd.AddCommand(driftCmd)
	drInput.register(driftCmd)
	driftCmd.Flags().IntVar(&drGroups, "groups", 10, "number of percentile bins")
	driftCmd.Flags().IntVar(&drBootstrap, "bootstrap", 0, "bootstrap resamples for a confidence interval of each mean (0 disables)")
	driftCmd.Flags().Float64Var(&drCI, "ci", 0.95, "confidence level for --bootstrap")
	driftCmd.Flags().Float64Var(&drFailAbove, "fail-above", 0, "exit with an error when any PSI exceeds this value")
	driftCmd.Flags().StringSliceVar(&drColumns, "columns", nil, "numeric columns to compare (default all shared)")
}
