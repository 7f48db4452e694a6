package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/dataclean-cli/internal/store"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

var (
	hsLimit int
	hsJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show or delete saved profile runs",
	Long:  "Runs are saved by 'dataclean profile --save' under reports_dir (default ~/.dataclean/runs).",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		runs, err := st.List()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "(no runs)")
			return nil
		}
		if hsLimit > 0 && len(runs) > hsLimit {
			runs = runs[:hsLimit]
		}
		for _, r := range runs {
			fmt.Fprintf(w, "- %s  %s  %s (%d rows, %d columns, %d issues)\n",
				shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Source,
				r.Summary.Rows, r.Summary.Columns, issueCount(r))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved run's report (ID or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		r, err := st.Load(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if hsJSON {
			b, err := utils.PrettyJSON(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			return nil
		}
		fmt.Fprintf(w, "Run: %s\nSource: %s\nCreated: %s\n\n", r.ID, r.Source, r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		report := r.Report
		if report == "" {
			report = r.Summary.Text()
		}
		fmt.Fprint(w, report)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved run (ID or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		r, err := st.Load(args[0])
		if err != nil {
			return err
		}
		if err := st.Delete(r.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted run %s\n", r.ID)
		return nil
	},
}

func openStore() (*store.Store, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(c.ReportsDir)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// issueCount sums the flagged findings of a run.
func issueCount(r *store.Run) int {
	s := r.Summary
	n := len(s.ManyMissing) + len(s.Constant) + len(s.NearZeroVar) + len(s.Correlated) + len(s.BigStrings) + len(s.DuplicateColumns)
	if s.DuplicatedRows > 0 {
		n++
	}
	return n
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyCmd.Flags().IntVar(&hsLimit, "limit", 0, "show at most N runs (0 = all)")
	historyShowCmd.Flags().BoolVar(&hsJSON, "json", false, "print the stored run as JSON")
}
