package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/dataclean-cli/internal/config"
	"github.com/KaramelBytes/dataclean-cli/internal/store"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

var (
	bInput  inputFlags
	bOutDir string
	bSave   bool
	bJSON   bool
	bQuiet  bool
	bJobs   int
)

var batchCmd = &cobra.Command{
	Use:   "batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files concurrently",
	Long: `Profile every file matched by the arguments (shell globs are expanded here as well).
With --out-dir each report is written to <out-dir>/<name>.profile.txt (or .json); files
with the same base name get a numeric suffix instead of overwriting each other.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		var st *store.Store
		if bSave {
			if st, err = store.Open(c.ReportsDir); err != nil {
				return err
			}
		}
		if bOutDir != "" {
			if err := utils.EnsureDir(bOutDir); err != nil {
				return err
			}
		}

		results, err := profileAll(cmd.Context(), c, files, bJobs)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		total := len(files)
		failed := 0
		for i, res := range results {
			if !bQuiet {
				fmt.Fprintf(w, "[%d/%d] %s\n", i+1, total, filepath.Base(res.path))
			}
			if res.err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", res.path, res.err)
				failed++
				continue
			}

			var out []byte
			ext := ".profile.txt"
			if bJSON {
				if out, err = utils.PrettyJSON(res.sum); err != nil {
					return err
				}
				ext = ".profile.json"
			} else {
				out = []byte(res.sum.Text())
			}

			if bOutDir != "" {
				target := uniqueReportPath(bOutDir, res.path, ext)
				if err := utils.SafeWriteFile(target, out); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				if !bQuiet {
					fmt.Fprintf(w, "✓ Wrote %s\n", target)
				}
			} else if !bQuiet {
				fmt.Fprintln(w, string(out))
			}
			if st != nil {
				abs, _ := filepath.Abs(res.path)
				run := store.NewRun(abs, "batch", res.sum)
				if err := st.Save(run); err != nil {
					return err
				}
				if !bQuiet {
					fmt.Fprintf(w, "✓ Saved run %s\n", run.ID)
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

type batchResult struct {
	path string
	sum  analysis.Summary
	err  error
}

// profileAll profiles files on at most jobs workers and returns results in input order.
// Workers already started are waited for even when acquiring a slot fails.
func profileAll(ctx context.Context, c *cfgpkg.Config, files []string, jobs int) ([]batchResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]batchResult, len(files))
	sem := semaphore.NewWeighted(int64(jobs))
	var wg sync.WaitGroup
	for i, path := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("acquire worker: %w", err)
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = profileFile(c, path)
		}(i, path)
	}
	wg.Wait()
	return results, nil
}

// profileFile loads and profiles one file with its own Profiler.
func profileFile(c *cfgpkg.Config, path string) batchResult {
	d, err := bInput.load(c, path)
	if err != nil {
		return batchResult{path: path, err: err}
	}
	return batchResult{path: path, sum: newProfiler(c, d, c.Settings()).Summary()}
}

// expandInputs resolves globs, keeps literal paths that exist and returns a sorted, de-duplicated list.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniqueReportPath returns dir/<base><ext>, or dir/<base>__N<ext> when that exists already.
func uniqueReportPath(dir, input, ext string) string {
	base := filepath.Base(input)
	for _, suffix := range []string{".gz", ".zst", ".lz4"} {
		base = strings.TrimSuffix(base, suffix)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	out := filepath.Join(dir, base+ext)
	if _, err := os.Stat(out); err != nil {
		return out
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(batchCmd)
	bInput.register(batchCmd)
	batchCmd.Flags().StringVar(&bOutDir, "out-dir", "", "write one report per file into this directory")
	batchCmd.Flags().BoolVar(&bSave, "save", false, "persist every run under reports_dir")
	batchCmd.Flags().BoolVar(&bJSON, "json", false, "write JSON summaries instead of text reports")
	batchCmd.Flags().IntVarP(&bJobs, "jobs", "j", 4, "files profiled concurrently")
	batchCmd.Flags().BoolVarP(&bQuiet, "quiet", "q", false, "suppress progress and report output")
}
