package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

// Text renders the summary as a bracketed plain-text report.
func (s Summary) Text() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", s.Columns))
	b.WriteString(fmt.Sprintf("Duplicated rows: %d\n", s.DuplicatedRows))

	if len(s.Structure) > 0 {
		b.WriteString("\n[SCHEMA]\n")
		for _, c := range s.Structure {
			b.WriteString(fmt.Sprintf("- %s: %s/%s (missing %d, %.1f%%; distinct %d)",
				safeName(c.Name), c.Kind, c.Semantic, c.Missing, c.MissingPct*100, c.Distinct))
			var tags []string
			if c.AllMissing {
				tags = append(tags, "all missing")
			}
			if c.Constant {
				tags = append(tags, "constant")
			}
			if c.IsKey {
				tags = append(tags, "key")
			}
			if c.NZV {
				tags = append(tags, "nzv")
			}
			if len(tags) > 0 {
				b.WriteString(" [" + strings.Join(tags, ", ") + "]")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n[MISSING VALUES]\n")
	b.WriteString(fmt.Sprintf("- more than %.2f%% missing: %s\n", s.ManyMissingPct*100, utils.JoinOrNone(s.ManyMissing)))
	b.WriteString(fmt.Sprintf("- at most %.2f%% missing: %s\n", s.LowMissingPct*100, utils.JoinOrNone(s.LowMissing)))
	if len(s.LowMissing) > 0 {
		b.WriteString("  fill them with the mean or the most common value\n")
	}

	b.WriteString("\n[KEYS AND DUPLICATES]\n")
	b.WriteString(fmt.Sprintf("- detected keys: %s\n", utils.JoinOrNone(s.Keys)))
	b.WriteString(fmt.Sprintf("- duplicated columns: %s\n", DuplicateColumnsResult{Groups: s.DuplicateColumns}))

	b.WriteString("\n[LOW INFORMATION]\n")
	b.WriteString(fmt.Sprintf("- constant columns: %s\n", utils.JoinOrNone(s.Constant)))
	b.WriteString(fmt.Sprintf("- near-zero variance: %s\n", utils.JoinOrNone(s.NearZeroVar)))
	b.WriteString(fmt.Sprintf("- highly correlated, to remove: %s\n", utils.JoinOrNone(s.Correlated)))
	b.WriteString(fmt.Sprintf("- strings longer than %d: %s\n", s.StringThreshold, utils.JoinOrNone(s.BigStrings)))

	if len(s.Outliers) > 0 || len(s.Negative) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, k := range sortedKeys(s.Outliers) {
			b.WriteString(fmt.Sprintf("- %s: %d flagged rows", k, s.Outliers[k]))
			if n := s.Negative[k]; n > 0 {
				b.WriteString(fmt.Sprintf("; %d negative values", n))
			}
			b.WriteString("\n")
		}
	}

	if len(s.Head) > 0 && len(s.Structure) > 0 {
		b.WriteString("\n[HEAD ROWS]\n")
		names := make([]string, len(s.Structure))
		seps := make([]string, len(s.Structure))
		for i, c := range s.Structure {
			names[i] = safeName(c.Name)
			seps[i] = "---"
		}
		b.WriteString("| " + strings.Join(names, " | ") + " |\n")
		b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
		for _, row := range s.Head {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = utils.SafeCell(utils.Truncate(v, 80))
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	if len(s.Errors) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, k := range s.Errors.Keys() {
			b.WriteString(fmt.Sprintf("- %s: %v\n", k, s.Errors[k]))
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
