package analysis

import "github.com/KaramelBytes/dataclean-cli/internal/dataset"

// SemanticType is the inferred role of a column.
type SemanticType string

const (
	SemanticNumeric   SemanticType = "numeric"
	SemanticCharacter SemanticType = "character"
	SemanticFactor    SemanticType = "factor"
)

// DefaultFactorThreshold is the distinct-level cap under which a categorical column is a factor.
const DefaultFactorThreshold = 10

// Classify infers the semantic type of a column. Categorical columns with at most
// factorThreshold distinct non-missing values are factors.
func Classify(c dataset.Column, factorThreshold int) SemanticType {
	switch c.Kind {
	case dataset.Numeric:
		return SemanticNumeric
	default:
		if distinctCount(c, false) <= factorThreshold {
			return SemanticFactor
		}
		return SemanticCharacter
	}
}

// distinctCount counts distinct cell values; missing cells count as one value when withMissing.
func distinctCount(c dataset.Column, withMissing bool) int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) && !withMissing {
			continue
		}
		seen[c.Key(i)] = struct{}{}
	}
	return len(seen)
}

// valueCounts returns per-value frequencies of non-missing cells, in first-seen order.
func valueCounts(c dataset.Column) (keys []string, counts map[string]int) {
	counts = make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		k := c.Key(i)
		if _, ok := counts[k]; !ok {
			keys = append(keys, k)
		}
		counts[k]++
	}
	return keys, counts
}
