package stats

import (
	"math"
	"math/rand"
)

// SampleSize returns max(floor(fraction*n), minRows), capped by maxRows when
// maxRows > 0 and never larger than n.
func SampleSize(n int, fraction float64, minRows, maxRows int) int {
	size := int(math.Floor(fraction * float64(n)))
	if size < minRows {
		size = minRows
	}
	if maxRows > 0 && size > maxRows {
		size = maxRows
	}
	if size > n {
		size = n
	}
	if size < 0 {
		size = 0
	}
	return size
}

// SampleIndices draws size distinct row indices from [0, n) uniformly at random.
func SampleIndices(rng *rand.Rand, n, size int) []int {
	if size > n {
		size = n
	}
	if size <= 0 {
		return []int{}
	}
	return rng.Perm(n)[:size]
}
