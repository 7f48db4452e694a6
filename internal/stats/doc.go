// Package stats holds the stateless numeric helpers shared by the analyzers:
// row sampling, quantiles, dispersion scores, correlation coefficients,
// the population stability index and bootstrap intervals.
//
// Every function is pure. Randomness is always drawn from a caller-supplied
// *rand.Rand so results are reproducible under a fixed seed.
package stats
