package prke

import (
	"math"

	"resonance_net/internal/cryptographic/primes"
)

// smallFactorPrimes is the fixed trial division list used when factoring
// pattern elements.
var smallFactorPrimes = [...]uint64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47,
	53, 59, 61, 67, 71, 73, 79, 83, 89, 97,
}

// factorList returns the prime factors of n with multiplicity, found by
// trial division against the fixed small-prime list. A leftover above 1 that
// itself tests prime counts as one more factor; a composite leftover
// contributes nothing.
func factorList(n uint64) []uint64 {
	if n < 2 {
		return nil
	}
	var factors []uint64
	for _, p := range smallFactorPrimes {
		for n%p == 0 {
			factors = append(factors, p)
			n /= p
		}
	}
	if n > 1 && primes.IsPrime(n) {
		factors = append(factors, n)
	}
	return factors
}

// Entanglement scores the factor overlap of two resonance patterns on [0,1).
// Elements are compared position by position as factor multisets; the ratio
// of common factors to total factors, doubled, is squashed through tanh, so
// the score grows with overlap but never reaches 1. The measure is symmetric
// in its arguments.
func Entanglement(a, b []uint64) float64 {
	factorsA := make([][]uint64, len(a))
	for i, n := range a {
		factorsA[i] = factorList(n)
	}
	factorsB := make([][]uint64, len(b))
	for i, n := range b {
		factorsB[i] = factorList(n)
	}

	total := 0
	for _, fs := range factorsA {
		total += len(fs)
	}
	for _, fs := range factorsB {
		total += len(fs)
	}
	if total == 0 {
		return 0
	}

	pairs := len(factorsA)
	if len(factorsB) < pairs {
		pairs = len(factorsB)
	}
	common := 0
	for i := 0; i < pairs; i++ {
		common += overlap(factorsA[i], factorsB[i])
	}

	return math.Tanh(2 * float64(common) / float64(total))
}

// overlap counts the multiset intersection of two factor lists.
func overlap(a, b []uint64) int {
	used := make([]bool, len(b))
	n := 0
	for _, x := range a {
		for j, y := range b {
			if !used[j] && x == y {
				used[j] = true
				n++
				break
			}
		}
	}
	return n
}
