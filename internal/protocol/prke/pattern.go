package prke

import (
	"encoding/binary"

	"resonance_net/internal/cryptographic/digest"
	"resonance_net/internal/cryptographic/primes"
)

// Linear congruential constants driving the pattern walk.
const (
	lcgMultiplier uint64 = 1664525
	lcgIncrement  uint64 = 1013904223
	lcgMask       uint64 = 1<<32 - 1
)

// DerivePattern maps a node identifier to its resonance pattern: 8 to 15
// primes fully determined by the identifier alone. The identifier digest
// seeds a linear congruential walk and every step selects one pattern prime,
// so any party holding only the identifier can re-derive the pattern and
// verify a transmitted copy element for element.
func DerivePattern(nodeID string) []uint64 {
	sum := digest.SumString(nodeID)
	seed := binary.BigEndian.Uint64(sum[:8])

	length := 8 + int(seed%8)
	pattern := make([]uint64, 0, length)
	for i := 0; i < length; i++ {
		seed = (seed*lcgMultiplier + lcgIncrement) & lcgMask
		pattern = append(pattern, primes.FromSeed(seed, patternMinBits, patternMaxBits))
	}
	return pattern
}

func samePattern(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
