package prke

import (
	"fmt"

	"resonance_net/internal/cryptographic/primes"
)

// Fixed protocol parameters. These are part of the exchange definition, not
// configuration, and are never negotiated.
const (
	// Modulus is the prime field modulus 2^31 - 1.
	Modulus uint64 = 1<<31 - 1
	// Generator is the exchange base.
	Generator uint64 = 3
)

// Private primes are safe primes with bit length in [20,30); pattern primes
// carry bit length in [10,20).
const (
	privateMinBits = 20
	privateMaxBits = 30
	patternMinBits = 10
	patternMaxBits = 20
)

// Resonance is a field element: a value paired with the modulus it is
// reduced under. It carries no secret material and is safe to transmit.
type Resonance struct {
	Value   uint64 `json:"value"`
	Modulus uint64 `json:"modulus"`
}

// EncodeResonance builds the public resonance for a private prime: the bare
// Generator^private residue folded together with one multiplicative factor
// pattern[i]^(i+1) per pattern element. The result commits the public value
// to both the private prime and the pattern.
func EncodeResonance(privatePrime uint64, pattern []uint64) Resonance {
	base := primes.ModExp(Generator, privatePrime, Modulus)
	for i, p := range pattern {
		factor := primes.ModExp(p, uint64(i+1), Modulus)
		base = primes.MulMod(base, factor, Modulus)
	}
	return Resonance{Value: base, Modulus: Modulus}
}

// DecodeResonance reverses EncodeResonance for a known pattern, dividing the
// pattern factors back out in reverse index order via modular inverses. It
// returns the peer's bare Generator^private residue.
func DecodeResonance(r Resonance, pattern []uint64) (uint64, error) {
	if r.Modulus != Modulus {
		return 0, fmt.Errorf("resonance carries foreign modulus %d", r.Modulus)
	}
	base := r.Value % Modulus
	for i := len(pattern) - 1; i >= 0; i-- {
		factor := primes.ModExp(pattern[i], uint64(i+1), Modulus)
		base = primes.MulMod(base, primes.ModInverse(factor, Modulus), Modulus)
	}
	return base, nil
}

// mixPatterns builds the holographic mixing sequence: entry i is the next
// prime at or above localPattern[i]*peerPattern[i], with the shorter pattern
// padded by ones up to the longer length. The product is symmetric, so both
// peers derive the identical sequence.
func mixPatterns(local, peer []uint64) ([]uint64, error) {
	n := len(local)
	if len(peer) > n {
		n = len(peer)
	}
	mixed := make([]uint64, n)
	for i := 0; i < n; i++ {
		a, b := uint64(1), uint64(1)
		if i < len(local) {
			a = local[i]
		}
		if i < len(peer) {
			b = peer[i]
		}
		v, err := primes.Next(a * b)
		if err != nil {
			return nil, err
		}
		mixed[i] = v
	}
	return mixed, nil
}
