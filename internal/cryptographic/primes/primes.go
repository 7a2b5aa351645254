// Package primes provides the modular arithmetic used by the resonance
// exchange: prime generation, deterministic primality testing, modular
// exponentiation and modular inverses, all over uint64.
package primes

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

// ErrSearchExhausted reports that a bounded prime search ran out of attempts.
// With the bit ranges used by the protocol this is practically unreachable.
var ErrSearchExhausted = errors.New("prime search exhausted")

// maxNextPrimeScan bounds Next. Prime gaps below 2^40 stay in the hundreds,
// so a scan this long only trips on a broken caller.
const maxNextPrimeScan = 4096

// maxSafePrimeAttempts bounds SafePrime. Safe primes make up a few percent of
// primes in the 20..30 bit range; thousands of draws is far beyond the
// expected handful.
const maxSafePrimeAttempts = 10000

// mrWitnesses is a fixed witness set making Miller-Rabin deterministic for
// every 64-bit input.
var mrWitnesses = [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}

// Bits returns the bit length of n.
func Bits(n uint64) int {
	return bits.Len64(n)
}

// IsPrime reports whether n is prime. Deterministic for all uint64 values.
func IsPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for _, p := range mrWitnesses {
		if n == p {
			return true
		}
		if n%p == 0 {
			return false
		}
	}

	// n-1 = d * 2^r with d odd
	d := n - 1
	r := 0
	for d%2 == 0 {
		d /= 2
		r++
	}

	for _, a := range mrWitnesses {
		x := ModExp(a, d, n)
		if x == 1 || x == n-1 {
			continue
		}
		composite := true
		for i := 0; i < r-1; i++ {
			x = MulMod(x, x, n)
			if x == n-1 {
				composite = false
				break
			}
		}
		if composite {
			return false
		}
	}
	return true
}

// MulMod returns a*b mod m using a 128-bit intermediate product.
func MulMod(a, b, m uint64) uint64 {
	a %= m
	b %= m
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi, lo, m)
	return rem
}

// ModExp returns base^exp mod m by square-and-multiply.
func ModExp(base, exp, m uint64) uint64 {
	if m == 1 {
		return 0
	}
	result := uint64(1)
	base %= m
	for exp > 0 {
		if exp&1 == 1 {
			result = MulMod(result, base, m)
		}
		base = MulMod(base, base, m)
		exp >>= 1
	}
	return result
}

// ModInverse computes a^(-1) mod m via the extended Euclidean algorithm.
// m must be below 2^63. Panics if a is not invertible mod m; with the prime
// protocol modulus that only happens for a ≡ 0, which indicates a bug in the
// caller rather than a runtime condition.
func ModInverse(a, m uint64) uint64 {
	r0 := int64(a % m)
	if r0 == 0 {
		panic("primes: value not invertible")
	}
	r1 := int64(m)
	s0, s1 := int64(1), int64(0)
	for r1 != 0 {
		q := r0 / r1
		r0, r1 = r1, r0-q*r1
		s0, s1 = s1, s0-q*s1
	}
	if r0 != 1 {
		panic("primes: value not invertible")
	}
	res := s0 % int64(m)
	if res < 0 {
		res += int64(m)
	}
	return uint64(res)
}

// bitRange maps a half-open bit-length interval [minBits, maxBits) to the
// half-open value interval [lo, hi).
func bitRange(minBits, maxBits int) (lo, hi uint64, err error) {
	if minBits < 2 || maxBits <= minBits || maxBits > 64 {
		return 0, 0, fmt.Errorf("invalid bit range [%d,%d)", minBits, maxBits)
	}
	return 1 << (minBits - 1), 1 << (maxBits - 1), nil
}

// scanRange walks upward from start looking for a prime, wrapping from hi
// back to lo. The interval spans at least one full power of two, so it always
// contains primes and a single full cycle is guaranteed to find one.
func scanRange(start, lo, hi uint64) uint64 {
	n := start
	for span := hi - lo; span > 0; span-- {
		if n >= hi {
			n = lo
		}
		if IsPrime(n) {
			return n
		}
		n++
	}
	// Unreachable: every [2^k, 2^(k+1)) interval contains primes.
	panic("primes: no prime in range")
}

// Generate returns a random prime with bit length in [minBits, maxBits).
func Generate(minBits, maxBits int) (uint64, error) {
	lo, hi, err := bitRange(minBits, maxBits)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	seed := binary.BigEndian.Uint64(buf[:])
	return scanRange(lo+seed%(hi-lo), lo, hi), nil
}

// FromSeed returns the prime a seed deterministically maps to within the bit
// range: the seed picks a starting point and the scan advances to the next
// prime, wrapping inside the range. Equal seeds always yield equal primes.
// Panics on an invalid bit range.
func FromSeed(seed uint64, minBits, maxBits int) uint64 {
	lo, hi, err := bitRange(minBits, maxBits)
	if err != nil {
		panic(err)
	}
	return scanRange(lo+seed%(hi-lo), lo, hi)
}

// SafePrime returns a prime p with bit length in [minBits, maxBits) such that
// (p-1)/2 is also prime. The search is capped and fails with
// ErrSearchExhausted instead of looping forever.
func SafePrime(minBits, maxBits int) (uint64, error) {
	for i := 0; i < maxSafePrimeAttempts; i++ {
		p, err := Generate(minBits, maxBits)
		if err != nil {
			return 0, err
		}
		if IsPrime((p - 1) / 2) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("safe prime with bits in [%d,%d): %w", minBits, maxBits, ErrSearchExhausted)
}

// Next returns the smallest prime greater than or equal to n. The scan is
// capped and fails with ErrSearchExhausted rather than running unbounded.
func Next(n uint64) (uint64, error) {
	if n <= 2 {
		return 2, nil
	}
	c := n | 1
	for steps := 0; steps < maxNextPrimeScan; steps++ {
		if IsPrime(c) {
			return c, nil
		}
		if c+2 < c { // top of the space
			break
		}
		c += 2
	}
	return 0, fmt.Errorf("next prime from %d: %w", n, ErrSearchExhausted)
}
