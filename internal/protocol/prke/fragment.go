package prke

import (
	"errors"
	"fmt"

	"resonance_net/internal/cryptographic/primes"
)

// SharePoint is one evaluation of a sharing polynomial: the fragment value Y
// observed at index X.
type SharePoint struct {
	X uint64
	Y uint64
}

// GenerateFragments splits secret into n fragments as evaluations of a
// random degree-(n-1) polynomial over the protocol field. The constant term
// is the secret reduced into the field; the higher coefficients are fresh
// private-range primes. Fragment i is the evaluation at x = i+1, so no
// fragment ever sits at the secret-bearing point x = 0.
func GenerateFragments(secret uint64, n int) ([]Resonance, error) {
	if n < 2 {
		return nil, fmt.Errorf("fragment count %d: need at least 2 participants", n)
	}

	coeffs := make([]uint64, n)
	coeffs[0] = secret % Modulus
	for i := 1; i < n; i++ {
		c, err := primes.Generate(privateMinBits, privateMaxBits)
		if err != nil {
			return nil, fmt.Errorf("fragment coefficient: %w", err)
		}
		coeffs[i] = c
	}

	fragments := make([]Resonance, n)
	for i := range fragments {
		fragments[i] = Resonance{Value: evalPoly(coeffs, uint64(i+1)), Modulus: Modulus}
	}
	return fragments, nil
}

// evalPoly evaluates the polynomial with the given coefficients (constant
// term first) at x over the field, by Horner's rule.
func evalPoly(coeffs []uint64, x uint64) uint64 {
	acc := uint64(0)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = (primes.MulMod(acc, x, Modulus) + coeffs[i]%Modulus) % Modulus
	}
	return acc
}

// ReconstructSecret recovers the sharing polynomial's constant term by
// Lagrange interpolation at x = 0. Handing it all n fragments of a split
// returns the original secret reduced into the field; any n points of a
// degree-(n-1) polynomial interpolate the same way, but recovery from
// partial subsets is not a guaranteed feature of the exchange.
func ReconstructSecret(points []SharePoint) (uint64, error) {
	if len(points) == 0 {
		return 0, errors.New("no share points")
	}

	secret := uint64(0)
	for j, pj := range points {
		num, den := uint64(1), uint64(1)
		for k, pk := range points {
			if k == j {
				continue
			}
			num = primes.MulMod(num, pk.X%Modulus, Modulus)
			diff := fieldSub(pk.X, pj.X)
			if diff == 0 {
				return 0, fmt.Errorf("duplicate share point x=%d", pk.X)
			}
			den = primes.MulMod(den, diff, Modulus)
		}
		weight := primes.MulMod(num, primes.ModInverse(den, Modulus), Modulus)
		term := primes.MulMod(pj.Y%Modulus, weight, Modulus)
		secret = (secret + term) % Modulus
	}
	return secret, nil
}

// fieldSub returns a-b in the field.
func fieldSub(a, b uint64) uint64 {
	a %= Modulus
	b %= Modulus
	if a >= b {
		return a - b
	}
	return Modulus - (b - a)
}
