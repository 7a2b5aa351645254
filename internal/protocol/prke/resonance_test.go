package prke

import (
	"testing"

	"resonance_net/internal/cryptographic/primes"
)

func TestResonanceRoundTrip(t *testing.T) {
	pattern := DerivePattern("alice")
	for i := 0; i < 4; i++ {
		private, err := primes.SafePrime(privateMinBits, privateMaxBits)
		if err != nil {
			t.Fatalf("SafePrime failed: %v", err)
		}

		public := EncodeResonance(private, pattern)
		if public.Modulus != Modulus {
			t.Fatalf("EncodeResonance modulus = %d, want %d", public.Modulus, Modulus)
		}

		base, err := DecodeResonance(public, pattern)
		if err != nil {
			t.Fatalf("DecodeResonance failed: %v", err)
		}
		if want := primes.ModExp(Generator, private, Modulus); base != want {
			t.Errorf("round trip for prime %d = %d, want %d", private, base, want)
		}
	}
}

func TestDecodeResonance_ForeignModulus(t *testing.T) {
	pattern := DerivePattern("alice")
	_, err := DecodeResonance(Resonance{Value: 5, Modulus: 97}, pattern)
	if err == nil {
		t.Error("DecodeResonance should reject a foreign modulus")
	}
}

func TestMixPatterns(t *testing.T) {
	mixed, err := mixPatterns([]uint64{3, 5, 11}, []uint64{7, 5})
	if err != nil {
		t.Fatalf("mixPatterns failed: %v", err)
	}
	// 3*7=21 -> 23, 5*5=25 -> 29, 11*1=11 -> 11.
	want := []uint64{23, 29, 11}
	if !samePattern(mixed, want) {
		t.Errorf("mixPatterns = %v, want %v", mixed, want)
	}

	// Symmetric in its arguments.
	swapped, err := mixPatterns([]uint64{7, 5}, []uint64{3, 5, 11})
	if err != nil {
		t.Fatalf("mixPatterns failed: %v", err)
	}
	if !samePattern(mixed, swapped) {
		t.Errorf("mixPatterns not symmetric: %v vs %v", mixed, swapped)
	}
}
