package primes

import (
	"errors"
	"testing"
)

func TestIsPrime(t *testing.T) {
	cases := []struct {
		n    uint64
		want bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{3, true},
		{4, false},
		{37, true},
		{561, false}, // Carmichael number
		{7919, true},
		{1<<31 - 1, true}, // the protocol modulus
		{1 << 31, false},
		{1<<61 - 1, true}, // Mersenne prime
		{1 << 62, false},
	}
	for _, c := range cases {
		if got := IsPrime(c.n); got != c.want {
			t.Errorf("IsPrime(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestModExp(t *testing.T) {
	if got := ModExp(3, 0, 1<<31-1); got != 1 {
		t.Errorf("ModExp(3,0,M) = %d, want 1", got)
	}
	if got := ModExp(2, 10, 1000); got != 24 {
		t.Errorf("ModExp(2,10,1000) = %d, want 24", got)
	}
	if got := ModExp(5, 117, 1); got != 0 {
		t.Errorf("ModExp with modulus 1 = %d, want 0", got)
	}

	// Fermat: a^(M-1) = 1 mod M for prime M.
	const m = uint64(1<<31 - 1)
	if got := ModExp(12345, m-1, m); got != 1 {
		t.Errorf("ModExp(12345,M-1,M) = %d, want 1", got)
	}
}

func TestMulMod(t *testing.T) {
	if got := MulMod(7, 9, 10); got != 3 {
		t.Errorf("MulMod(7,9,10) = %d, want 3", got)
	}

	// Operands above the modulus must be reduced, and the full 128-bit
	// product must survive: 2^62 = 2 mod 2^61-1, so the product is 4.
	const m61 = uint64(1<<61 - 1)
	if got := MulMod(1<<62, 1<<62, m61); got != 4 {
		t.Errorf("MulMod(2^62,2^62,2^61-1) = %d, want 4", got)
	}
}

func TestModInverse(t *testing.T) {
	const m = uint64(1<<31 - 1)
	for _, a := range []uint64{1, 2, 3, 1013, 1 << 19, m - 1} {
		inv := ModInverse(a, m)
		if got := MulMod(a, inv, m); got != 1 {
			t.Errorf("a=%d: a*inverse = %d mod M, want 1", a, got)
		}
	}
}

func TestModInverse_NonInvertible(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ModInverse(0, m) should panic")
		}
	}()
	ModInverse(0, 1<<31-1)
}

func TestGenerate(t *testing.T) {
	const lo, hi = uint64(1) << 19, uint64(1) << 29
	for i := 0; i < 16; i++ {
		p, err := Generate(20, 30)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !IsPrime(p) {
			t.Errorf("Generate returned composite %d", p)
		}
		if p < lo || p >= hi {
			t.Errorf("Generate returned %d outside [2^19, 2^29)", p)
		}
	}
}

func TestFromSeed(t *testing.T) {
	p1 := FromSeed(0xDEADBEEF, 10, 20)
	p2 := FromSeed(0xDEADBEEF, 10, 20)
	if p1 != p2 {
		t.Error("FromSeed not deterministic")
	}
	if !IsPrime(p1) {
		t.Errorf("FromSeed returned composite %d", p1)
	}
	if p1 < 1<<9 || p1 >= 1<<19 {
		t.Errorf("FromSeed returned %d outside [2^9, 2^19)", p1)
	}

	p3 := FromSeed(0xDEADBEF0, 10, 20)
	if p1 == p3 && FromSeed(0xDEADBEF1, 10, 20) == p1 {
		t.Error("FromSeed ignores its seed")
	}
}

func TestSafePrime(t *testing.T) {
	const lo, hi = uint64(1) << 19, uint64(1) << 29
	for i := 0; i < 4; i++ {
		p, err := SafePrime(20, 30)
		if err != nil {
			t.Fatalf("SafePrime failed: %v", err)
		}
		if !IsPrime(p) {
			t.Errorf("SafePrime returned composite %d", p)
		}
		if !IsPrime((p - 1) / 2) {
			t.Errorf("SafePrime returned %d with composite (p-1)/2", p)
		}
		if p < lo || p >= hi {
			t.Errorf("SafePrime returned %d outside [2^19, 2^29)", p)
		}
	}
}

func TestNext(t *testing.T) {
	cases := []struct {
		n    uint64
		want uint64
	}{
		{0, 2},
		{2, 2},
		{3, 3},
		{4, 5},
		{9, 11},
		{14, 17},
		{7919, 7919},
		{7920, 7927},
	}
	for _, c := range cases {
		got, err := Next(c.n)
		if err != nil {
			t.Fatalf("Next(%d) failed: %v", c.n, err)
		}
		if got != c.want {
			t.Errorf("Next(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestGenerate_BadRange(t *testing.T) {
	if _, err := Generate(30, 20); err == nil {
		t.Error("Generate should reject an inverted bit range")
	}
	if _, err := Generate(0, 20); err == nil {
		t.Error("Generate should reject a zero minimum")
	}
}

func TestNext_Exhausted(t *testing.T) {
	// No prime exists at or above 2^64-2, so the scan must fail typed
	// instead of wrapping around.
	_, err := Next(1<<64 - 2)
	if err == nil {
		t.Fatal("Next at the top of the space should fail rather than wrap")
	}
	if !errors.Is(err, ErrSearchExhausted) {
		t.Errorf("Next error = %v, want ErrSearchExhausted", err)
	}
}
