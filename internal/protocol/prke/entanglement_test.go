package prke

import (
	"math"
	"testing"
)

func TestEntanglement_Bounds(t *testing.T) {
	a := DerivePattern("alice")
	b := DerivePattern("bob")

	e := Entanglement(a, b)
	if e < 0 || e >= 1 {
		t.Errorf("Entanglement = %v, want value in [0,1)", e)
	}
	if got := Entanglement(b, a); got != e {
		t.Errorf("Entanglement not symmetric: %v vs %v", e, got)
	}
}

func TestEntanglement_Empty(t *testing.T) {
	if got := Entanglement(nil, nil); got != 0 {
		t.Errorf("Entanglement(nil,nil) = %v, want 0", got)
	}
}

func TestEntanglement_SelfOverlap(t *testing.T) {
	// Comparing a pattern with itself matches every factor pairwise, so the
	// ratio is exactly 1/2 and the score sits at the tanh(1) ceiling.
	a := DerivePattern("alice")
	e := Entanglement(a, a)
	if want := math.Tanh(1); math.Abs(e-want) > 1e-12 {
		t.Errorf("self entanglement = %v, want %v", e, want)
	}
	if e >= 1 {
		t.Errorf("self entanglement = %v, must stay below 1", e)
	}
}

func TestEntanglement_FactorCounting(t *testing.T) {
	// 6 = 2*3 and 15 = 3*5 share one factor out of four total.
	if got, want := Entanglement([]uint64{6}, []uint64{15}), math.Tanh(0.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("Entanglement({6},{15}) = %v, want %v", got, want)
	}

	// Repeated factors count with multiplicity: 12 = 2*2*3.
	if got, want := Entanglement([]uint64{12, 35}, []uint64{12, 35}), math.Tanh(1); math.Abs(got-want) > 1e-12 {
		t.Errorf("Entanglement of equal composite patterns = %v, want %v", got, want)
	}

	// Factors are compared per index, not across positions: 4 = 2*2 and
	// 9 = 3*3 share nothing pairwise even though the swapped pattern holds
	// identical elements.
	if got := Entanglement([]uint64{4, 9}, []uint64{9, 4}); got != 0 {
		t.Errorf("cross-position factors counted as common: %v", got)
	}
}

func TestEntanglement_CompositeLeftover(t *testing.T) {
	// 10403 = 101*103 has no factor below the trial division ceiling and the
	// leftover is composite, so the element contributes no factors at all.
	if got := Entanglement([]uint64{10403}, []uint64{10403}); got != 0 {
		t.Errorf("Entanglement with composite leftovers = %v, want 0", got)
	}
}
