package digest

import (
	"encoding/hex"
	"testing"
)

func TestSum(t *testing.T) {
	// SHA3-256 of the empty input.
	want := "a7ffc6f8bf1ed76651c14756a061d627f404c7416ae1cc03b9f51fcb57e8d9a0"
	sum := Sum(nil)
	if got := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("Sum(nil) = %s, want %s", got, want)
	}

	if Sum([]byte("abc")) != SumString("abc") {
		t.Error("SumString and Sum disagree")
	}
}
