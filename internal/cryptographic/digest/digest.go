// Package digest wraps the fixed 32-byte hash used throughout the protocol.
package digest

import "golang.org/x/crypto/sha3"

// Size is the digest length in bytes.
const Size = 32

// Sum returns the SHA3-256 digest of b.
func Sum(b []byte) [Size]byte {
	return sha3.Sum256(b)
}

// SumString returns the SHA3-256 digest of s.
func SumString(s string) [Size]byte {
	return sha3.Sum256([]byte(s))
}
