// Package prke implements the prime resonance key exchange: a pairwise key
// agreement over the fixed field 2^31-1 in which every node's public
// material is bound to a resonance pattern derived deterministically from
// its identifier. Peers verify each other's pattern by re-derivation, strip
// the pattern factors from the exchanged value, and mix the resulting shared
// residue with a pairwise prime sequence before hashing it into a 32-byte
// session key. Established sessions can rotate their keys in place and a
// polynomial secret split extends the exchange to groups.
package prke

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"resonance_net/internal/cryptographic/digest"
	"resonance_net/internal/cryptographic/primes"
)

var (
	ErrSessionNotFound       = errors.New("prke: session not found")
	ErrPatternMismatch       = errors.New("prke: peer pattern verification failed")
	ErrSessionNotEstablished = errors.New("prke: session key not established")
)

type (
	// Session holds one endpoint's state for a single pairwise exchange.
	// All secret fields stay unexported; accessors hand out copies only.
	Session struct {
		mu sync.Mutex

		nodeID string
		peerID string

		privatePrime uint64
		pattern      []uint64
		public       Resonance

		key          []byte
		entanglement float64

		// Peer material captured at exchange time, needed again when the
		// key is rotated without a transport round trip.
		peerPattern []uint64
		peerPublic  Resonance
	}

	// Protocol owns the session table for one node. Each node runs its own
	// instance; sessions are addressed by the unordered identifier pair.
	Protocol struct {
		mu       sync.RWMutex
		sessions map[string]*Session
		patterns map[string][]uint64
	}
)

func New() *Protocol {
	return &Protocol{
		sessions: make(map[string]*Session),
		patterns: make(map[string][]uint64),
	}
}

// pairKey is order independent so both directions of a pair address the same
// session row.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// patternFor returns the resonance pattern for id, deriving it on first use.
// Derivation is pure, the cache is memoization only and never authoritative.
func (p *Protocol) patternFor(id string) []uint64 {
	p.mu.RLock()
	pattern, ok := p.patterns[id]
	p.mu.RUnlock()
	if ok {
		return pattern
	}
	pattern = DerivePattern(id)
	p.mu.Lock()
	p.patterns[id] = pattern
	p.mu.Unlock()
	return pattern
}

// InitSession creates fresh private material for an exchange between localID
// and peerID and replaces any previous session for the pair. The returned
// session already carries the public resonance to transmit.
func (p *Protocol) InitSession(localID, peerID string) (*Session, error) {
	private, err := primes.SafePrime(privateMinBits, privateMaxBits)
	if err != nil {
		return nil, fmt.Errorf("init session %s<->%s: %w", localID, peerID, err)
	}
	return p.installSession(localID, peerID, private), nil
}

func (p *Protocol) installSession(localID, peerID string, private uint64) *Session {
	pattern := p.patternFor(localID)
	s := &Session{
		nodeID:       localID,
		peerID:       peerID,
		privatePrime: private,
		pattern:      pattern,
		public:       EncodeResonance(private, pattern),
	}
	p.mu.Lock()
	p.sessions[pairKey(localID, peerID)] = s
	p.mu.Unlock()
	return s
}

// Session returns the session for the pair, if one exists.
func (p *Protocol) Session(localID, peerID string) (*Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[pairKey(localID, peerID)]
	return s, ok
}

// RemoveSession drops the pair's session. Expiry policy belongs to callers.
func (p *Protocol) RemoveSession(localID, peerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, pairKey(localID, peerID))
}

// ProcessExchange consumes the peer's public resonance and claimed pattern
// and, on success, stores and returns the derived 32-byte session key along
// with recording entanglement strength and the peer material kept for later
// key rotation.
//
// The peer pattern is re-derived locally from the peer identifier and must
// match the transmitted copy exactly. That comparison is the exchange's only
// authentication check; on mismatch the exchange aborts before any peer
// value is used.
func (p *Protocol) ProcessExchange(localID, peerID string, peerPublic Resonance, peerPattern []uint64) ([]byte, error) {
	s, ok := p.Session(localID, peerID)
	if !ok {
		return nil, fmt.Errorf("exchange %s<->%s: %w", localID, peerID, ErrSessionNotFound)
	}

	expected := p.patternFor(peerID)
	if !samePattern(expected, peerPattern) {
		return nil, fmt.Errorf("exchange %s<->%s: %w", localID, peerID, ErrPatternMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	peerBase, err := DecodeResonance(peerPublic, peerPattern)
	if err != nil {
		return nil, fmt.Errorf("exchange %s<->%s: %w", localID, peerID, err)
	}
	key, err := sessionKeyFrom(s.privatePrime, peerBase, s.pattern, peerPattern, localID, peerID)
	if err != nil {
		return nil, fmt.Errorf("exchange %s<->%s: %w", localID, peerID, err)
	}

	s.key = key
	s.entanglement = Entanglement(s.pattern, peerPattern)
	s.peerPattern = append([]uint64(nil), peerPattern...)
	s.peerPublic = peerPublic

	return append([]byte(nil), key...), nil
}

// sessionKeyFrom runs the shared-value computation both endpoints perform:
// exponent exchange against the peer's bare residue, holographic mixing with
// the pairwise next-prime sequence, then the identity-binding digest. Every
// input is symmetric or canonically ordered, so both sides reach the same
// key.
func sessionKeyFrom(private, peerBase uint64, localPattern, peerPattern []uint64, localID, peerID string) ([]byte, error) {
	shared := primes.ModExp(peerBase, private, Modulus)
	mixed, err := mixPatterns(localPattern, peerPattern)
	if err != nil {
		return nil, err
	}
	for i, v := range mixed {
		shared = (primes.MulMod(shared, v, Modulus) + uint64(i+1)) % Modulus
	}
	return deriveKey(shared, localID, peerID), nil
}

// deriveKey hashes the mixed shared value together with both identity
// digests. Identifiers are ordered canonically first, so either endpoint of
// the pair assembles an identical preimage.
func deriveKey(shared uint64, a, b string) []byte {
	if b < a {
		a, b = b, a
	}
	pre := make([]byte, 0, 24)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], shared)
	pre = append(pre, buf[:]...)
	ha := digest.SumString(a)
	pre = append(pre, ha[:8]...)
	hb := digest.SumString(b)
	pre = append(pre, hb[:8]...)
	sum := digest.Sum(pre)
	return sum[:]
}

// RefreshSessionKey rotates the pair's private prime by the angle encoded in
// the current key and recomputes the session key against the peer material
// stored at exchange time, without a transport round trip. Both endpoints
// must trigger the rotation in lockstep; coordinating that is the caller's
// concern.
func (p *Protocol) RefreshSessionKey(localID, peerID string) ([]byte, error) {
	s, ok := p.Session(localID, peerID)
	if !ok {
		return nil, fmt.Errorf("refresh %s<->%s: %w", localID, peerID, ErrSessionNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return nil, fmt.Errorf("refresh %s<->%s: %w", localID, peerID, ErrSessionNotEstablished)
	}

	// Rotation angle from the current key: mean of the first 8 bytes,
	// scaled onto the full circle.
	var sum float64
	for _, b := range s.key[:8] {
		sum += float64(b) / 255
	}
	angle := sum / 8 * 2 * math.Pi

	// Rotate the private prime through the complex plane and take the next
	// prime at or above the resulting magnitude.
	re := float64(s.privatePrime) * math.Cos(angle)
	im := float64(s.privatePrime) * math.Sin(angle)
	magnitude := uint64(math.Sqrt(re*re+im*im)) % Modulus
	rotated, err := primes.Next(magnitude)
	if err != nil {
		return nil, fmt.Errorf("refresh %s<->%s: %w", localID, peerID, err)
	}

	s.privatePrime = rotated
	s.public = EncodeResonance(rotated, s.pattern)

	peerBase, err := DecodeResonance(s.peerPublic, s.peerPattern)
	if err != nil {
		return nil, fmt.Errorf("refresh %s<->%s: %w", localID, peerID, err)
	}
	key, err := sessionKeyFrom(rotated, peerBase, s.pattern, s.peerPattern, localID, peerID)
	if err != nil {
		return nil, fmt.Errorf("refresh %s<->%s: %w", localID, peerID, err)
	}

	s.key = key
	return append([]byte(nil), key...), nil
}

// InitMultiParty prepares pairwise sessions with every listed peer from a
// single group secret. A fresh safe prime is split into len(peerIDs)
// polynomial fragments and each fragment value serves as the private prime
// for one pairwise session; the group secret itself is discarded and only
// recoverable by pooling all fragments.
func (p *Protocol) InitMultiParty(localID string, peerIDs []string) ([]*Session, error) {
	if len(peerIDs) < 2 {
		return nil, fmt.Errorf("multi-party exchange needs at least 2 peers, got %d", len(peerIDs))
	}
	secret, err := primes.SafePrime(privateMinBits, privateMaxBits)
	if err != nil {
		return nil, fmt.Errorf("multi-party secret: %w", err)
	}
	fragments, err := GenerateFragments(secret, len(peerIDs))
	if err != nil {
		return nil, fmt.Errorf("multi-party split: %w", err)
	}

	sessions := make([]*Session, len(peerIDs))
	for i, peer := range peerIDs {
		sessions[i] = p.installSession(localID, peer, fragments[i].Value)
	}
	return sessions, nil
}

// CanEstablishSecureConnection reports whether the pair holds a completed
// exchange whose entanglement strength reaches the threshold.
func (p *Protocol) CanEstablishSecureConnection(localID, peerID string, threshold float64) bool {
	s, ok := p.Session(localID, peerID)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != nil && s.entanglement >= threshold
}

func (s *Session) NodeID() string { return s.nodeID }

func (s *Session) PeerID() string { return s.peerID }

// Pattern returns a copy of the node's own resonance pattern.
func (s *Session) Pattern() []uint64 {
	return append([]uint64(nil), s.pattern...)
}

// Public returns the session's current public resonance.
func (s *Session) Public() Resonance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.public
}

// SessionKey returns a copy of the derived key, or false before an exchange
// has completed.
func (s *Session) SessionKey() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil, false
	}
	return append([]byte(nil), s.key...), true
}

// Entanglement returns the entanglement strength recorded by the last
// exchange, zero before one has completed.
func (s *Session) Entanglement() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entanglement
}
