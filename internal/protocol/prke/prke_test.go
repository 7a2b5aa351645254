package prke

import (
	"bytes"
	"errors"
	"testing"
)

// exchange runs a complete bidirectional handshake between two fresh
// protocol instances and returns both derived keys.
func exchange(t *testing.T, alice, bob *Protocol, aliceID, bobID string) ([]byte, []byte) {
	t.Helper()

	as, err := alice.InitSession(aliceID, bobID)
	if err != nil {
		t.Fatalf("InitSession(%s) failed: %v", aliceID, err)
	}
	bs, err := bob.InitSession(bobID, aliceID)
	if err != nil {
		t.Fatalf("InitSession(%s) failed: %v", bobID, err)
	}

	ak, err := alice.ProcessExchange(aliceID, bobID, bs.Public(), bs.Pattern())
	if err != nil {
		t.Fatalf("ProcessExchange on %s failed: %v", aliceID, err)
	}
	bk, err := bob.ProcessExchange(bobID, aliceID, as.Public(), as.Pattern())
	if err != nil {
		t.Fatalf("ProcessExchange on %s failed: %v", bobID, err)
	}
	return ak, bk
}

func TestExchange_Symmetry(t *testing.T) {
	alice, bob := New(), New()
	ak, bk := exchange(t, alice, bob, "alice", "bob")

	if len(ak) != 32 {
		t.Fatalf("session key length = %d, want 32", len(ak))
	}
	if !bytes.Equal(ak, bk) {
		t.Error("peers derived different session keys")
	}

	// The key is stored on the session and visible through the accessor.
	as, ok := alice.Session("alice", "bob")
	if !ok {
		t.Fatal("alice session missing after exchange")
	}
	stored, ok := as.SessionKey()
	if !ok || !bytes.Equal(stored, ak) {
		t.Error("stored session key does not match the returned key")
	}
}

func TestExchange_SessionNotFound(t *testing.T) {
	p := New()
	_, err := p.ProcessExchange("alice", "bob", Resonance{Value: 1, Modulus: Modulus}, DerivePattern("bob"))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ProcessExchange error = %v, want ErrSessionNotFound", err)
	}

	_, err = p.RefreshSessionKey("alice", "bob")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("RefreshSessionKey error = %v, want ErrSessionNotFound", err)
	}
}

func TestExchange_PatternMismatch(t *testing.T) {
	alice, bob := New(), New()
	as, err := alice.InitSession("alice", "bob")
	if err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	bs, err := bob.InitSession("bob", "alice")
	if err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}

	// A transmitted pattern that does not re-derive from the claimed peer
	// identifier must abort the exchange.
	forged := bs.Pattern()
	forged[0]++
	_, err = alice.ProcessExchange("alice", "bob", bs.Public(), forged)
	if !errors.Is(err, ErrPatternMismatch) {
		t.Fatalf("ProcessExchange error = %v, want ErrPatternMismatch", err)
	}

	// Claiming somebody else's pattern fails the same way.
	_, err = alice.ProcessExchange("alice", "bob", bs.Public(), DerivePattern("mallory"))
	if !errors.Is(err, ErrPatternMismatch) {
		t.Fatalf("ProcessExchange error = %v, want ErrPatternMismatch", err)
	}

	// The failed exchange must leave no key behind.
	if _, ok := as.SessionKey(); ok {
		t.Error("session key set despite failed pattern verification")
	}
}

func TestRefresh_Symmetry(t *testing.T) {
	alice, bob := New(), New()
	ak, bk := exchange(t, alice, bob, "alice", "bob")
	if !bytes.Equal(ak, bk) {
		t.Fatal("exchange keys differ before refresh")
	}

	ak2, err := alice.RefreshSessionKey("alice", "bob")
	if err != nil {
		t.Fatalf("RefreshSessionKey on alice failed: %v", err)
	}
	bk2, err := bob.RefreshSessionKey("bob", "alice")
	if err != nil {
		t.Fatalf("RefreshSessionKey on bob failed: %v", err)
	}

	if len(ak2) != 32 {
		t.Fatalf("refreshed key length = %d, want 32", len(ak2))
	}
	if !bytes.Equal(ak2, bk2) {
		t.Error("peers derived different keys after lockstep refresh")
	}

	as, _ := alice.Session("alice", "bob")
	stored, ok := as.SessionKey()
	if !ok || !bytes.Equal(stored, ak2) {
		t.Error("stored key does not match the refreshed key")
	}
}

func TestRefresh_NotEstablished(t *testing.T) {
	p := New()
	if _, err := p.InitSession("alice", "bob"); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	_, err := p.RefreshSessionKey("alice", "bob")
	if !errors.Is(err, ErrSessionNotEstablished) {
		t.Errorf("RefreshSessionKey error = %v, want ErrSessionNotEstablished", err)
	}
}

func TestMultiParty(t *testing.T) {
	host := New()
	peers := []string{"n1", "n2", "n3"}

	sessions, err := host.InitMultiParty("host", peers)
	if err != nil {
		t.Fatalf("InitMultiParty failed: %v", err)
	}
	if len(sessions) != len(peers) {
		t.Fatalf("expected %d sessions, got %d", len(peers), len(sessions))
	}

	// Every fragment-backed session completes a full pairwise exchange.
	keys := make([][]byte, len(peers))
	for i, peer := range peers {
		if sessions[i].PeerID() != peer {
			t.Fatalf("session %d peer = %s, want %s", i, sessions[i].PeerID(), peer)
		}

		remote := New()
		rs, err := remote.InitSession(peer, "host")
		if err != nil {
			t.Fatalf("InitSession(%s) failed: %v", peer, err)
		}
		hk, err := host.ProcessExchange("host", peer, rs.Public(), rs.Pattern())
		if err != nil {
			t.Fatalf("host exchange with %s failed: %v", peer, err)
		}
		rk, err := remote.ProcessExchange(peer, "host", sessions[i].Public(), sessions[i].Pattern())
		if err != nil {
			t.Fatalf("%s exchange with host failed: %v", peer, err)
		}
		if !bytes.Equal(hk, rk) {
			t.Errorf("pairwise keys differ for peer %s", peer)
		}
		keys[i] = hk
	}

	// Independent pairwise keys.
	if bytes.Equal(keys[0], keys[1]) || bytes.Equal(keys[1], keys[2]) {
		t.Error("fragment-backed sessions produced identical keys")
	}
}

func TestMultiParty_TooFewPeers(t *testing.T) {
	host := New()
	if _, err := host.InitMultiParty("host", []string{"solo"}); err == nil {
		t.Error("InitMultiParty should reject fewer than 2 peers")
	}
}

func TestCanEstablishSecureConnection(t *testing.T) {
	alice, bob := New(), New()

	// No session at all.
	if alice.CanEstablishSecureConnection("alice", "bob", 0) {
		t.Error("secure connection allowed without a session")
	}

	if _, err := alice.InitSession("alice", "bob"); err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	// Session exists but no exchange has completed.
	if alice.CanEstablishSecureConnection("alice", "bob", 0) {
		t.Error("secure connection allowed before the exchange completed")
	}

	bs, err := bob.InitSession("bob", "alice")
	if err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if _, err := alice.ProcessExchange("alice", "bob", bs.Public(), bs.Pattern()); err != nil {
		t.Fatalf("ProcessExchange failed: %v", err)
	}

	if !alice.CanEstablishSecureConnection("alice", "bob", 0) {
		t.Error("secure connection refused after a completed exchange")
	}

	// The entanglement score cannot exceed tanh(1), so an out-of-reach
	// threshold always refuses.
	if alice.CanEstablishSecureConnection("alice", "bob", 0.99) {
		t.Error("secure connection allowed above the entanglement ceiling")
	}

	// Threshold comparison is against the stored strength.
	as, _ := alice.Session("alice", "bob")
	ent := as.Entanglement()
	if got := alice.CanEstablishSecureConnection("alice", "bob", 0.7); got != (ent >= 0.7) {
		t.Errorf("threshold 0.7 decision = %v with stored strength %v", got, ent)
	}

	alice.RemoveSession("alice", "bob")
	if alice.CanEstablishSecureConnection("alice", "bob", 0) {
		t.Error("secure connection allowed after session removal")
	}
}

func TestSessionTable(t *testing.T) {
	p := New()
	if _, ok := p.Session("alice", "bob"); ok {
		t.Error("Session reported a hit before InitSession")
	}

	s1, err := p.InitSession("alice", "bob")
	if err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if s1.NodeID() != "alice" || s1.PeerID() != "bob" {
		t.Errorf("session identities = %s/%s, want alice/bob", s1.NodeID(), s1.PeerID())
	}

	// The pair key is order independent.
	got, ok := p.Session("bob", "alice")
	if !ok || got != s1 {
		t.Error("reversed pair lookup did not find the session")
	}

	// Re-initializing replaces the previous session.
	s2, err := p.InitSession("alice", "bob")
	if err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if got, _ := p.Session("alice", "bob"); got != s2 {
		t.Error("InitSession did not replace the existing session")
	}

	p.RemoveSession("alice", "bob")
	if _, ok := p.Session("alice", "bob"); ok {
		t.Error("session still present after RemoveSession")
	}
}
