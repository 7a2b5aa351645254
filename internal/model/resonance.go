package model

import "resonance_net/internal/protocol/prke"

type (
	// ResonanceExchange carries one side's public exchange values to a peer.
	// CeremonyID groups the envelopes of a multi-party establishment and is
	// empty for plain pairwise handshakes. Reply marks the answering half of
	// a handshake so the peer does not answer again.
	ResonanceExchange struct {
		Public     prke.Resonance `json:"public"`
		Pattern    []uint64       `json:"pattern"`
		CeremonyID string         `json:"ceremony_id,omitempty"`
		Reply      bool           `json:"reply,omitempty"`
	}
)
