package model

import (
	"encoding/binary"
	"encoding/json"
)

// Envelope kinds carried over the relay.
const (
	KindExchange = "exchange"
	KindChat     = "chat"
	KindRefresh  = "refresh"
)

type (
	// Header rides along with each chat ciphertext and is bound into the
	// channel AEAD as associated data.
	Header struct {
		Epoch  uint32 `json:"epoch"`   // key epoch, increments on refresh
		MsgNum uint32 `json:"msg_num"` // position in the epoch's chain
	}

	// Message is the websocket envelope relayed between nodes. Control
	// envelopes (exchange, refresh) carry an ed25519 signature; chat
	// envelopes are protected by the channel AEAD instead.
	Message struct {
		ID         string             `json:"id"`
		Kind       string             `json:"kind"`
		From       string             `json:"from"`
		To         string             `json:"to"`
		Header     *Header            `json:"header,omitempty"`
		Ciphertext []byte             `json:"ciphertext,omitempty"`
		Exchange   *ResonanceExchange `json:"exchange,omitempty"`
		Sig        []byte             `json:"sig,omitempty"`
	}
)

// AAD returns the fixed-width header bytes bound into the channel AEAD.
func (h Header) AAD() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[:4], h.Epoch)
	binary.BigEndian.PutUint32(b[4:], h.MsgNum)
	return b
}

// SigningBytes returns the canonical byte form a control envelope is signed
// over: the JSON encoding of every field except the signature itself. Struct
// field order makes the encoding deterministic on both ends.
func (m *Message) SigningBytes() []byte {
	clone := *m
	clone.Sig = nil
	data, _ := json.Marshal(&clone)
	return data
}
