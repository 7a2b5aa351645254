package channel

import (
	"fmt"

	"resonance_net/internal/cryptographic/encryption"
	"resonance_net/internal/cryptographic/kdf"
	"resonance_net/internal/model"
)

// MaxSkip bounds how many out-of-order message keys one Open call may derive
// and how many parked keys a state may hold in total.
const MaxSkip = 1000

func skippedKey(epoch, msgNum uint32) string {
	return fmt.Sprintf("%d:%d", epoch, msgNum)
}

type (
	// State is the symmetric messaging state layered over one exchange
	// session. Both endpoints seed identical directional chains from the
	// shared session key; each chain advances one derived message key per
	// message and restarts when the session key rotates into a new epoch.
	// Fields are exported for cache serialization; only derived chain
	// material appears here, never the session's private prime.
	State struct {
		LocalID string `json:"local_id"`
		PeerID  string `json:"peer_id"`

		Epoch uint32 `json:"epoch"`

		SendChainKey []byte `json:"send_chain_key"`
		RecvChainKey []byte `json:"recv_chain_key"`
		SendN        uint32 `json:"send_n"`
		RecvN        uint32 `json:"recv_n"`

		// Parked keys for messages that arrived out of order, keyed by
		// epoch:msgNum.
		Skipped map[string][]byte `json:"skipped"`
	}
)

// NewState seeds a fresh channel at epoch 0 from a 32-byte session key.
func NewState(sessionKey []byte, localID, peerID string) (*State, error) {
	s := &State{
		LocalID: localID,
		PeerID:  peerID,
		Skipped: make(map[string][]byte),
	}
	if err := s.seedChains(sessionKey); err != nil {
		return nil, err
	}
	return s, nil
}

// seedChains derives the directional chain keys for the current epoch. The
// info string runs sender-to-receiver, so one node's sending chain is exactly
// its peer's receiving chain.
func (s *State) seedChains(sessionKey []byte) error {
	send, err := chainSeed(sessionKey, s.Epoch, s.LocalID, s.PeerID)
	if err != nil {
		return err
	}
	recv, err := chainSeed(sessionKey, s.Epoch, s.PeerID, s.LocalID)
	if err != nil {
		return err
	}
	s.SendChainKey = send
	s.RecvChainKey = recv
	s.SendN = 0
	s.RecvN = 0
	return nil
}

func chainSeed(sessionKey []byte, epoch uint32, from, to string) ([]byte, error) {
	info := fmt.Sprintf("chain:%d:%s>%s", epoch, from, to)
	buf := make([]byte, 32)
	if _, err := kdf.HKDF(sessionKey, nil, []byte(info), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// nextKey advances a chain key and returns the message key for the current
// chain position. Uses HKDF with the chain key as salt, info = "ChannelKDF".
func nextKey(chainKey []byte) (newChainKey, msgKey []byte, err error) {
	buffer := make([]byte, 64)
	if _, err := kdf.HKDF([]byte("ChainInput"), chainKey, []byte("ChannelKDF"), buffer); err != nil {
		return nil, nil, err
	}
	return buffer[:32], buffer[32:], nil
}

// Seal encrypts plaintext with the next sending-chain key and returns the
// header together with the ciphertext. The header is bound in as associated
// data, so it cannot be reattached to another message.
func (s *State) Seal(plaintext []byte) (*model.Header, []byte, error) {
	chain, msgKey, err := nextKey(s.SendChainKey)
	if err != nil {
		return nil, nil, err
	}

	hdr := &model.Header{Epoch: s.Epoch, MsgNum: s.SendN}
	ct, err := encryption.AEADEncrypt(msgKey, plaintext, hdr.AAD())
	if err != nil {
		return nil, nil, err
	}

	s.SendChainKey = chain
	s.SendN++
	return hdr, ct, nil
}

// Open decrypts a received ciphertext, first deriving and parking keys for
// any positions that were skipped. A message from an earlier epoch only
// succeeds if its key was parked before the rotation.
func (s *State) Open(hdr model.Header, ciphertext []byte) ([]byte, error) {
	if mk, ok := s.Skipped[skippedKey(hdr.Epoch, hdr.MsgNum)]; ok {
		delete(s.Skipped, skippedKey(hdr.Epoch, hdr.MsgNum))
		return encryption.AEADDecrypt(mk, ciphertext, hdr.AAD())
	}

	if hdr.Epoch != s.Epoch {
		return nil, fmt.Errorf("message epoch %d does not match channel epoch %d", hdr.Epoch, s.Epoch)
	}
	if hdr.MsgNum < s.RecvN {
		return nil, fmt.Errorf("message %d already consumed", hdr.MsgNum)
	}
	if err := s.parkSkipped(hdr.MsgNum); err != nil {
		return nil, err
	}

	chain, msgKey, err := nextKey(s.RecvChainKey)
	if err != nil {
		return nil, err
	}
	plain, err := encryption.AEADDecrypt(msgKey, ciphertext, hdr.AAD())
	if err != nil {
		return nil, err
	}

	s.RecvChainKey = chain
	s.RecvN++
	return plain, nil
}

// parkSkipped advances the receiving chain up to (excluding) until, parking
// one message key per skipped position.
func (s *State) parkSkipped(until uint32) error {
	if until <= s.RecvN {
		return nil
	}

	toGenerate := int(until - s.RecvN)
	if toGenerate > MaxSkip {
		return fmt.Errorf("skip limit exceeded: need %d keys (max %d)", toGenerate, MaxSkip)
	}
	if len(s.Skipped)+toGenerate > MaxSkip {
		return fmt.Errorf("skip map would exceed limit: have=%d need=%d max=%d", len(s.Skipped), toGenerate, MaxSkip)
	}

	for s.RecvN < until {
		chain, msgKey, err := nextKey(s.RecvChainKey)
		if err != nil {
			return err
		}
		s.Skipped[skippedKey(s.Epoch, s.RecvN)] = msgKey
		s.RecvChainKey = chain
		s.RecvN++
	}
	return nil
}

// Rotate moves the channel into the next epoch on a refreshed session key.
// Keys parked in earlier epochs stay usable for late arrivals.
func (s *State) Rotate(sessionKey []byte) error {
	s.Epoch++
	return s.seedChains(sessionKey)
}
