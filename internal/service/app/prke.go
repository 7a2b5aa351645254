package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resonance_net/internal/cryptographic/signature"
	"resonance_net/internal/model"
	"resonance_net/internal/protocol/channel"
	"resonance_net/internal/utils/log"
)

// sendExchangeTo signs and sends our public resonance to a peer, creating a
// session for the pair if none exists yet. Multi-party ceremonies pass their
// ceremony ID so the peers can tell the envelopes apart from pairwise ones.
func (c *App) sendExchangeTo(to string, ceremonyID string, reply bool) error {
	s, ok := c.protocol.Session(c.node.Name, to)
	if !ok {
		var err error
		s, err = c.protocol.InitSession(c.node.Name, to)
		if err != nil {
			return err
		}
	}

	msg := &model.Message{
		ID:   uuid.NewString(),
		Kind: model.KindExchange,
		From: c.node.Name,
		To:   to,
		Exchange: &model.ResonanceExchange{
			Public:     s.Public(),
			Pattern:    s.Pattern(),
			CeremonyID: ceremonyID,
			Reply:      reply,
		},
	}
	msg.Sig = signature.ED25519Sign(c.node.SignPriv, msg.SigningBytes())
	return c.writeEnvelope(msg)
}

// verifyEnvelope checks a control envelope's signature against the sender's
// directory card, fetching the card on first contact.
func (c *App) verifyEnvelope(msg *model.Message) error {
	card, ok := c.cards[msg.From]
	if !ok {
		var err error
		card, err = c.getNodeCard(msg.From)
		if err != nil {
			return fmt.Errorf("fetch card for %s: %w", msg.From, err)
		}
		c.cards[msg.From] = card
	}

	if !signature.ED25519Verify(card.SignPub, msg.SigningBytes(), msg.Sig) {
		return fmt.Errorf("envelope signature from %s rejected", msg.From)
	}
	return nil
}

func (c *App) handleExchange(msg *model.Message) error {
	if msg.Exchange == nil {
		return errors.New("exchange envelope missing payload")
	}
	if err := c.verifyEnvelope(msg); err != nil {
		return err
	}

	if _, ok := c.protocol.Session(c.node.Name, msg.From); !ok {
		if _, err := c.protocol.InitSession(c.node.Name, msg.From); err != nil {
			return err
		}
	}

	key, err := c.protocol.ProcessExchange(c.node.Name, msg.From, msg.Exchange.Public, msg.Exchange.Pattern)
	if err != nil {
		return err
	}

	if !msg.Exchange.Reply {
		if err := c.sendExchangeTo(msg.From, msg.Exchange.CeremonyID, true); err != nil {
			return err
		}
	}

	s, _ := c.protocol.Session(c.node.Name, msg.From)
	if msg.From != c.peerName {
		c.notice(fmt.Sprintf("entangled with %s (entanglement %.3f)", msg.From, s.Entanglement()))
		return nil
	}

	// A reply on top of a live channel is the tail of a crossed handshake;
	// both sides already derived the same key, so keep the channel as is.
	c.mu.Lock()
	if msg.Exchange.Reply && c.state != nil {
		c.mu.Unlock()
		return nil
	}
	st, err := channel.NewState(key, c.node.Name, c.peerName)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = st
	c.mu.Unlock()

	if err := c.SaveState(context.TODO(), c.node.Name, c.peerName, st); err != nil {
		log.Error("cache channel state failed", zap.Error(err))
	}

	c.app.QueueUpdateDraw(func() {
		c.chatbox.SetTitle(c.chatTitle())
		fmt.Fprintf(c.chatbox, "[gray]secure channel established (entanglement %.3f)[-]\n", s.Entanglement())
		c.chatbox.ScrollToEnd()
	})
	return nil
}

// triggerRefresh sends a signed refresh envelope to the peer and rotates the
// local session in the same step. Rotation is deterministic on both ends, so
// no key material ever travels with the envelope.
func (c *App) triggerRefresh() error {
	msg := &model.Message{
		ID:   uuid.NewString(),
		Kind: model.KindRefresh,
		From: c.node.Name,
		To:   c.peerName,
	}
	msg.Sig = signature.ED25519Sign(c.node.SignPriv, msg.SigningBytes())
	if err := c.writeEnvelope(msg); err != nil {
		return err
	}

	if err := c.rotateChannel(c.peerName); err != nil {
		return err
	}
	c.notice("session key rotated")
	return nil
}

func (c *App) handleRefresh(msg *model.Message) error {
	if err := c.verifyEnvelope(msg); err != nil {
		return err
	}
	if err := c.rotateChannel(msg.From); err != nil {
		return err
	}
	c.notice(fmt.Sprintf("session key rotated with %s", msg.From))
	return nil
}

// rotateChannel refreshes the pair's session key and, for the primary peer,
// moves the channel into the next epoch on the refreshed key.
func (c *App) rotateChannel(peer string) error {
	key, err := c.protocol.RefreshSessionKey(c.node.Name, peer)
	if err != nil {
		return err
	}
	if peer != c.peerName {
		return nil
	}

	c.mu.Lock()
	if c.state == nil {
		c.mu.Unlock()
		return nil
	}
	err = c.state.Rotate(key)
	st := c.state
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.SaveState(context.TODO(), c.node.Name, peer, st)
}

// establishSpace opens a multi-party resonance space with the comma-separated
// peer list: one group secret is split into fragments, each fragment seeds a
// pairwise session, and every peer gets an exchange envelope tagged with the
// ceremony ID.
func (c *App) establishSpace(arg string) error {
	var peers []string
	for _, p := range strings.Split(arg, ",") {
		if p = strings.TrimSpace(p); p != "" {
			peers = append(peers, p)
		}
	}

	sessions, err := c.protocol.InitMultiParty(c.node.Name, peers)
	if err != nil {
		return err
	}

	ceremonyID := uuid.NewString()
	for _, s := range sessions {
		if err := c.sendExchangeTo(s.PeerID(), ceremonyID, false); err != nil {
			return err
		}
	}

	c.notice(fmt.Sprintf("resonance space opened with %d peers", len(sessions)))
	return nil
}
