package app

import (
	"context"
	"time"

	"resonance_net/internal/cryptographic/signature"
	"resonance_net/internal/model"
)

func (c *App) getNodeAndCreateIfNotExist(ctx context.Context, name string) (*model.Node, error) {
	node, err := c.nodeRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if node != nil {
		return node, nil
	}

	signPub, signPriv, err := signature.NewEd25519Keypair()
	if err != nil {
		return nil, err
	}

	node = &model.Node{
		Name:      name,
		SignPriv:  signPriv,
		SignPub:   signPub,
		CreatedAt: time.Now().UTC(),
	}

	_, err = c.nodeRepo.Create(ctx, node)
	if err != nil {
		return nil, err
	}

	return node, nil
}
