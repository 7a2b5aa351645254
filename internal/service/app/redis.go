package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resonance_net/internal/protocol/channel"
)

func (c *App) SaveState(ctx context.Context, from string, to string, state *channel.State) error {
	key := fmt.Sprintf("from: %s, to: %s", from, to)
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.redisService.Set(ctx, key, data, 2*time.Hour)
}

func (c *App) GetState(ctx context.Context, from string, to string) (*channel.State, error) {
	key := fmt.Sprintf("from: %s, to: %s", from, to)
	v, err := c.redisService.Get(ctx, key)
	if err == redis.Nil {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var state channel.State
	err = json.Unmarshal([]byte(v), &state)
	if err != nil {
		return nil, err
	}

	return &state, nil
}
