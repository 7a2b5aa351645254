package server

import (
	"context"
	"encoding/json"
	"fmt"

	"resonance_net/internal/model"
)

// DrainQueuedEnvelopes pops every envelope queued for an offline node and
// clears the queue.
func (s *HttpServer) DrainQueuedEnvelopes(ctx context.Context, to string) ([]*model.Message, error) {
	key := fmt.Sprintf("to: %s", to)
	vals, err := s.redisService.LRange(ctx, key)
	if err != nil {
		return nil, err
	}
	s.redisService.Del(ctx, key)

	var res []*model.Message
	for _, v := range vals {
		var m model.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, err
		}

		res = append(res, &m)
	}

	return res, nil
}

// QueueEnvelopes parks envelopes for a node with no live socket.
func (s *HttpServer) QueueEnvelopes(ctx context.Context, to string, messages []*model.Message) error {
	key := fmt.Sprintf("to: %s", to)
	var vals []interface{}
	for _, m := range messages {
		data, _ := json.Marshal(m)
		vals = append(vals, data)
	}

	return s.redisService.RPush(ctx, key, vals)
}
