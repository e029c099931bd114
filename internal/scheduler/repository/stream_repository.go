package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamRepository appends JSON payloads to a Redis stream.
type StreamRepository interface {
	Publish(ctx context.Context, stream string, payload interface{}) (string, error)
}

// NewStreamRepository creates a stream repository that caps every stream at maxLen entries.
func NewStreamRepository(client *redis.Client, maxLen int64) StreamRepository {
	return &streamRepository{client: client, maxLen: maxLen}
}

type streamRepository struct {
	client *redis.Client
	maxLen int64
}

func (r *streamRepository) Publish(ctx context.Context, stream string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"payload": string(data)},
		MaxLen: r.maxLen,
		Approx: true,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", stream, err)
	}
	return id, nil
}
