package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang-stock-calls/pkg/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository resolves bearer tokens to user ids.
type SessionRepository interface {
	ResolveUserID(ctx context.Context, token string) (uuid.UUID, error)
}

type redisSessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &redisSessionRepository{client: client}
}

func (r *redisSessionRepository) ResolveUserID(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrSessionNotFound
	}
	value, err := r.client.Get(ctx, fmt.Sprintf(common.RedisKeySession, token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read session: %w", err)
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session holds invalid user id: %w", err)
	}
	return userID, nil
}
