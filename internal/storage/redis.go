package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps the token in Redis under {prefix}token.
type RedisTokenStore struct {
	client redis.UniversalClient
	key    string
	cfg    RedisConfig
}

// NewRedisTokenStore creates a Redis-backed token store.
func NewRedisTokenStore(client redis.UniversalClient, cfg RedisConfig) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		key:    cfg.Prefix + TokenKey,
		cfg:    cfg,
	}
}

// Key returns the Redis key the token is stored under.
func (s *RedisTokenStore) Key() string {
	return s.key
}

// Get returns the stored token.
func (s *RedisTokenStore) Get(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return token, true, nil
}

// Set overwrites the stored token, applying the configured TTL.
func (s *RedisTokenStore) Set(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear removes the stored token.
func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
