package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps preferences in Redis under PrefixKey + "theme:" + id.
type RedisStore struct {
	client    *redis.Client
	prefixKey string
	ttl       time.Duration
}

// NewRedisStore creates a RedisStore. A zero ttl stores keys without expiry.
func NewRedisStore(client *redis.Client, prefixKey string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefixKey: prefixKey, ttl: ttl}
}

func (s *RedisStore) themeKey(clientID string) string {
	return fmt.Sprintf("%stheme:%s", s.prefixKey, clientID)
}

func (s *RedisStore) GetTheme(ctx context.Context, clientID string) (string, error) {
	theme, err := s.client.Get(ctx, s.themeKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read theme preference: %w", err)
	}
	return theme, nil
}

func (s *RedisStore) SetTheme(ctx context.Context, clientID, theme string) error {
	if err := s.client.Set(ctx, s.themeKey(clientID), theme, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save theme preference: %w", err)
	}
	return nil
}
