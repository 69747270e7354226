package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshStore tracks issued refresh tokens so they can be revoked before
// their natural expiry.
type RefreshStore interface {
	Put(ctx context.Context, jti, subject string, ttl time.Duration) error
	Subject(ctx context.Context, jti string) (string, error)
	Revoke(ctx context.Context, jti string) error
}

// ErrRefreshUnknown indicates the refresh token is absent from the store,
// either revoked or expired.
var ErrRefreshUnknown = errors.New("auth: refresh token unknown")

// RedisRefreshStore implements RefreshStore on Redis with per-key TTL.
type RedisRefreshStore struct {
	client *redis.Client
}

// NewRedisRefreshStore constructs the store.
func NewRedisRefreshStore(client *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{client: client}
}

func refreshKey(jti string) string {
	return "aegis:refresh:" + jti
}

// Put records an issued refresh token until its expiry.
func (s *RedisRefreshStore) Put(ctx context.Context, jti, subject string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKey(jti), subject, ttl).Err(); err != nil {
		return fmt.Errorf("auth: store refresh token: %w", err)
	}
	return nil
}

// Subject resolves which subject a live refresh token belongs to.
func (s *RedisRefreshStore) Subject(ctx context.Context, jti string) (string, error) {
	subject, err := s.client.Get(ctx, refreshKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrRefreshUnknown
	}
	if err != nil {
		return "", fmt.Errorf("auth: load refresh token: %w", err)
	}
	return subject, nil
}

// Revoke removes a refresh token, typically on logout.
func (s *RedisRefreshStore) Revoke(ctx context.Context, jti string) error {
	return s.client.Del(ctx, refreshKey(jti)).Err()
}

var _ RefreshStore = (*RedisRefreshStore)(nil)
