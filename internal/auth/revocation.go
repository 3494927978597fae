package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "vidtube:revoked:"

// Revoker tracks access token ids invalidated before their expiry.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevoker keeps revoked token ids in Redis until the token would have expired.
type RedisRevoker struct {
	client redis.UniversalClient
}

// NewRedisRevoker constructs a RedisRevoker.
func NewRedisRevoker(client redis.UniversalClient) *RedisRevoker {
	return &RedisRevoker{client: client}
}

// Revoke marks tokenID revoked until the given time. Already expired tokens are ignored.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("check revoked token: %w", err)
	}
}

// NoopRevoker never revokes anything. Logout then only ends the refresh session.
type NoopRevoker struct{}

// Revoke does nothing.
func (NoopRevoker) Revoke(context.Context, string, time.Time) error { return nil }

// IsRevoked always reports false.
func (NoopRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }
