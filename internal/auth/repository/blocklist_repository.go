package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blocklistKeyPrefix = "block:token:"
	blocklistValue     = "logout"
)

// AccessTokenBlocklist holds access tokens that were invalidated before their
// natural expiry. Entries carry a TTL so the store never outlives the token.
type AccessTokenBlocklist interface {
	Block(ctx context.Context, token string, ttl time.Duration) error
	IsBlocked(ctx context.Context, token string) (bool, error)
}

type RedisBlocklist struct {
	client *redis.Client
}

func NewRedisBlocklist(client *redis.Client) *RedisBlocklist {
	return &RedisBlocklist{client: client}
}

// Block records the token until its remaining lifetime elapses. A token that
// is already expired needs no entry at all.
func (b *RedisBlocklist) Block(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blocklistKeyPrefix+token, blocklistValue, ttl).Err(); err != nil {
		return fmt.Errorf("failed to block access token: %w", err)
	}
	return nil
}

func (b *RedisBlocklist) IsBlocked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, blocklistKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check access token blocklist: %w", err)
	}
	return n > 0, nil
}
