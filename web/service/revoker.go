package service

import (
	"context"
	"time"

	"github.com/visitlog/visitlog/web/cache"
)

const revokedKeyPrefix = "visitlog:revoked:"

// RedisRevoker keeps revoked token ids in Redis with a TTL matching the token.
type RedisRevoker struct {
	redis *cache.Redis
}

func NewRedisRevoker(r *cache.Redis) *RedisRevoker {
	return &RedisRevoker{redis: r}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.redis.Set(ctx, revokedKeyPrefix+jti, 1, ttl)
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return r.redis.Exists(ctx, revokedKeyPrefix+jti)
}
