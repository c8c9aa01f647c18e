// Package cache connects visitlog to Redis. When no address is configured an
// embedded miniredis instance is started instead.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/visitlog/visitlog/logger"
)

// ErrNotInitialized is returned by helpers called on a nil Redis.
var ErrNotInitialized = errors.New("redis client not initialized")

// Options configures the connection. An empty Addr selects the embedded server.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Redis wraps a go-redis client and, when embedded, the miniredis server behind it.
type Redis struct {
	client    *redis.Client
	miniRedis *miniredis.Miniredis
}

// Open connects to Redis, starting an embedded server if opts.Addr is empty.
func Open(ctx context.Context, opts Options) (*Redis, error) {
	if opts.Addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		logger.Info("Embedded Redis started on", mr.Addr())
		return &Redis{
			client:    redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			miniRedis: mr,
		}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	logger.Info("Connected to external Redis at", opts.Addr)
	return &Redis{client: client}, nil
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

// IsEmbedded reports whether the embedded server is in use.
func (r *Redis) IsEmbedded() bool {
	return r != nil && r.miniRedis != nil
}

// Close closes the connection and stops the embedded server if running.
func (r *Redis) Close() error {
	if r == nil {
		return nil
	}
	var err error
	if r.client != nil {
		err = r.client.Close()
	}
	if r.miniRedis != nil {
		r.miniRedis.Close()
	}
	return err
}

// Set stores value under key with expiration.
func (r *Redis) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if r.Client() == nil {
		return ErrNotInitialized
	}
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Exists reports whether key is present.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	if r.Client() == nil {
		return false, ErrNotInitialized
	}
	n, err := r.client.Exists(ctx, key).Result()
	return n > 0, err
}

// Incr increments key and, on its first increment, sets its expiry to window.
// It returns the new value and the time left before the key expires.
func (r *Redis) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.Client() == nil {
		return 0, 0, ErrNotInitialized
	}
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return n, 0, err
		}
		return n, window, nil
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return n, 0, err
	}
	if ttl < 0 {
		// Lost its expiry; start a fresh window.
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return n, 0, err
		}
		ttl = window
	}
	return n, ttl, nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.Client() == nil {
		return ErrNotInitialized
	}
	return r.client.Del(ctx, key).Err()
}
