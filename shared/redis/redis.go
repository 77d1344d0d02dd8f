package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection behind the small cache surface the
// services consume.
type Client struct {
	client *redis.Client
}

// NewClient connects to the Redis instance at addr.
func NewClient(addr string) *Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Client{client: client}
}

// Ping verifies the connection.
func (r *Client) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the value for key if present.
func (r *Client) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// A broken cache must never break the request; treat as miss.
			return "", false
		}
		return "", false
	}
	return val, true
}

// Set stores value under key with the given TTL.
func (r *Client) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	r.client.Set(ctx, key, value, ttl)
}

// Del removes keys.
func (r *Client) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	r.client.Del(ctx, keys...)
}

// Close releases the underlying connection.
func (r *Client) Close() error {
	return r.client.Close()
}
