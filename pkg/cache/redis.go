package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a lookup cache shared between processes.
// Ids are stored as decimal strings under "{prefix}:{type}:{scope}:{slug}".
type Redis struct {
	client redis.UniversalClient
	opts   *redisOptions
}

// NewRedis creates a Redis-backed lookup cache.
// The client should be obtained from pkg/redis.Open.
//
// Example:
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"))
//	c := cache.NewRedis(client, cache.WithPrefix("slugs"))
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Redis{client: client, opts: o}
}

// Get returns the cached id.
func (r *Redis) Get(ctx context.Context, key Key) (int64, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Join(ErrCorrupted, err)
	}
	return id, nil
}

// Set stores id under key.
func (r *Redis) Set(ctx context.Context, key Key, id int64, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.opts.defaultTTL
	}

	// Redis treats 0 as no expiration.
	return r.client.Set(ctx, r.key(key), strconv.FormatInt(id, 10), max(ttl, 0)).Err()
}

// Delete removes keys.
func (r *Redis) Delete(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = r.key(k)
	}
	return r.client.Del(ctx, names...).Err()
}

// Purge removes every key of typ using SCAN, which does not block the server.
func (r *Redis) Purge(ctx context.Context, typ string) error {
	pattern := r.opts.prefix + ":" + typePrefix(typ) + "*"

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, r.opts.scanCount).Result()
		if err != nil {
			return err
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close is a no-op. The client is owned by the caller.
func (r *Redis) Close() error {
	return nil
}

func (r *Redis) key(k Key) string {
	return r.opts.prefix + ":" + k.String()
}

var _ Cache = (*Redis)(nil)
