package cache

import "time"

// RedisOption configures the Redis cache.
type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix     string
	defaultTTL time.Duration
	scanCount  int64
}

func defaultRedisOptions() *redisOptions {
	return &redisOptions{
		prefix:     "friendlyid",
		defaultTTL: 10 * time.Minute,
		scanCount:  100,
	}
}

// WithRedisDefaultTTL sets the expiration used when Set is called with a zero TTL.
// Default: 10 minutes.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.defaultTTL = d
	}
}

// WithPrefix namespaces all keys. Useful when several applications share
// one Redis database.
// Default: "friendlyid".
func WithPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithScanCount sets the COUNT hint for SCAN during Purge.
// Default: 100.
func WithScanCount(n int64) RedisOption {
	return func(o *redisOptions) {
		if n > 0 {
			o.scanCount = n
		}
	}
}
