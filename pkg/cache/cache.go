package cache

import (
	"context"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached slug lookup.
type Key struct {
	// Type is the sluggable type name. Purge drops all keys of one type.
	Type string

	// Scope distinguishes lookups restricted to a scope from unscoped ones.
	Scope string

	// Slug is the looked-up friendly id.
	Slug string
}

// String renders the key with every part escaped, so parts containing
// ":" or glob characters cannot collide or leak into patterns.
func (k Key) String() string {
	return typePrefix(k.Type) + url.QueryEscape(k.Scope) + ":" + url.QueryEscape(k.Slug)
}

func typePrefix(typ string) string {
	return url.QueryEscape(typ) + ":"
}

// Cache maps friendly id lookups to record ids.
//
// TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero: use the cache's configured default TTL
//   - Negative: item never expires
type Cache interface {
	// Get returns the cached record id.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key Key) (int64, error)

	// Set stores a record id with the given TTL.
	Set(ctx context.Context, key Key, id int64, ttl time.Duration) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...Key) error

	// Purge removes every key of a sluggable type.
	Purge(ctx context.Context, typ string) error

	// Close releases resources (stops background goroutines, etc.).
	Close() error
}

// Resolver fills a cache from a loader. Concurrent misses for the same key
// share one load call. In-flight loads are tracked per Resolver, so two
// resolvers never hand each other results.
type Resolver struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewResolver returns a Resolver that stores loaded ids in c for ttl.
func NewResolver(c Cache, ttl time.Duration) *Resolver {
	return &Resolver{cache: c, ttl: ttl}
}

// Resolve returns the cached id for key, or calls load on a miss and caches
// its result. Errors from load are returned as-is and never cached.
//
// The shared load runs without the caller's cancellation, so one waiter
// giving up does not fail the others.
func (r *Resolver) Resolve(ctx context.Context, key Key, load func(ctx context.Context) (int64, error)) (int64, error) {
	if id, err := r.cache.Get(ctx, key); err == nil {
		return id, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key.String(), func() (any, error) {
		return load(loadCtx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if res.Err != nil {
		return 0, res.Err
	}

	id := res.Val.(int64)

	// Best-effort write; a miss just queries again.
	_ = r.cache.Set(loadCtx, key, id, r.ttl)

	return id, nil
}
