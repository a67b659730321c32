// Package cache provides lookup caches mapping friendly ids to record ids.
//
// Keys carry the sluggable type, a scope marker and the looked-up slug.
// Both implementations support dropping all keys of one type with Purge,
// which the engine does after slug history purges.
//
// # In-Memory Cache
//
// [NewMemory] keeps entries in process, with TTL expiration and optional
// LRU eviction:
//
//	c := cache.NewMemory(
//	    cache.WithDefaultTTL(5 * time.Minute),
//	    cache.WithMaxEntries(10000),
//	)
//	defer c.Close()
//
// # Redis Cache
//
// [NewRedis] shares entries between processes:
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"))
//	c := cache.NewRedis(client, cache.WithPrefix("slugs"))
//
// # Stampede Prevention
//
// [Resolver] collapses concurrent misses for one key into a single load:
//
//	r := cache.NewResolver(c, time.Minute)
//	id, err := r.Resolve(ctx, key, func(ctx context.Context) (int64, error) {
//	    return store.FindByColumn(ctx, q)
//	})
//
// Load errors are returned and never cached, so not-found results always
// hit the store.
package cache
