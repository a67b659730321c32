// Package redis opens go-redis clients for the shared lookup cache.
//
// Open validates the URL, applies pool and timeout options and retries the
// initial PING with a linearly growing pause:
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"),
//	    redis.WithRetry(5, time.Second),
//	    redis.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	lookups := cache.NewRedis(client, cache.WithPrefix("slugs"))
//
// Healthcheck returns a probe suitable for readiness checks.
package redis
