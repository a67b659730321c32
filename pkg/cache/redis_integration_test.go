//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/friendlyid/pkg/cache"
	"github.com/dmitrymomot/friendlyid/pkg/redis"
)

const testRedisURL = "redis://localhost:6379/0"

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = testRedisURL
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err, "failed to connect to Redis")

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestRedis_GetSet(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := cache.NewRedis(client, cache.WithPrefix("test-getset"))
	ctx := context.Background()
	k := cache.Key{Type: "posts", Scope: "*", Slug: "hello"}

	_, err := c.Get(ctx, k)
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, c.Set(ctx, k, 42, time.Minute))

	id, err := c.Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	ttl, err := client.TTL(ctx, "test-getset:"+k.String()).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}

func TestRedis_NegativeTTL(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := cache.NewRedis(client, cache.WithPrefix("test-negttl"))
	ctx := context.Background()
	k := cache.Key{Type: "posts", Slug: "forever"}

	require.NoError(t, c.Set(ctx, k, 1, -1))

	ttl, err := client.TTL(ctx, "test-negttl:"+k.String()).Result()
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), ttl, "key should have no expiration")
}

func TestRedis_Corrupted(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := cache.NewRedis(client, cache.WithPrefix("test-corrupt"))
	ctx := context.Background()
	k := cache.Key{Type: "posts", Slug: "bad"}

	require.NoError(t, client.Set(ctx, "test-corrupt:"+k.String(), "not-a-number", time.Minute).Err())

	_, err := c.Get(ctx, k)
	require.ErrorIs(t, err, cache.ErrCorrupted)
}

func TestRedis_Delete(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := cache.NewRedis(client, cache.WithPrefix("test-delete"))
	ctx := context.Background()
	a := cache.Key{Type: "posts", Slug: "a"}
	b := cache.Key{Type: "posts", Slug: "b"}

	require.NoError(t, c.Set(ctx, a, 1, time.Minute))
	require.NoError(t, c.Set(ctx, b, 2, time.Minute))
	require.NoError(t, c.Delete(ctx, a, b))
	require.NoError(t, c.Delete(ctx))

	_, err := c.Get(ctx, a)
	require.ErrorIs(t, err, cache.ErrNotFound)
	_, err = c.Get(ctx, b)
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedis_Purge(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := cache.NewRedis(client, cache.WithPrefix("test-purge"), cache.WithScanCount(2))
	other := cache.NewRedis(client, cache.WithPrefix("test-purge-other"))
	ctx := context.Background()

	for i, slug := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, c.Set(ctx, cache.Key{Type: "posts", Scope: "*", Slug: slug}, int64(i+1), time.Minute))
	}
	users := cache.Key{Type: "users", Scope: "*", Slug: "a"}
	require.NoError(t, c.Set(ctx, users, 10, time.Minute))
	require.NoError(t, other.Set(ctx, cache.Key{Type: "posts", Slug: "a"}, 20, time.Minute))

	require.NoError(t, c.Purge(ctx, "posts"))

	for _, slug := range []string{"a", "b", "c", "d", "e"} {
		_, err := c.Get(ctx, cache.Key{Type: "posts", Scope: "*", Slug: slug})
		require.ErrorIs(t, err, cache.ErrNotFound)
	}

	id, err := c.Get(ctx, users)
	require.NoError(t, err)
	require.Equal(t, int64(10), id)

	id, err = other.Get(ctx, cache.Key{Type: "posts", Slug: "a"})
	require.NoError(t, err, "other prefix must be untouched")
	require.Equal(t, int64(20), id)

	require.NoError(t, other.Purge(ctx, "posts"))
	require.NoError(t, c.Purge(ctx, "users"))
}

func TestRedis_Close(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	c := cache.NewRedis(client)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
