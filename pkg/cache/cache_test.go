package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/friendlyid/pkg/cache"
)

func key(slug string) cache.Key {
	return cache.Key{Type: "posts", Scope: "*", Slug: slug}
}

// --- Key ---

func TestKey_String(t *testing.T) {
	t.Parallel()

	t.Run("parts are separated", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "posts:%2A:hello", cache.Key{Type: "posts", Scope: "*", Slug: "hello"}.String())
	})

	t.Run("colons inside parts do not collide", func(t *testing.T) {
		t.Parallel()
		a := cache.Key{Type: "posts", Scope: "a:b", Slug: "c"}
		b := cache.Key{Type: "posts", Scope: "a", Slug: "b:c"}
		require.NotEqual(t, a.String(), b.String())
	})

	t.Run("glob characters are escaped", func(t *testing.T) {
		t.Parallel()
		s := cache.Key{Type: "po*ts", Scope: "=x", Slug: "[a]?"}.String()
		require.NotContains(t, s, "[")
		require.NotContains(t, s, "?")
		require.NotContains(t, s, "o*t")
	})
}

// --- Memory ---

func TestMemory_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		_, err := c.Get(context.Background(), key("missing"))
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored id", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, key("hello"), 42, time.Minute))

		id, err := c.Get(ctx, key("hello"))
		require.NoError(t, err)
		require.Equal(t, int64(42), id)
	})

	t.Run("returns ErrNotFound for expired key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory(cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, key("short"), 1, time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, key("short"))
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory(cache.WithDefaultTTL(time.Millisecond), cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, key("forever"), 7, -1))

		time.Sleep(5 * time.Millisecond)

		id, err := c.Get(ctx, key("forever"))
		require.NoError(t, err)
		require.Equal(t, int64(7), id)
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory(cache.WithDefaultTTL(time.Millisecond), cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, key("default"), 7, 0))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, key("default"))
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestMemory_Delete(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory()
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, key("a"), 1, time.Minute))
	require.NoError(t, c.Set(ctx, key("b"), 2, time.Minute))
	require.NoError(t, c.Set(ctx, key("c"), 3, time.Minute))

	require.NoError(t, c.Delete(ctx, key("a"), key("b"), key("missing")))

	_, err := c.Get(ctx, key("a"))
	require.ErrorIs(t, err, cache.ErrNotFound)
	_, err = c.Get(ctx, key("b"))
	require.ErrorIs(t, err, cache.ErrNotFound)

	id, err := c.Get(ctx, key("c"))
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
}

func TestMemory_Purge(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory()
	defer c.Close()

	ctx := context.Background()
	posts := cache.Key{Type: "posts", Scope: "*", Slug: "hello"}
	scopedPost := cache.Key{Type: "posts", Scope: "=blog", Slug: "hello"}
	users := cache.Key{Type: "users", Scope: "*", Slug: "hello"}

	require.NoError(t, c.Set(ctx, posts, 1, time.Minute))
	require.NoError(t, c.Set(ctx, scopedPost, 2, time.Minute))
	require.NoError(t, c.Set(ctx, users, 3, time.Minute))

	require.NoError(t, c.Purge(ctx, "posts"))

	_, err := c.Get(ctx, posts)
	require.ErrorIs(t, err, cache.ErrNotFound)
	_, err = c.Get(ctx, scopedPost)
	require.ErrorIs(t, err, cache.ErrNotFound)

	id, err := c.Get(ctx, users)
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
	require.Equal(t, 1, c.Len())
}

func TestMemory_Close(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close should be idempotent")

	ctx := context.Background()
	require.ErrorIs(t, c.Set(ctx, key("a"), 1, time.Minute), cache.ErrClosed)
	require.ErrorIs(t, c.Delete(ctx, key("a")), cache.ErrClosed)
	require.ErrorIs(t, c.Purge(ctx, "posts"), cache.ErrClosed)
}

func TestMemory_MaxEntries(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory(cache.WithMaxEntries(2))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, key("a"), 1, time.Minute))
		require.NoError(t, c.Set(ctx, key("b"), 2, time.Minute))

		// Touch "a" so "b" becomes the eviction candidate.
		_, err := c.Get(ctx, key("a"))
		require.NoError(t, err)

		require.NoError(t, c.Set(ctx, key("c"), 3, time.Minute))

		_, err = c.Get(ctx, key("a"))
		require.NoError(t, err)
		_, err = c.Get(ctx, key("b"))
		require.ErrorIs(t, err, cache.ErrNotFound)
		_, err = c.Get(ctx, key("c"))
		require.NoError(t, err)
	})

	t.Run("updating existing key does not evict", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory(cache.WithMaxEntries(2))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, key("a"), 1, time.Minute))
		require.NoError(t, c.Set(ctx, key("b"), 2, time.Minute))
		require.NoError(t, c.Set(ctx, key("a"), 10, time.Minute))

		require.Equal(t, 2, c.Len())
		id, err := c.Get(ctx, key("a"))
		require.NoError(t, err)
		require.Equal(t, int64(10), id)
	})
}

func TestMemory_Janitor(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(cache.WithCleanupInterval(10 * time.Millisecond))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, key("short"), 1, 20*time.Millisecond))
	require.NoError(t, c.Set(ctx, key("long"), 2, time.Minute))

	require.Eventually(t, func() bool {
		return c.Len() == 1
	}, time.Second, 10*time.Millisecond, "janitor should remove the expired entry")

	_, err := c.Get(ctx, key("long"))
	require.NoError(t, err)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(cache.WithMaxEntries(100))
	defer c.Close()

	ctx := context.Background()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Go(func() {
			_ = c.Set(ctx, key("k"), int64(i), time.Minute)
		})
	}
	for range 50 {
		wg.Go(func() {
			_, _ = c.Get(ctx, key("k"))
		})
	}
	for range 10 {
		wg.Go(func() {
			_ = c.Delete(ctx, key("k"))
			_ = c.Purge(ctx, "posts")
		})
	}

	wg.Wait()
}

// --- Resolve ---

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("returns cached id on hit", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		ctx := context.Background()
		k := cache.Key{Type: "resolve-hit", Slug: "hello"}
		require.NoError(t, c.Set(ctx, k, 5, time.Minute))

		id, err := cache.NewResolver(c, time.Minute).Resolve(ctx, k, func(context.Context) (int64, error) {
			t.Fatal("load should not be called on cache hit")
			return 0, nil
		})
		require.NoError(t, err)
		require.Equal(t, int64(5), id)
	})

	t.Run("loads on miss and caches result", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		ctx := context.Background()
		k := cache.Key{Type: "resolve-miss", Slug: "hello"}

		id, err := cache.NewResolver(c, time.Minute).Resolve(ctx, k, func(context.Context) (int64, error) {
			return 9, nil
		})
		require.NoError(t, err)
		require.Equal(t, int64(9), id)

		cached, err := c.Get(ctx, k)
		require.NoError(t, err)
		require.Equal(t, int64(9), cached)
	})

	t.Run("does not cache load errors", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		ctx := context.Background()
		k := cache.Key{Type: "resolve-error", Slug: "hello"}
		errMissing := errors.New("missing")

		_, err := cache.NewResolver(c, time.Minute).Resolve(ctx, k, func(context.Context) (int64, error) {
			return 0, errMissing
		})
		require.ErrorIs(t, err, errMissing)

		_, err = c.Get(ctx, k)
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("deduplicates concurrent misses", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		ctx := context.Background()
		k := cache.Key{Type: "resolve-dedup", Slug: "hello"}
		r := cache.NewResolver(c, time.Minute)
		var calls atomic.Int64
		var wg sync.WaitGroup

		for range 10 {
			wg.Go(func() {
				id, err := r.Resolve(ctx, k, func(context.Context) (int64, error) {
					calls.Add(1)
					time.Sleep(10 * time.Millisecond)
					return 42, nil
				})
				require.NoError(t, err)
				require.Equal(t, int64(42), id)
			})
		}

		wg.Wait()

		require.LessOrEqual(t, calls.Load(), int64(2),
			"load should run at most twice due to singleflight dedup")
	})

	t.Run("resolvers do not share loads", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		ctx := context.Background()
		k := cache.Key{Type: "resolve-isolated", Slug: "hello"}
		started := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Go(func() {
			id, err := cache.NewResolver(c, time.Minute).Resolve(ctx, k, func(context.Context) (int64, error) {
				close(started)
				<-release
				return 1, nil
			})
			require.NoError(t, err)
			require.Equal(t, int64(1), id)
		})

		<-started
		id, err := cache.NewResolver(c, time.Minute).Resolve(ctx, k, func(context.Context) (int64, error) {
			return 2, nil
		})
		close(release)
		wg.Wait()

		require.NoError(t, err)
		require.Equal(t, int64(2), id)
	})

	t.Run("cancelled caller does not fail other waiters", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory()
		defer c.Close()

		k := cache.Key{Type: "resolve-cancel", Slug: "hello"}
		r := cache.NewResolver(c, time.Minute)
		started := make(chan struct{})
		release := make(chan struct{})

		first, cancel := context.WithCancel(context.Background())
		var wg sync.WaitGroup
		wg.Go(func() {
			_, err := r.Resolve(first, k, func(ctx context.Context) (int64, error) {
				close(started)
				<-release
				if err := ctx.Err(); err != nil {
					return 0, err
				}
				return 7, nil
			})
			require.ErrorIs(t, err, context.Canceled)
		})

		<-started
		var (
			id  int64
			err error
		)
		wg.Go(func() {
			id, err = r.Resolve(context.Background(), k, func(context.Context) (int64, error) {
				return 0, errors.New("second load must not run while the first is in flight")
			})
		})

		cancel()
		time.Sleep(10 * time.Millisecond)
		close(release)
		wg.Wait()

		require.NoError(t, err)
		require.Equal(t, int64(7), id)
	})
}
