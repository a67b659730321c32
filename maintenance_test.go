package friendlyid_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/friendlyid"
)

func TestEngine_Backfill(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("column mode", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		ids := make([]int64, 0, 5)
		for _, name := range []string{"Alpha", "", "New", "Beta", "Alpha"} {
			ids = append(ids, f.store.Insert("posts", map[string]string{"name": name}))
		}

		report, err := f.engine.Backfill(ctx, f.posts, friendlyid.WithBatchSize(2))
		require.NoError(t, err)
		assert.Equal(t, friendlyid.BackfillReport{Assigned: 3, Skipped: 2}, report)

		assert.Equal(t, "alpha", f.store.Get("posts", ids[0], "slug"))
		assert.Empty(t, f.store.Get("posts", ids[1], "slug"))
		assert.Empty(t, f.store.Get("posts", ids[2], "slug"))
		assert.Equal(t, "beta", f.store.Get("posts", ids[3], "slug"))
		assert.Equal(t, "alpha--2", f.store.Get("posts", ids[4], "slug"))

		report, err = f.engine.Backfill(ctx, f.posts)
		require.NoError(t, err)
		assert.Equal(t, friendlyid.BackfillReport{Skipped: 2}, report)
	})

	t.Run("history mode", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil, friendlyid.Config{Name: "articles", Mode: friendlyid.ModeHistory})
		articles := f.typ(t, "articles")

		done, _ := f.create(t, articles, "Hello", "")
		fresh := f.store.Insert("articles", map[string]string{"name": "Hello"})

		report, err := f.engine.Backfill(ctx, articles)
		require.NoError(t, err)
		assert.Equal(t, friendlyid.BackfillReport{Assigned: 1}, report)

		fid, err := f.engine.FriendlyID(ctx, articles, fresh)
		require.NoError(t, err)
		assert.Equal(t, "hello--2", fid)

		fid, err = f.engine.FriendlyID(ctx, articles, done)
		require.NoError(t, err)
		assert.Equal(t, "hello", fid)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.store.Insert("posts", map[string]string{"name": "Alpha"})

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.engine.Backfill(cctx, f.posts)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestEngine_PurgeHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	articles := friendlyid.Config{Name: "articles", Mode: friendlyid.ModeHistory}

	t.Run("all entries", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil, articles)
		typ := f.typ(t, "articles")

		id, _ := f.create(t, typ, "Hello", "")
		f.rename(t, typ, id, "Goodbye", "")

		n, err := f.engine.PurgeHistory(ctx, typ)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		fid, err := f.engine.FriendlyID(ctx, typ, id)
		require.NoError(t, err)
		assert.Equal(t, "1", fid)
	})

	t.Run("older than keeps current entries", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }

		f := newFixture(t, []friendlyid.Option{friendlyid.WithClock(clock)}, articles)
		typ := f.typ(t, "articles")

		renamed, _ := f.create(t, typ, "First", "")
		untouched, _ := f.create(t, typ, "Stable", "")
		now = now.Add(time.Hour)
		f.rename(t, typ, renamed, "Second", "")
		now = now.Add(48 * time.Hour)
		f.rename(t, typ, renamed, "Third", "")

		n, err := f.engine.PurgeHistoryOlderThan(ctx, typ, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = f.engine.Find(ctx, typ, "first")
		require.ErrorIs(t, err, friendlyid.ErrRecordNotFound)

		for value, want := range map[string]int64{"third": renamed, "stable": untouched} {
			got, err := f.engine.Find(ctx, typ, value)
			require.NoError(t, err)
			assert.Equal(t, want, got, value)
		}
	})
}
