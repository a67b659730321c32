package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/friendlyid"
	"github.com/dmitrymomot/friendlyid/internal/config"
	"github.com/dmitrymomot/friendlyid/pkg/cache"
	"github.com/dmitrymomot/friendlyid/pkg/db"
	"github.com/dmitrymomot/friendlyid/pkg/health"
	"github.com/dmitrymomot/friendlyid/pkg/pgstore"
	"github.com/dmitrymomot/friendlyid/pkg/redis"
)

var errDatabaseURL = errors.New("database.url must not be empty")

// app holds the connections a command works with.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	pool   *pgxpool.Pool
	redis  goredis.UniversalClient
	engine *friendlyid.Engine

	closers []func()
}

// openApp connects to Postgres (and Redis for the redis cache backend) and
// builds the engine over the configured types.
func openApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	if err := a.openPool(ctx); err != nil {
		return nil, err
	}

	lookup, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}

	opts := []friendlyid.Option{friendlyid.WithLogger(log)}
	if lookup != nil {
		opts = append(opts, friendlyid.WithLookupCache(lookup), friendlyid.WithCacheTTL(cfg.Cache.TTL))
	}

	store := pgstore.New(a.pool,
		pgstore.WithLogger(log),
		pgstore.WithHistoryTable(cfg.HistoryTable),
	)
	a.engine, err = friendlyid.New(store, reg, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openPool(ctx context.Context) error {
	if a.cfg.Database.URL == "" {
		return errors.Join(config.ErrInvalidConfig, errDatabaseURL)
	}

	pool, err := db.Open(ctx, a.cfg.Database, a.log)
	if err != nil {
		return err
	}
	a.pool = pool
	a.closers = append(a.closers, pool.Close)
	return nil
}

func (a *app) openCache(ctx context.Context) (cache.Cache, error) {
	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		c := cache.NewMemory(
			cache.WithDefaultTTL(a.cfg.Cache.TTL),
			cache.WithMaxEntries(a.cfg.Cache.MaxEntries),
		)
		a.closers = append(a.closers, func() { _ = c.Close() })
		return c, nil

	case config.CacheRedis:
		client, err := redis.Open(ctx, a.cfg.Redis.URL, redis.WithLogger(a.log))
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })

		return cache.NewRedis(client,
			cache.WithPrefix(a.cfg.Cache.Prefix),
			cache.WithRedisDefaultTTL(a.cfg.Cache.TTL),
		), nil

	default:
		return nil, nil
	}
}

// checks returns the readiness checks of the open connections.
func (a *app) checks() health.Checks {
	checks := health.Checks{"postgres": db.Healthcheck(a.pool)}
	if a.redis != nil {
		checks["redis"] = redis.Healthcheck(a.redis)
	}
	return checks
}

// lookup returns the registered type named name.
func (a *app) lookup(name string) (*friendlyid.Type, error) {
	t, err := a.engine.Registry().Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("--type: %w", err)
	}
	return t, nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
