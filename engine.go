package friendlyid

import (
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/friendlyid/pkg/cache"
)

// Engine generates, persists and resolves friendly ids.
// It is safe for concurrent use; all state lives in the store.
type Engine struct {
	store    Store
	registry *Registry
	cache    cache.Cache
	lookups  *cache.Resolver
	logger   *slog.Logger
	now      func() time.Time
	cacheTTL time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
// Default: logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLookupCache caches slug-to-id lookups in c.
// The engine invalidates affected keys on renames and purges.
func WithLookupCache(c cache.Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithCacheTTL sets the lifetime of lookup cache entries.
// Zero uses the cache's own default.
// Default: 0.
func WithCacheTTL(d time.Duration) Option {
	return func(e *Engine) {
		e.cacheTTL = d
	}
}

// WithClock overrides the time source used for entry timestamps and
// retention cutoffs.
// Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine over store for the types in registry.
func New(store Store, registry *Registry, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	e := &Engine{
		store:    store,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache != nil {
		e.lookups = cache.NewResolver(e.cache, e.cacheTTL)
	}

	return e, nil
}

// With returns a copy of the engine bound to store, typically a store
// wrapping the host's open transaction.
//
// Lookups through the copy bypass the lookup cache, since they may see
// writes that are later rolled back. Saves still invalidate it.
func (e *Engine) With(store Store) *Engine {
	c := *e
	c.store = store
	c.lookups = nil
	return &c
}

// Registry returns the engine's type registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}
