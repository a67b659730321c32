// Package memstore implements friendlyid.Store in memory.
//
// It enforces the same constraints as the PostgreSQL store: the slug history
// index on (slug, type, scope, sequence) and, when configured with
// WithUniqueColumn, unique slug columns. It is meant for tests and for hosts
// that keep their records in memory.
//
// Records live in named tables of string columns:
//
//	store := memstore.New(memstore.WithUniqueColumn("posts", "slug", ""))
//	id := store.Insert("posts", map[string]string{"name": "Hello World"})
//
//	engine, _ := friendlyid.New(store, registry)
//	res, err := engine.Save(ctx, posts, friendlyid.Record{ID: id, Base: "Hello World"})
package memstore
