// Package friendlyid generates unique, human-readable slugs for database
// records and resolves them back to primary keys.
//
// A slug is derived from a record's base value (a title or name), normalized
// by package slug, checked against reserved words and disambiguated with a
// sequence suffix when the text is already taken:
//
//	"Hello World"  -> hello-world
//	"Hello World"  -> hello-world--2
//	"Hello World!" -> hello-world--3
//
// # Setup
//
// Types are described by a Config and registered once:
//
//	reg := friendlyid.NewRegistry()
//	posts := reg.MustRegister(friendlyid.Config{
//	    Name:        "posts",
//	    Table:       "posts",
//	    Base:        "title",
//	    CacheColumn: "cached_slug",
//	    Mode:        friendlyid.ModeHistory,
//	})
//
//	engine, err := friendlyid.New(pgstore.New(pool), reg,
//	    friendlyid.WithLogger(logger),
//	)
//
// # Saving
//
// Save assigns a slug when the record has none or when its normalized base
// changed. Unrelated updates are no-ops:
//
//	res, err := engine.Save(ctx, posts, friendlyid.Record{ID: post.ID, Base: post.Title})
//	// res.FriendlyID: "hello-world--2"
//
// Blank and reserved candidates fail with *BlankSlugError and
// *ReservedWordError before anything is written. The uniqueness constraint of
// the store is the final arbiter between concurrent saves; a violated save is
// retried once and then fails with ErrSaveFailed.
//
// In ModeColumn the slug lives in a column of the record and renames
// overwrite it. In ModeHistory every slug is kept as an Entry, so links to
// outdated slugs keep resolving.
//
// # Finding
//
// Find classifies its input: integers are primary keys, values such as
// "hello-world" or "042" are slugs, and "42" is tried as a slug first and as
// a primary key second:
//
//	id, err := engine.Find(ctx, posts, "hello-world")
//	id, err = engine.Find(ctx, posts, 42)
//	id, err = engine.Find(ctx, comments, "first", friendlyid.InScope("hello-world"))
//
// A miss returns *RecordNotFoundError unless AllowNil is given.
//
// # Scopes
//
// Config.Scope partitions uniqueness, so the same slug can exist once per
// scope value. When Config.ScopeParent names another type, renames of the
// parent move the dependent history entries to the parent's new friendly id.
//
// # Stores
//
// Package pgstore implements Store on PostgreSQL with pgx; package memstore
// keeps everything in memory for tests and embedded use.
package friendlyid
