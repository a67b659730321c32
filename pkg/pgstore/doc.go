// Package pgstore implements friendlyid.Store on PostgreSQL with pgx.
//
// Record tables belong to the host application; the store reads and writes
// them through the table and column names of each registered type. Slug
// history lives in the friendly_id_slugs table created by Migrate.
//
// Basic usage:
//
//	pool, err := db.Open(ctx, db.Config{URL: os.Getenv("DATABASE_URL")}, log)
//	if err != nil {
//		return err
//	}
//	if err := pgstore.Migrate(ctx, pool, "", log); err != nil {
//		return err
//	}
//
//	engine, err := friendlyid.New(pgstore.New(pool, pgstore.WithLogger(log)), registry)
//
// Inside a host transaction, bind a store to the open pgx.Tx so slug writes
// commit together with the record:
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		// insert the record ...
//		_, err := engine.With(pgstore.New(tx)).Save(ctx, posts, rec)
//		return err
//	})
//
// Store.Tx on a store bound to a transaction opens a savepoint.
//
// Uniqueness violations (SQLSTATE 23505) are reported as
// friendlyid.ErrUniqueViolation so the engine can retry them.
package pgstore
