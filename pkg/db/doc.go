// Package db provides PostgreSQL utilities for the slug stores.
//
// It wraps [github.com/jackc/pgx/v5/pgxpool] for pooling and startup retries,
// [github.com/pressly/goose/v3] for migrations, and classifies pgx errors:
//
//	pool, err := db.Open(ctx, db.Config{URL: os.Getenv("DATABASE_URL")}, logger)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "UPDATE posts SET slug = $1 WHERE id = $2", slug, id)
//	    if db.IsUniqueViolation(err) {
//	        // another writer claimed the slug
//	    }
//	    return err
//	})
//
// WithTx accepts a pgx.Tx as well; the nested call then runs in a savepoint,
// so a failed statement does not poison the outer transaction.
//
// Migrate applies goose migrations from any fs.FS, typically an embed.FS.
// goose keeps its settings globally, so concurrent Migrate calls are
// serialized.
package db
