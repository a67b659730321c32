package pgstore

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/friendlyid/pkg/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// HistoryTable is the slug history table created by Migrate.
const HistoryTable = "friendly_id_slugs"

// Migrate creates or upgrades the slug history table. An empty table name
// uses the default goose version table of pkg/db.
func Migrate(ctx context.Context, pool *pgxpool.Pool, table string, log *slog.Logger) error {
	if table == "" {
		table = db.DefaultConfig().MigrationsTable
	}
	return db.Migrate(ctx, pool, migrations, "migrations", table, log)
}
