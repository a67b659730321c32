package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// goose keeps its settings in package state.
var gooseMu sync.Mutex

// Migrate applies all pending goose migrations found in dir of fsys.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, dir, table string, log *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&gooseLogger{log: log, ctx: ctx})
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

// MigrationVersion returns the latest applied migration version.
func MigrationVersion(ctx context.Context, pool *pgxpool.Pool, table string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	goose.SetTableName(table)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, errors.Join(ErrSetDialect, err)
	}

	return goose.GetDBVersionContext(ctx, sqlDB)
}

type gooseLogger struct {
	log *slog.Logger
	ctx context.Context
}

func (g *gooseLogger) Printf(format string, args ...any) {
	if g.log != nil {
		g.log.InfoContext(g.ctx, fmt.Sprintf(format, args...))
	}
}

func (g *gooseLogger) Fatalf(format string, args ...any) {
	if g.log != nil {
		g.log.ErrorContext(g.ctx, fmt.Sprintf(format, args...))
	}
}
