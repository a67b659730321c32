package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmptyConnectionURL       = errors.New("db: empty connection URL")
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrSetDialect               = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")
)

// SQLSTATE codes the stores care about.
const (
	CodeUniqueViolation      = "23505"
	CodeSerializationFailure = "40001"
)

// IsUniqueViolation reports whether err carries a unique_violation from PostgreSQL.
func IsUniqueViolation(err error) bool {
	return hasCode(err, CodeUniqueViolation)
}

// IsSerializationFailure reports whether err carries a serialization_failure.
func IsSerializationFailure(err error) bool {
	return hasCode(err, CodeSerializationFailure)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
