package job

import "errors"

// Job errors.
var (
	// ErrAlreadyStarted is returned when attempting to start a manager
	// that is already running.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned when attempting to stop a manager
	// that is not running.
	ErrNotStarted = errors.New("job: not started")

	// ErrPoolRequired is returned when attempting to create a manager
	// without providing a database pool.
	ErrPoolRequired = errors.New("job: pool is required")

	// ErrEngineRequired is returned when attempting to create a manager
	// without a friendlyid engine.
	ErrEngineRequired = errors.New("job: engine is required")

	// ErrInvalidSchedule is returned for purge schedules with a bad cron
	// expression or an unregistered type.
	ErrInvalidSchedule = errors.New("job: invalid schedule")

	// ErrMigrate is returned when the River schema cannot be migrated.
	ErrMigrate = errors.New("job: failed to migrate river schema")
)
