package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/friendlyid"
)

const defaultMaxWorkers = 2

// Manager runs slug maintenance (backfills and history purges) as River jobs.
type Manager struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
	engine *friendlyid.Engine
	queue  string
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager creates a job manager working jobs with engine.
// The River client is created immediately, allowing jobs to be enqueued
// before Start() is called. Call Start() to begin processing jobs.
func NewManager(pool *pgxpool.Pool, engine *friendlyid.Engine, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.maxWorkers == 0 {
		cfg.maxWorkers = defaultMaxWorkers
	}

	periodicJobs := make([]*river.PeriodicJob, 0, len(cfg.schedules))
	for _, sched := range cfg.schedules {
		job, err := newPurgeJob(engine, cfg.queue, sched)
		if err != nil {
			return nil, err
		}
		periodicJobs = append(periodicJobs, job)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &backfillWorker{engine: engine, logger: cfg.logger})
	river.AddWorker(workers, &purgeWorker{engine: engine, logger: cfg.logger})

	// Client created immediately, allowing enqueue() before Start().
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			cfg.queue: {MaxWorkers: cfg.maxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodicJobs,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		pool:   pool,
		client: client,
		engine: engine,
		queue:  cfg.queue,
		logger: cfg.logger,
	}, nil
}

// newPurgeJob builds the periodic job of a purge schedule.
func newPurgeJob(engine *friendlyid.Engine, queue string, sched schedule) (*river.PeriodicJob, error) {
	if _, err := historyType(engine, sched.typ); err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}

	cronSchedule, err := parseCronSchedule(sched.cron)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, fmt.Errorf("cron %q: %w", sched.cron, err))
	}

	return river.NewPeriodicJob(
		cronSchedule,
		func() (river.JobArgs, *river.InsertOpts) {
			return PurgeArgs{Type: sched.typ, OlderThan: sched.olderThan}, &river.InsertOpts{Queue: queue}
		},
		&river.PeriodicJobOpts{
			RunOnStart: false,
		},
	), nil
}

// Start begins processing jobs.
// Jobs can be enqueued before Start() is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}

	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}

	m.started = true
	m.logger.Info("job manager started", slog.String("queue", m.queue))

	return nil
}

// Stop gracefully shuts down the job manager.
// It waits for currently executing jobs to complete.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}

	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}

	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// EnqueueBackfill schedules a backfill of args.Type.
// Pending backfills with the same arguments are not duplicated.
func (m *Manager) EnqueueBackfill(ctx context.Context, args BackfillArgs, opts ...EnqueueOption) error {
	if _, err := m.engine.Registry().Lookup(args.Type); err != nil {
		return err
	}
	return m.insert(ctx, nil, args, opts)
}

// EnqueueBackfillTx schedules a backfill within tx.
// The job is only visible after the transaction commits, so a backfill
// enqueued next to a bulk import never sees a partial import.
func (m *Manager) EnqueueBackfillTx(ctx context.Context, tx pgx.Tx, args BackfillArgs, opts ...EnqueueOption) error {
	if _, err := m.engine.Registry().Lookup(args.Type); err != nil {
		return err
	}
	return m.insert(ctx, tx, args, opts)
}

// EnqueuePurge schedules a history purge of args.Type, which must be a
// history mode type.
func (m *Manager) EnqueuePurge(ctx context.Context, args PurgeArgs, opts ...EnqueueOption) error {
	if _, err := historyType(m.engine, args.Type); err != nil {
		return err
	}
	return m.insert(ctx, nil, args, opts)
}

func (m *Manager) insert(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts []EnqueueOption) error {
	insertOpts := buildInsertOpts(m.queue, opts...)

	var err error
	if tx != nil {
		_, err = m.client.InsertTx(ctx, tx, args, insertOpts)
	} else {
		_, err = m.client.Insert(ctx, args, insertOpts)
	}
	if err != nil {
		return fmt.Errorf("job: enqueue %s: %w", args.Kind(), err)
	}

	m.logger.DebugContext(ctx, "job enqueued",
		slog.String("kind", args.Kind()),
		slog.String("queue", insertOpts.Queue),
	)
	return nil
}

// Shutdown returns a shutdown function for the job manager.
func (m *Manager) Shutdown() func(context.Context) error {
	return func(ctx context.Context) error {
		return m.Stop(ctx)
	}
}

// StartFunc returns a startup function for the job manager.
func (m *Manager) StartFunc() func(context.Context) error {
	return func(ctx context.Context) error {
		return m.Start(ctx)
	}
}

// Migrate applies River's schema migrations to pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), &rivermigrate.Config{Logger: log})
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}

	for _, v := range res.Versions {
		log.InfoContext(ctx, "river migration applied",
			slog.Int("version", v.Version),
			slog.Duration("duration", v.Duration),
		)
	}
	return nil
}

type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a *cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &cronScheduleAdapter{schedule: schedule}, nil
}
