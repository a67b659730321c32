// Package job runs slug maintenance in the background using River
// (Postgres-native queue).
//
// Two job kinds are provided: [BackfillArgs] assigns slugs to records that
// have none and [PurgeArgs] removes outdated slug history. Both resolve their
// type through the engine's registry, so a job naming an unregistered type
// is cancelled instead of retried.
//
// # Setup
//
// River requires its own tables. Apply them once, next to the slug history
// migration:
//
//	if err := pgstore.Migrate(ctx, pool, "", log); err != nil {
//	    return err
//	}
//	if err := job.Migrate(ctx, pool, log); err != nil {
//	    return err
//	}
//
// Then create and start the manager:
//
//	manager, err := job.NewManager(pool, engine,
//	    job.WithLogger(log),
//	    job.WithPurgeSchedule("articles", "0 3 * * *", 90*24*time.Hour),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := manager.Start(ctx); err != nil {
//	    return err
//	}
//	defer manager.Stop(context.Background())
//
// # Enqueueing Jobs
//
//	err := manager.EnqueueBackfill(ctx, job.BackfillArgs{Type: "posts", BatchSize: 1000},
//	    job.ScheduledIn(time.Minute),
//	    job.MaxAttempts(3),
//	)
//
// For atomicity with a bulk import, enqueue in the same transaction:
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//	    if err := importPosts(ctx, tx, rows); err != nil {
//	        return err
//	    }
//	    return manager.EnqueueBackfillTx(ctx, tx, job.BackfillArgs{Type: "posts"})
//	})
//
// # Error Handling
//
//   - [ErrPoolRequired], [ErrEngineRequired] - NewManager dependencies missing
//   - [ErrInvalidSchedule] - bad cron expression or type in WithPurgeSchedule
//   - [ErrAlreadyStarted], [ErrNotStarted] - lifecycle misuse
//   - [ErrMigrate] - River schema migration failed
//   - [ErrHealthcheckFailed] - health check failed
package job
