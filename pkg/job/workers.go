package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/dmitrymomot/friendlyid"
)

// backfillWorker runs Engine.Backfill for one type.
type backfillWorker struct {
	river.WorkerDefaults[BackfillArgs]
	engine *friendlyid.Engine
	logger *slog.Logger
}

func (w *backfillWorker) Work(ctx context.Context, job *river.Job[BackfillArgs]) error {
	t, err := w.engine.Registry().Lookup(job.Args.Type)
	if err != nil {
		// Retrying cannot register the type.
		return river.JobCancel(err)
	}

	w.logger.DebugContext(ctx, "backfill started",
		slog.String("type", t.Name()),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)

	report, err := w.engine.Backfill(ctx, t, friendlyid.WithBatchSize(job.Args.BatchSize))
	if err != nil {
		w.logger.ErrorContext(ctx, "backfill failed",
			slog.String("type", t.Name()),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Int("assigned", report.Assigned),
			slog.Any("error", err),
		)
		return err
	}

	w.logger.DebugContext(ctx, "backfill completed",
		slog.String("type", t.Name()),
		slog.Int64("job_id", job.ID),
		slog.Int("assigned", report.Assigned),
		slog.Int("skipped", report.Skipped),
	)
	return nil
}

// purgeWorker removes slug history of one type.
type purgeWorker struct {
	river.WorkerDefaults[PurgeArgs]
	engine *friendlyid.Engine
	logger *slog.Logger
}

func (w *purgeWorker) Work(ctx context.Context, job *river.Job[PurgeArgs]) error {
	t, err := historyType(w.engine, job.Args.Type)
	if err != nil {
		return river.JobCancel(err)
	}

	var deleted int64
	if job.Args.OlderThan > 0 {
		deleted, err = w.engine.PurgeHistoryOlderThan(ctx, t, job.Args.OlderThan)
	} else {
		deleted, err = w.engine.PurgeHistory(ctx, t)
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "purge failed",
			slog.String("type", t.Name()),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return err
	}

	w.logger.DebugContext(ctx, "purge completed",
		slog.String("type", t.Name()),
		slog.Int64("job_id", job.ID),
		slog.Int64("deleted", deleted),
	)
	return nil
}

// historyType looks up a type that keeps slug history.
func historyType(engine *friendlyid.Engine, name string) (*friendlyid.Type, error) {
	t, err := engine.Registry().Lookup(name)
	if err != nil {
		return nil, err
	}
	if t.Config().Mode != friendlyid.ModeHistory {
		return nil, fmt.Errorf("%w: %s has no slug history", friendlyid.ErrInvalidConfig, name)
	}
	return t, nil
}
