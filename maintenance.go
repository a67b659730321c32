package friendlyid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultBatchSize is the number of records Backfill loads per query.
const DefaultBatchSize = 500

// BackfillOption configures Backfill.
type BackfillOption func(*backfillOptions)

type backfillOptions struct {
	batchSize int
}

// WithBatchSize sets how many records Backfill loads per query.
// Default: 500.
func WithBatchSize(n int) BackfillOption {
	return func(o *backfillOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// BackfillReport summarizes a Backfill run.
type BackfillReport struct {
	// Assigned counts records that received a slug.
	Assigned int

	// Skipped counts records whose base is blank or reserved.
	Skipped int
}

// Backfill assigns slugs to every record of t that has none, in batches
// ordered by id. Records that fail validation are skipped and logged.
// Running it again only touches records still missing a slug.
func (e *Engine) Backfill(ctx context.Context, t *Type, opts ...BackfillOption) (BackfillReport, error) {
	o := backfillOptions{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var (
		report  BackfillReport
		afterID int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch, err := e.store.MissingSlugs(ctx, t, afterID, o.batchSize)
		if err != nil {
			return report, fmt.Errorf("friendlyid: load %s batch after id %d: %w", t.Name(), afterID, err)
		}

		for _, rec := range batch {
			afterID = rec.ID

			_, err := e.Save(ctx, t, rec)
			switch {
			case errors.Is(err, ErrBlankSlug), errors.Is(err, ErrReservedWord):
				report.Skipped++
				e.logger.WarnContext(ctx, "backfill skipped record",
					slog.String("type", t.Name()),
					slog.Int64("id", rec.ID),
					slog.Any("error", err),
				)
			case err != nil:
				return report, fmt.Errorf("friendlyid: backfill %s id %d: %w", t.Name(), rec.ID, err)
			default:
				report.Assigned++
			}
		}

		if len(batch) < o.batchSize {
			break
		}
	}

	e.logger.InfoContext(ctx, "backfill finished",
		slog.String("type", t.Name()),
		slog.Int("assigned", report.Assigned),
		slog.Int("skipped", report.Skipped),
	)

	return report, nil
}

// PurgeHistory removes every slug history entry of t.
// Records keep their cache column values; outdated slugs stop resolving.
func (e *Engine) PurgeHistory(ctx context.Context, t *Type) (int64, error) {
	n, err := e.store.PurgeEntries(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("friendlyid: purge %s history: %w", t.Name(), err)
	}

	e.purgeCache(ctx, t)
	e.logger.InfoContext(ctx, "slug history purged",
		slog.String("type", t.Name()),
		slog.Int64("deleted", n),
	)

	return n, nil
}

// PurgeHistoryOlderThan removes history entries of t created more than age
// ago. Each record's current entry is always kept.
func (e *Engine) PurgeHistoryOlderThan(ctx context.Context, t *Type, age time.Duration) (int64, error) {
	cutoff := e.now().Add(-max(age, 0))

	n, err := e.store.PurgeEntriesBefore(ctx, t, cutoff)
	if err != nil {
		return 0, fmt.Errorf("friendlyid: purge %s history before %s: %w", t.Name(), cutoff.Format(time.RFC3339), err)
	}

	if n > 0 {
		e.purgeCache(ctx, t)
	}
	e.logger.InfoContext(ctx, "outdated slug history purged",
		slog.String("type", t.Name()),
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted", n),
	)

	return n, nil
}
