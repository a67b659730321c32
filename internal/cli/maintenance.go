package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/friendlyid"
	"github.com/dmitrymomot/friendlyid/internal/config"
	"github.com/dmitrymomot/friendlyid/pkg/job"
	"github.com/dmitrymomot/friendlyid/pkg/pgstore"
)

func newMigrateCommand(st *state) *cobra.Command {
	var skipRiver bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the slug history and job queue migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start := time.Now()

			versions, err := migrationTable(st.cfg)
			if err != nil {
				return err
			}

			a := &app{cfg: st.cfg, log: st.log}
			if err := a.openPool(ctx); err != nil {
				return err
			}
			defer a.Close()

			if err := pgstore.Migrate(ctx, a.pool, versions, st.log); err != nil {
				return err
			}
			if !skipRiver {
				if err := job.Migrate(ctx, a.pool, st.log); err != nil {
					return err
				}
			}

			st.log.InfoContext(ctx, "migrations applied", slog.Duration("elapsed", time.Since(start)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipRiver, "skip-river", false, "Do not migrate the job queue tables")
	return cmd
}

// migrationTable returns the goose version table for the slug history
// migration. The bundled migration only creates pgstore.HistoryTable, so
// other history tables must be created by hand.
func migrationTable(cfg *config.Config) (string, error) {
	if cfg.HistoryTable != pgstore.HistoryTable {
		return "", fmt.Errorf("%w: migrate creates %q only, create history table %q by hand",
			config.ErrInvalidConfig, pgstore.HistoryTable, cfg.HistoryTable)
	}
	return cfg.Database.MigrationsTable, nil
}

func newBackfillCommand(st *state) *cobra.Command {
	var (
		typeName  string
		batchSize int
		enqueue   bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Assign slugs to records that have none",
		Long: `Assign slugs to every record of a type that has none.

Examples:
  # Run in the foreground
  friendlyid backfill --type posts

  # Hand it to the worker
  friendlyid backfill --type posts --enqueue
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, st.cfg, st.log)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.lookup(typeName)
			if err != nil {
				return err
			}

			if enqueue {
				m, err := a.jobManager()
				if err != nil {
					return err
				}
				if err := m.EnqueueBackfill(ctx, job.BackfillArgs{Type: t.Name(), BatchSize: batchSize}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backfill of %s enqueued\n", t.Name())
				return nil
			}

			report, err := a.engine.Backfill(ctx, t, friendlyid.WithBatchSize(batchSize))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d assigned, %d skipped\n", t.Name(), report.Assigned, report.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Type to backfill")
	cmd.Flags().IntVar(&batchSize, "batch-size", friendlyid.DefaultBatchSize, "Records loaded per query")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Enqueue a job instead of running now")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newPurgeCommand(st *state) *cobra.Command {
	var (
		typeName  string
		olderThan time.Duration
		enqueue   bool
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove slug history of a history mode type",
		Long: `Remove slug history of a history mode type.

Without --older-than every entry is removed and outdated slugs stop
resolving at once. With it, only entries older than the given age go and
each record keeps its current slug.

Examples:
  friendlyid purge --type articles --older-than 2160h
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, st.cfg, st.log)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.lookup(typeName)
			if err != nil {
				return err
			}
			if t.Config().Mode != friendlyid.ModeHistory {
				return fmt.Errorf("--type: %s has no slug history", t.Name())
			}

			if enqueue {
				m, err := a.jobManager()
				if err != nil {
					return err
				}
				if err := m.EnqueuePurge(ctx, job.PurgeArgs{Type: t.Name(), OlderThan: olderThan}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purge of %s enqueued\n", t.Name())
				return nil
			}

			var deleted int64
			if olderThan > 0 {
				deleted, err = a.engine.PurgeHistoryOlderThan(ctx, t, olderThan)
			} else {
				deleted, err = a.engine.PurgeHistory(ctx, t)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d history entries deleted\n", t.Name(), deleted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Type to purge")
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove entries older than this age")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Enqueue a job instead of running now")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// jobManager creates an unstarted manager for enqueueing.
func (a *app) jobManager() (*job.Manager, error) {
	return job.NewManager(a.pool, a.engine,
		job.WithLogger(a.log),
		job.WithQueue(a.cfg.Worker.Queue),
	)
}
