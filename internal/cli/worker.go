package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/friendlyid/pkg/health"
	"github.com/dmitrymomot/friendlyid/pkg/job"
)

const shutdownTimeout = 30 * time.Second

func newWorkerCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Work backfill and purge jobs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, st.cfg, st.log)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []job.Option{
				job.WithLogger(st.log),
				job.WithQueue(st.cfg.Worker.Queue),
				job.WithMaxWorkers(st.cfg.Worker.MaxWorkers),
			}
			for _, p := range st.cfg.Worker.Purges {
				opts = append(opts, job.WithPurgeSchedule(p.Type, p.Cron, p.OlderThan))
			}

			manager, err := job.NewManager(a.pool, a.engine, opts...)
			if err != nil {
				return err
			}
			return runWorker(ctx, manager, a.checks(), st.cfg.Worker.HealthAddr, st.log)
		},
	}
	return cmd
}

// runWorker starts the manager and an optional probe server, and stops both
// once ctx is done.
func runWorker(ctx context.Context, manager *job.Manager, checks health.Checks, addr string, log *slog.Logger) error {
	// River stops on its own when the start context ends; Stop below drains it instead.
	if err := manager.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	checks["jobs"] = job.Healthcheck(manager)

	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if addr != "" {
		srv = &http.Server{
			Addr:              addr,
			Handler:           health.NewMux(checks, health.WithLogger(log)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.InfoContext(ctx, "health server listening", slog.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		var errs []error
		if srv != nil {
			errs = append(errs, srv.Shutdown(stopCtx))
		}
		errs = append(errs, manager.Stop(stopCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newCheckCommand(st *state) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the database and cache connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, st.cfg, st.log)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := health.Run(ctx, a.checks(), health.WithTimeout(timeout), health.WithLogger(st.log))
			for _, name := range resp.Names() {
				c := resp.Checks[name]
				line := fmt.Sprintf("%-10s %s (%s)", name, c.Status, c.Duration.Round(time.Millisecond))
				if c.Error != "" {
					line += ": " + c.Error
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Time allowed for all checks")
	return cmd
}
