// Package cli implements the friendlyid operator command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/friendlyid/internal/config"
	"github.com/dmitrymomot/friendlyid/pkg/logger"
)

// Build information, injected via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

type runIDKey struct{}

// state is shared by the commands of one invocation.
type state struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
}

// NewRootCommand builds the friendlyid command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:           "friendlyid",
		Short:         "Manage slugs of friendlyid types",
		Long:          "friendlyid runs migrations, backfills and history purges for the types declared in its configuration file, and resolves friendly ids from the command line.",
		Version:       fmt.Sprintf("%s (commit: %.7s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&st.configPath, "config", "c", "", "Path to the configuration file (default: ./friendlyid.yaml)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCommand(st),
		newBackfillCommand(st),
		newPurgeCommand(st),
		newFindCommand(st),
		newNormalizeCommand(st),
		newWorkerCommand(st),
		newCheckCommand(st),
	)

	return root
}

// setup loads the configuration, builds the logger and tags the command
// context with a run id.
func (st *state) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.Log.Level = st.logLevel
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	log, err := logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithLevel(level),
		logger.WithFormat(cfg.Log.Format),
		logger.WithExtractors(logger.ValueExtractor[string](runIDKey{}, "run_id")),
		logger.WithSentry(logger.SentryConfig{
			DSN:         cfg.Log.SentryDSN,
			Environment: cfg.Log.Environment,
			MinLevel:    slog.LevelWarn,
		}),
	)
	if err != nil {
		return err
	}

	st.cfg = cfg
	st.log = log.With(slog.String("command", cmd.Name()))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, runIDKey{}, uuid.NewString()))
	return nil
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	logger.Flush(2 * time.Second)
	if err == nil {
		return 0
	}

	root.PrintErrln("Error:", err)
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}
