package job

import (
	"log/slog"
	"time"
)

// config holds job manager configuration.
type config struct {
	logger     *slog.Logger
	queue      string
	schedules  []schedule
	maxWorkers int
}

// newConfig creates a config with defaults.
func newConfig() *config {
	return &config{
		queue: QueueDefault,
	}
}

// schedule is a periodic purge of one type.
type schedule struct {
	typ       string
	cron      string
	olderThan time.Duration
}

// Option configures the job manager.
type Option func(*config)

// WithPurgeSchedule purges slug history of typ periodically. The cron
// expression has 5 fields (min hour day month weekday). olderThan has the
// meaning of PurgeArgs.OlderThan.
//
// Example:
//
//	job.WithPurgeSchedule("articles", "0 3 * * *", 90*24*time.Hour) // nightly, keep 90 days
func WithPurgeSchedule(typ, cron string, olderThan time.Duration) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			typ:       typ,
			cron:      cron,
			olderThan: olderThan,
		})
	}
}

// WithQueue sets the queue maintenance jobs are inserted into and worked from.
// Default: "friendlyid".
func WithQueue(name string) Option {
	return func(c *config) {
		if name != "" {
			c.queue = name
		}
	}
}

// WithLogger sets the logger for job processing.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets how many maintenance jobs run concurrently.
// Default: 2.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}
