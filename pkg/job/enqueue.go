package job

import (
	"time"

	"github.com/riverqueue/river"
)

// enqueueConfig holds options for enqueueing a job.
type enqueueConfig struct {
	scheduledAt *time.Time
	queue       string
	tags        []string
	maxAttempts int
	uniqueFor   time.Duration
	priority    int
}

// EnqueueOption configures job enqueueing.
type EnqueueOption func(*enqueueConfig)

// InQueue overrides the manager's queue for one job.
func InQueue(name string) EnqueueOption {
	return func(c *enqueueConfig) {
		if name != "" {
			c.queue = name
		}
	}
}

// ScheduledAt schedules the job to run at a specific time.
//
// Example:
//
//	m.EnqueueBackfill(ctx, job.BackfillArgs{Type: "posts"}, job.ScheduledAt(midnight))
func ScheduledAt(t time.Time) EnqueueOption {
	return func(c *enqueueConfig) {
		c.scheduledAt = &t
	}
}

// ScheduledIn schedules the job to run after a duration.
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		t := time.Now().Add(d)
		c.scheduledAt = &t
	}
}

// MaxAttempts sets the maximum number of attempts for the job.
// Defaults to River's default (25 attempts).
func MaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// Priority sets the job priority (lower numbers = higher priority).
// Defaults to 1 if not set.
func Priority(p int) EnqueueOption {
	return func(c *enqueueConfig) {
		c.priority = p
	}
}

// Tags adds metadata tags to the job.
func Tags(tags ...string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.tags = append(c.tags, tags...)
	}
}

// UniqueFor skips the job when one with the same arguments was inserted
// within d. Without it, jobs are unique only while pending.
//
// Example:
//
//	// At most one full backfill of posts per hour
//	m.EnqueueBackfill(ctx, job.BackfillArgs{Type: "posts"}, job.UniqueFor(time.Hour))
func UniqueFor(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		c.uniqueFor = d
	}
}

// buildInsertOpts turns enqueue options into River insert options on top of
// the manager's queue.
func buildInsertOpts(queue string, opts ...EnqueueOption) *river.InsertOpts {
	cfg := &enqueueConfig{queue: queue}
	for _, opt := range opts {
		opt(cfg)
	}

	insertOpts := &river.InsertOpts{Queue: cfg.queue}
	if cfg.scheduledAt != nil {
		insertOpts.ScheduledAt = *cfg.scheduledAt
	}
	if cfg.maxAttempts > 0 {
		insertOpts.MaxAttempts = cfg.maxAttempts
	}
	if cfg.priority > 0 {
		insertOpts.Priority = cfg.priority
	}
	if len(cfg.tags) > 0 {
		insertOpts.Tags = cfg.tags
	}
	if cfg.uniqueFor > 0 {
		insertOpts.UniqueOpts = river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: cfg.uniqueFor,
		}
	}

	return insertOpts
}
