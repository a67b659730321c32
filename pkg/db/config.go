package db

import "time"

// Config holds pool settings. Field tags map the keys of the CLI's
// configuration file.
type Config struct {
	URL string `mapstructure:"url"`

	MigrationsTable string `mapstructure:"migrations_table"`

	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`

	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`

	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

// DefaultConfig returns the settings used for zero fields.
func DefaultConfig() Config {
	return Config{
		MigrationsTable:   "friendlyid_migrations",
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     2 * time.Second,
		MaxConns:          10,
		MinConns:          2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MigrationsTable == "" {
		c.MigrationsTable = d.MigrationsTable
	}
	if c.HealthCheckPeriod <= 0 {
		c.HealthCheckPeriod = d.HealthCheckPeriod
	}
	if c.MaxConnIdleTime <= 0 {
		c.MaxConnIdleTime = d.MaxConnIdleTime
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = d.MaxConnLifetime
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.MaxConns <= 0 {
		c.MaxConns = d.MaxConns
	}
	if c.MinConns < 0 {
		c.MinConns = 0
	}
	return c
}
