// Package config loads the friendlyid command configuration from a YAML
// file with FRIENDLYID_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/friendlyid"
	"github.com/dmitrymomot/friendlyid/pkg/db"
	"github.com/dmitrymomot/friendlyid/pkg/logger"
	"github.com/dmitrymomot/friendlyid/pkg/slug"
)

// EnvPrefix prefixes environment overrides: database.url is read from
// FRIENDLYID_DATABASE_URL.
const EnvPrefix = "FRIENDLYID"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ErrInvalidConfig is returned by Load and Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the top-level command configuration.
type Config struct {
	Log          LogConfig    `mapstructure:"log"`
	Database     db.Config    `mapstructure:"database"`
	Redis        RedisConfig  `mapstructure:"redis"`
	Cache        CacheConfig  `mapstructure:"cache"`
	Worker       WorkerConfig `mapstructure:"worker"`
	HistoryTable string       `mapstructure:"history_table"`
	Types        []TypeConfig `mapstructure:"types"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is json or text.
	Format      string `mapstructure:"format"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// RedisConfig holds the Redis connection used by the redis cache backend.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// CacheConfig selects the lookup cache.
type CacheConfig struct {
	// Backend is none, memory or redis.
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	Prefix     string        `mapstructure:"prefix"`
}

// WorkerConfig holds settings of the worker command.
type WorkerConfig struct {
	Queue      string `mapstructure:"queue"`
	MaxWorkers int    `mapstructure:"max_workers"`
	// HealthAddr serves liveness and readiness probes when set, e.g. ":8081".
	HealthAddr string          `mapstructure:"health_addr"`
	Purges     []PurgeSchedule `mapstructure:"purges"`
}

// PurgeSchedule purges slug history of Type on a cron schedule.
type PurgeSchedule struct {
	Type      string        `mapstructure:"type"`
	Cron      string        `mapstructure:"cron"`
	OlderThan time.Duration `mapstructure:"older_than"`
}

// TypeConfig declares one sluggable type. Empty fields take the
// friendlyid defaults.
type TypeConfig struct {
	Name           string   `mapstructure:"name"`
	Table          string   `mapstructure:"table"`
	IDColumn       string   `mapstructure:"id_column"`
	Base           string   `mapstructure:"base"`
	SlugColumn     string   `mapstructure:"slug_column"`
	CacheColumn    string   `mapstructure:"cache_column"`
	Separator      string   `mapstructure:"separator"`
	MaxLength      int      `mapstructure:"max_length"`
	ReservedWords  []string `mapstructure:"reserved_words"`
	ReservedPolicy string   `mapstructure:"reserved_policy"`
	Scope          string   `mapstructure:"scope"`
	ScopeParent    string   `mapstructure:"scope_parent"`
	Mode           string   `mapstructure:"mode"`
	Locale         string   `mapstructure:"locale"`
	// StrictASCII drops non-ASCII runes from slugs. Unset keeps the
	// slug package default (true).
	StrictASCII *bool `mapstructure:"strict_ascii"`
}

// Friendly converts t into a friendlyid.Config.
func (t TypeConfig) Friendly() (friendlyid.Config, error) {
	cfg := friendlyid.Config{
		Name:          t.Name,
		Table:         t.Table,
		IDColumn:      t.IDColumn,
		Base:          t.Base,
		SlugColumn:    t.SlugColumn,
		CacheColumn:   t.CacheColumn,
		Separator:     t.Separator,
		MaxLength:     t.MaxLength,
		ReservedWords: t.ReservedWords,
		Scope:         t.Scope,
		ScopeParent:   t.ScopeParent,
	}

	switch strings.ToLower(t.Mode) {
	case "", "column":
		cfg.Mode = friendlyid.ModeColumn
	case "history":
		cfg.Mode = friendlyid.ModeHistory
	default:
		return cfg, fmt.Errorf("types.%s.mode must be one of [column, history], got %q", t.Name, t.Mode)
	}

	switch strings.ToLower(t.ReservedPolicy) {
	case "", "reject":
		cfg.ReservedPolicy = friendlyid.ReservedReject
	case "sequence":
		cfg.ReservedPolicy = friendlyid.ReservedSequence
	default:
		return cfg, fmt.Errorf("types.%s.reserved_policy must be one of [reject, sequence], got %q", t.Name, t.ReservedPolicy)
	}

	if t.Locale != "" {
		tag, err := language.Parse(t.Locale)
		if err != nil {
			return cfg, fmt.Errorf("types.%s.locale: %w", t.Name, err)
		}
		cfg.SlugOptions = append(cfg.SlugOptions, slug.Locale(tag))
	}
	if t.StrictASCII != nil {
		cfg.SlugOptions = append(cfg.SlugOptions, slug.StrictASCII(*t.StrictASCII))
	}

	return cfg, nil
}

// Registry registers every configured type.
func (c Config) Registry() (*friendlyid.Registry, error) {
	reg := friendlyid.NewRegistry()
	for _, t := range c.Types {
		cfg, err := t.Friendly()
		if err != nil {
			return nil, err
		}
		if _, err := reg.Register(cfg); err != nil {
			return nil, err
		}
	}

	// Parents may be declared after their children.
	for _, t := range reg.Types() {
		if p := t.Config().ScopeParent; p != "" {
			if _, err := reg.Lookup(p); err != nil {
				return nil, fmt.Errorf("types.%s.scope_parent: %w", t.Name(), err)
			}
		}
	}
	return reg, nil
}

// Load reads the configuration from path. With an empty path it looks for
// friendlyid.yaml in the working directory and in /etc/friendlyid, and
// runs on defaults and environment variables alone if none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("friendlyid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/friendlyid")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := db.DefaultConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logger.FormatJSON)
	v.SetDefault("log.sentry_dsn", "")
	v.SetDefault("log.environment", "production")

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations_table", d.MigrationsTable)
	v.SetDefault("database.health_check_period", d.HealthCheckPeriod)
	v.SetDefault("database.max_conn_idle_time", d.MaxConnIdleTime)
	v.SetDefault("database.max_conn_lifetime", d.MaxConnLifetime)
	v.SetDefault("database.retry_attempts", d.RetryAttempts)
	v.SetDefault("database.retry_interval", d.RetryInterval)
	v.SetDefault("database.max_conns", d.MaxConns)
	v.SetDefault("database.min_conns", d.MinConns)

	v.SetDefault("redis.url", "")

	v.SetDefault("cache.backend", CacheNone)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.prefix", "friendlyid")

	v.SetDefault("worker.queue", "friendlyid")
	v.SetDefault("worker.max_workers", 2)
	v.SetDefault("worker.health_addr", "")

	v.SetDefault("history_table", "friendly_id_slugs")
}

// Validate checks all configuration invariants and reports every violation.
// database.url is checked when a command opens the pool, so commands that
// never touch the database run without it.
func (c Config) Validate() error {
	var errs []error

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case logger.FormatJSON, logger.FormatText:
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("database.min_conns must not exceed database.max_conns"))
	}
	if c.HistoryTable != "" && c.HistoryTable == c.Database.MigrationsTable {
		errs = append(errs, fmt.Errorf("database.migrations_table must differ from history_table %q", c.HistoryTable))
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url must not be empty with the redis cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of [none, memory, redis], got %q", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}

	if c.Worker.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("worker.max_workers must be >= 1, got %d", c.Worker.MaxWorkers))
	}

	if len(c.Types) == 0 {
		errs = append(errs, errors.New("types must declare at least one type"))
	}
	reg, err := c.Registry()
	if err != nil {
		errs = append(errs, err)
	} else {
		for i, p := range c.Worker.Purges {
			t, err := reg.Lookup(p.Type)
			switch {
			case err != nil:
				errs = append(errs, fmt.Errorf("worker.purges[%d].type: %w", i, err))
			case t.Config().Mode != friendlyid.ModeHistory:
				errs = append(errs, fmt.Errorf("worker.purges[%d].type: %s has no slug history", i, p.Type))
			}
			if p.Cron == "" {
				errs = append(errs, fmt.Errorf("worker.purges[%d].cron must not be empty", i))
			}
			if p.OlderThan < 0 {
				errs = append(errs, fmt.Errorf("worker.purges[%d].older_than must not be negative", i))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
