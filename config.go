package friendlyid

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrymomot/friendlyid/pkg/slug"
)

// Mode selects where a type keeps its slugs.
type Mode int

const (
	// ModeColumn stores the current slug in a column of the record's table.
	// A rename overwrites it.
	ModeColumn Mode = iota

	// ModeHistory stores every assigned slug as an Entry. Outdated slugs
	// stay resolvable.
	ModeHistory
)

func (m Mode) String() string {
	switch m {
	case ModeColumn:
		return "column"
	case ModeHistory:
		return "history"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ReservedPolicy decides what happens to a candidate that is a reserved word.
type ReservedPolicy int

const (
	// ReservedReject fails the save with *ReservedWordError.
	ReservedReject ReservedPolicy = iota

	// ReservedSequence treats the reserved word as taken and appends
	// a sequence suffix, starting at 2.
	ReservedSequence
)

// Defaults applied by DefaultConfig and Register.
const (
	DefaultIDColumn   = "id"
	DefaultSlugColumn = "slug"
	DefaultSeparator  = "--"
	DefaultMaxLength  = 255

	wordSeparator = "-"
)

// DefaultReservedWords returns the reserved words used when
// Config.ReservedWords is nil.
func DefaultReservedWords() []string {
	return []string{"new", "edit"}
}

// Config describes one sluggable type.
type Config struct {
	// Name identifies the type in the slug history table and in the registry.
	Name string

	// Table is the record table. Stores use it for column reads and writes.
	Table string

	// IDColumn is the primary key column.
	// Default: "id".
	IDColumn string

	// Base names the field the slug is derived from. Used in error messages.
	Base string

	// SlugColumn holds the slug in ModeColumn.
	// Default: "slug".
	SlugColumn string

	// CacheColumn optionally holds a denormalized copy of the current
	// friendly id (slug plus sequence suffix).
	CacheColumn string

	// Separator joins a slug and its sequence number. Must differ from the
	// word separator "-".
	// Default: "--".
	Separator string

	// MaxLength limits the normalized slug, before any sequence suffix.
	// Default: 255.
	MaxLength int

	// ReservedWords lists candidates that may not be used as-is.
	// Nil means DefaultReservedWords, an empty slice disables the check.
	ReservedWords []string

	// ReservedPolicy decides how reserved candidates are handled.
	// Default: ReservedReject.
	ReservedPolicy ReservedPolicy

	// Scope names the column that partitions uniqueness. Empty means the
	// type is unscoped.
	Scope string

	// ScopeParent names the registered type whose friendly id is stored in
	// Scope. Renames of the parent are propagated to this type's history.
	ScopeParent string

	// Mode selects column or history storage.
	// Default: ModeColumn.
	Mode Mode

	// Normalizer replaces the default normalization when set.
	// Its output is still truncated and cleaned of the sequence separator.
	Normalizer func(string) string

	// SlugOptions are passed to slug.Normalize when Normalizer is nil.
	SlugOptions []slug.Option
}

// DefaultConfig returns a config with every default filled in.
// The result is a fresh value and may be modified freely.
func DefaultConfig() Config {
	return Config{
		IDColumn:      DefaultIDColumn,
		SlugColumn:    DefaultSlugColumn,
		Separator:     DefaultSeparator,
		MaxLength:     DefaultMaxLength,
		ReservedWords: DefaultReservedWords(),
	}
}

// withDefaults fills zero values and copies slices so the registered
// config cannot be changed through the caller's copy.
func (c Config) withDefaults() Config {
	if c.IDColumn == "" {
		c.IDColumn = DefaultIDColumn
	}
	if c.SlugColumn == "" {
		c.SlugColumn = DefaultSlugColumn
	}
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.Base == "" {
		c.Base = "name"
	}
	if c.Table == "" {
		c.Table = c.Name
	}
	if c.ReservedWords == nil {
		c.ReservedWords = DefaultReservedWords()
	} else {
		c.ReservedWords = slices.Clone(c.ReservedWords)
	}
	c.SlugOptions = slices.Clone(c.SlugOptions)
	return c
}

func (c Config) validate() error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.Separator == wordSeparator {
		errs = append(errs, fmt.Errorf("separator %q collides with the word separator", c.Separator))
	}
	if c.MaxLength < 0 {
		errs = append(errs, fmt.Errorf("max length must be positive, got %d", c.MaxLength))
	}
	if c.ScopeParent != "" && c.Scope == "" {
		errs = append(errs, errors.New("scope parent requires a scope column"))
	}
	if c.ScopeParent != "" && c.ScopeParent == c.Name {
		errs = append(errs, errors.New("type can not be its own scope parent"))
	}
	if c.Mode != ModeColumn && c.Mode != ModeHistory {
		errs = append(errs, fmt.Errorf("unknown mode %d", int(c.Mode)))
	}
	if c.ReservedPolicy != ReservedReject && c.ReservedPolicy != ReservedSequence {
		errs = append(errs, fmt.Errorf("unknown reserved policy %d", int(c.ReservedPolicy)))
	}

	if len(errs) == 0 {
		return nil
	}
	if c.Name != "" {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("type %q: %w", c.Name, errors.Join(errs...)))
	}
	return errors.Join(ErrInvalidConfig, errors.Join(errs...))
}
