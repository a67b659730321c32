package friendlyid

import (
	"context"
	"time"
)

// Record is a sluggable record as seen by the engine.
type Record struct {
	// ID is the immutable primary key. Zero means not yet persisted.
	ID int64

	// Base is the raw value the slug is derived from.
	Base string

	// Scope is the record's scope value. Ignored for unscoped types.
	Scope string
}

// Entry is one slug assigned to a record in history mode.
// The entry with the highest ID of an owner is its current slug.
type Entry struct {
	ID        int64
	Type      *Type
	OwnerID   int64
	Slug      string
	Sequence  int
	Scope     string
	CreatedAt time.Time
}

// FriendlyID renders the entry as the externally visible id.
func (e Entry) FriendlyID() string {
	return e.Type.FormatFriendlyID(e.Slug, e.Sequence)
}

// ScopeFilter narrows lookups of scoped types to one scope value.
// The zero value matches every scope.
type ScopeFilter struct {
	Value string
	Set   bool
}

// Matches reports whether scope passes the filter.
func (f ScopeFilter) Matches(scope string) bool {
	return !f.Set || f.Value == scope
}

// ConflictQuery asks for the top-ranked friendly id that collides with
// Candidate: equal to it, or Candidate followed by the type's separator.
type ConflictQuery struct {
	Type      *Type
	Candidate string

	// Scope is compared only for scoped types.
	Scope string

	// ExcludeID skips the record (column mode) or owner (history mode)
	// being saved.
	ExcludeID int64
}

// ColumnQuery looks up a record by the value of one of its columns.
type ColumnQuery struct {
	Type      *Type
	Column    string
	Value     string
	Scope     ScopeFilter
	ExcludeID int64
}

// Store is the persistence boundary of the engine.
//
// Implementations report missing rows with ErrRecordNotFound, writes that hit
// a uniqueness constraint with ErrUniqueViolation, and failed compare-and-set
// writes with ErrStaleRecord. Column values that are NULL read as "".
type Store interface {
	// Tx runs fn in a transaction. Nested calls use savepoints (or an
	// equivalent), so a failed inner call leaves the outer one usable.
	Tx(ctx context.Context, fn func(Store) error) error

	// ReadColumn returns the value of column for the record id.
	ReadColumn(ctx context.Context, t *Type, id int64, column string) (string, error)

	// CompareAndSetColumn writes value when the column still holds expected.
	CompareAndSetColumn(ctx context.Context, t *Type, id int64, column, expected, value string) error

	// FindByColumn returns the lowest record id matching q.
	FindByColumn(ctx context.Context, q ColumnQuery) (int64, error)

	// Exists reports whether a record with the primary key id exists.
	Exists(ctx context.Context, t *Type, id int64) (bool, error)

	// LatestConflict returns the top-ranked conflicting friendly id or "".
	// Column mode ranks slug column values with SortConflicts. History mode
	// returns the entry with the highest sequence for the candidate text.
	LatestConflict(ctx context.Context, q ConflictQuery) (string, error)

	// MissingSlugs returns up to limit records with id > afterID that have
	// no slug yet, ordered by id.
	MissingSlugs(ctx context.Context, t *Type, afterID int64, limit int) ([]Record, error)

	// CurrentEntry returns the owner's entry with the highest id.
	CurrentEntry(ctx context.Context, t *Type, ownerID int64) (Entry, error)

	// InsertEntry stores e and sets its ID (and CreatedAt when zero).
	InsertEntry(ctx context.Context, e *Entry) error

	// UpdateEntry rewrites the scope and sequence of an existing entry.
	UpdateEntry(ctx context.Context, e Entry) error

	// DeleteEntries removes the owner's entries with the given text and scope.
	DeleteEntries(ctx context.Context, t *Type, ownerID int64, slug, scope string) (int64, error)

	// FindEntryOwner returns the owner of the newest entry matching the
	// text, sequence and scope filter.
	FindEntryOwner(ctx context.Context, t *Type, slug string, seq int, scope ScopeFilter) (int64, error)

	// EntriesInScope returns all entries of t whose scope equals scope.
	EntriesInScope(ctx context.Context, t *Type, scope string) ([]Entry, error)

	// PurgeEntries removes every entry of t.
	PurgeEntries(ctx context.Context, t *Type) (int64, error)

	// PurgeEntriesBefore removes entries of t created before cutoff,
	// keeping each owner's current entry.
	PurgeEntriesBefore(ctx context.Context, t *Type, cutoff time.Time) (int64, error)
}
