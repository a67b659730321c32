package memstore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/friendlyid"
)

// Store keeps records and slug history in memory.
//
// Transactions hold an exclusive lock for their whole duration and restore a
// snapshot on error, so concurrent transactions are serialized. Nested
// transactions behave like savepoints.
type Store struct {
	shared *shared
	inTx   bool
}

type shared struct {
	mu     sync.Mutex
	state  *state
	unique map[string]uniqueColumn
	now    func() time.Time
}

type uniqueColumn struct {
	column string
	scope  string
}

type state struct {
	tables      map[string]*table
	entries     []friendlyid.Entry
	nextEntryID int64
}

type table struct {
	rows   map[int64]map[string]string
	nextID int64
}

// Option configures a Store.
type Option func(*shared)

// WithUniqueColumn enforces uniqueness of non-empty values of column in
// tableName, per value of scopeColumn when it is not empty. Writes that
// would break it fail with friendlyid.ErrUniqueViolation.
func WithUniqueColumn(tableName, column, scopeColumn string) Option {
	return func(s *shared) {
		s.unique[uniqueKey(tableName, column)] = uniqueColumn{column: column, scope: scopeColumn}
	}
}

// WithClock sets the time source for entry timestamps.
// Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *shared) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	sh := &shared{
		state:  newState(),
		unique: make(map[string]uniqueColumn),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(sh)
	}
	return &Store{shared: sh}
}

func newState() *state {
	return &state{tables: make(map[string]*table)}
}

func uniqueKey(tableName, column string) string {
	return tableName + "\x00" + column
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.shared.mu.Lock()
	return s.shared.mu.Unlock
}

// Tx runs fn with a snapshot taken beforehand; the snapshot is restored
// when fn returns an error or panics.
func (s *Store) Tx(ctx context.Context, fn func(friendlyid.Store) error) (err error) {
	defer s.lock()()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.shared.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.shared.state = snapshot
			panic(p)
		}
		if err != nil {
			s.shared.state = snapshot
		}
	}()

	return fn(&Store{shared: s.shared, inTx: true})
}

func (st *state) clone() *state {
	c := &state{
		tables:      make(map[string]*table, len(st.tables)),
		entries:     slices.Clone(st.entries),
		nextEntryID: st.nextEntryID,
	}
	for name, tbl := range st.tables {
		rows := make(map[int64]map[string]string, len(tbl.rows))
		for id, row := range tbl.rows {
			rows[id] = maps.Clone(row)
		}
		c.tables[name] = &table{rows: rows, nextID: tbl.nextID}
	}
	return c
}

func (st *state) table(name string) *table {
	tbl, ok := st.tables[name]
	if !ok {
		tbl = &table{rows: make(map[int64]map[string]string)}
		st.tables[name] = tbl
	}
	return tbl
}

// sortedIDs returns the row ids of tbl in ascending order.
func (tbl *table) sortedIDs() []int64 {
	return slices.Sorted(maps.Keys(tbl.rows))
}

// Insert adds a row to tableName and returns its generated id.
func (s *Store) Insert(tableName string, values map[string]string) int64 {
	defer s.lock()()

	tbl := s.shared.state.table(tableName)
	tbl.nextID++
	tbl.rows[tbl.nextID] = maps.Clone(values)
	if tbl.rows[tbl.nextID] == nil {
		tbl.rows[tbl.nextID] = make(map[string]string)
	}
	return tbl.nextID
}

// Set writes one column of an existing row without any checks.
func (s *Store) Set(tableName string, id int64, column, value string) {
	defer s.lock()()

	if row, ok := s.shared.state.table(tableName).rows[id]; ok {
		row[column] = value
	}
}

// Get reads one column of a row. Missing rows and columns read as "".
func (s *Store) Get(tableName string, id int64, column string) string {
	defer s.lock()()

	return s.shared.state.table(tableName).rows[id][column]
}

// Delete removes a record of t and, like a cascading foreign key, its
// slug history.
func (s *Store) Delete(t *friendlyid.Type, id int64) {
	defer s.lock()()

	st := s.shared.state
	delete(st.table(t.Config().Table).rows, id)
	st.entries = slices.DeleteFunc(st.entries, func(e friendlyid.Entry) bool {
		return e.Type.Name() == t.Name() && e.OwnerID == id
	})
}

// Entries returns a copy of the slug history of t ordered by entry id.
func (s *Store) Entries(t *friendlyid.Type) []friendlyid.Entry {
	defer s.lock()()

	var out []friendlyid.Entry
	for _, e := range s.shared.state.entries {
		if e.Type.Name() == t.Name() {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) ReadColumn(ctx context.Context, t *friendlyid.Type, id int64, column string) (string, error) {
	defer s.lock()()

	row, ok := s.shared.state.table(t.Config().Table).rows[id]
	if !ok {
		return "", friendlyid.ErrRecordNotFound
	}
	return row[column], nil
}

func (s *Store) CompareAndSetColumn(ctx context.Context, t *friendlyid.Type, id int64, column, expected, value string) error {
	defer s.lock()()

	tableName := t.Config().Table
	tbl := s.shared.state.table(tableName)
	row, ok := tbl.rows[id]
	if !ok {
		return friendlyid.ErrRecordNotFound
	}
	if row[column] != expected {
		return friendlyid.ErrStaleRecord
	}

	if u, ok := s.shared.unique[uniqueKey(tableName, column)]; ok && value != "" {
		for otherID, other := range tbl.rows {
			if otherID == id || other[u.column] != value {
				continue
			}
			if u.scope == "" || other[u.scope] == row[u.scope] {
				return friendlyid.ErrUniqueViolation
			}
		}
	}

	row[column] = value
	return nil
}

func (s *Store) FindByColumn(ctx context.Context, q friendlyid.ColumnQuery) (int64, error) {
	defer s.lock()()

	cfg := q.Type.Config()
	tbl := s.shared.state.table(cfg.Table)
	for _, id := range tbl.sortedIDs() {
		row := tbl.rows[id]
		if id == q.ExcludeID || row[q.Column] != q.Value {
			continue
		}
		if q.Type.Scoped() && !q.Scope.Matches(row[cfg.Scope]) {
			continue
		}
		return id, nil
	}
	return 0, friendlyid.ErrRecordNotFound
}

func (s *Store) Exists(ctx context.Context, t *friendlyid.Type, id int64) (bool, error) {
	defer s.lock()()

	_, ok := s.shared.state.table(t.Config().Table).rows[id]
	return ok, nil
}

func (s *Store) LatestConflict(ctx context.Context, q friendlyid.ConflictQuery) (string, error) {
	defer s.lock()()

	cfg := q.Type.Config()
	if cfg.Mode == friendlyid.ModeHistory {
		best := 0
		for _, e := range s.shared.state.entries {
			if e.Type.Name() != q.Type.Name() || e.Slug != q.Candidate || e.OwnerID == q.ExcludeID {
				continue
			}
			if q.Type.Scoped() && e.Scope != q.Scope {
				continue
			}
			best = max(best, e.Sequence)
		}
		if best == 0 {
			return "", nil
		}
		return q.Type.FormatFriendlyID(q.Candidate, best), nil
	}

	prefix := q.Candidate + cfg.Separator
	var conflicts []string
	for id, row := range s.shared.state.table(cfg.Table).rows {
		if id == q.ExcludeID {
			continue
		}
		if q.Type.Scoped() && row[cfg.Scope] != q.Scope {
			continue
		}
		v := row[cfg.SlugColumn]
		if v == q.Candidate || strings.HasPrefix(v, prefix) {
			conflicts = append(conflicts, v)
		}
	}
	if len(conflicts) == 0 {
		return "", nil
	}
	friendlyid.SortConflicts(conflicts)
	return conflicts[0], nil
}

func (s *Store) MissingSlugs(ctx context.Context, t *friendlyid.Type, afterID int64, limit int) ([]friendlyid.Record, error) {
	defer s.lock()()

	cfg := t.Config()
	tbl := s.shared.state.table(cfg.Table)

	owners := make(map[int64]bool)
	if cfg.Mode == friendlyid.ModeHistory {
		for _, e := range s.shared.state.entries {
			if e.Type.Name() == t.Name() {
				owners[e.OwnerID] = true
			}
		}
	}

	var out []friendlyid.Record
	for _, id := range tbl.sortedIDs() {
		if id <= afterID {
			continue
		}
		row := tbl.rows[id]
		if cfg.Mode == friendlyid.ModeHistory && owners[id] {
			continue
		}
		if cfg.Mode == friendlyid.ModeColumn && row[cfg.SlugColumn] != "" {
			continue
		}

		rec := friendlyid.Record{ID: id, Base: row[cfg.Base]}
		if t.Scoped() {
			rec.Scope = row[cfg.Scope]
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CurrentEntry(ctx context.Context, t *friendlyid.Type, ownerID int64) (friendlyid.Entry, error) {
	defer s.lock()()

	var (
		current friendlyid.Entry
		found   bool
	)
	for _, e := range s.shared.state.entries {
		if e.Type.Name() == t.Name() && e.OwnerID == ownerID && (!found || e.ID > current.ID) {
			current, found = e, true
		}
	}
	if !found {
		return friendlyid.Entry{}, friendlyid.ErrRecordNotFound
	}
	return current, nil
}

func (s *Store) InsertEntry(ctx context.Context, e *friendlyid.Entry) error {
	defer s.lock()()

	st := s.shared.state
	if s.entryTaken(*e, 0) {
		return friendlyid.ErrUniqueViolation
	}

	st.nextEntryID++
	e.ID = st.nextEntryID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.shared.now()
	}
	st.entries = append(st.entries, *e)
	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, e friendlyid.Entry) error {
	defer s.lock()()

	st := s.shared.state
	idx := slices.IndexFunc(st.entries, func(x friendlyid.Entry) bool { return x.ID == e.ID })
	if idx < 0 {
		return friendlyid.ErrRecordNotFound
	}
	if s.entryTaken(e, e.ID) {
		return friendlyid.ErrUniqueViolation
	}

	st.entries[idx].Scope = e.Scope
	st.entries[idx].Sequence = e.Sequence
	return nil
}

// entryTaken checks the (slug, type, scope, sequence) index.
// Caller must hold the lock.
func (s *Store) entryTaken(e friendlyid.Entry, skipID int64) bool {
	for _, x := range s.shared.state.entries {
		if x.ID != skipID &&
			x.Type.Name() == e.Type.Name() &&
			x.Slug == e.Slug &&
			x.Scope == e.Scope &&
			x.Sequence == e.Sequence {
			return true
		}
	}
	return false
}

func (s *Store) DeleteEntries(ctx context.Context, t *friendlyid.Type, ownerID int64, slug, scope string) (int64, error) {
	defer s.lock()()

	st := s.shared.state
	before := len(st.entries)
	st.entries = slices.DeleteFunc(st.entries, func(e friendlyid.Entry) bool {
		return e.Type.Name() == t.Name() && e.OwnerID == ownerID && e.Slug == slug && e.Scope == scope
	})
	return int64(before - len(st.entries)), nil
}

func (s *Store) FindEntryOwner(ctx context.Context, t *friendlyid.Type, slug string, seq int, scope friendlyid.ScopeFilter) (int64, error) {
	defer s.lock()()

	var (
		match friendlyid.Entry
		found bool
	)
	for _, e := range s.shared.state.entries {
		if e.Type.Name() != t.Name() || e.Slug != slug || e.Sequence != seq {
			continue
		}
		if t.Scoped() && !scope.Matches(e.Scope) {
			continue
		}
		if !found || e.ID > match.ID {
			match, found = e, true
		}
	}
	if !found {
		return 0, friendlyid.ErrRecordNotFound
	}
	return match.OwnerID, nil
}

func (s *Store) EntriesInScope(ctx context.Context, t *friendlyid.Type, scope string) ([]friendlyid.Entry, error) {
	defer s.lock()()

	var out []friendlyid.Entry
	for _, e := range s.shared.state.entries {
		if e.Type.Name() == t.Name() && e.Scope == scope {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) PurgeEntries(ctx context.Context, t *friendlyid.Type) (int64, error) {
	defer s.lock()()

	st := s.shared.state
	before := len(st.entries)
	st.entries = slices.DeleteFunc(st.entries, func(e friendlyid.Entry) bool {
		return e.Type.Name() == t.Name()
	})
	return int64(before - len(st.entries)), nil
}

func (s *Store) PurgeEntriesBefore(ctx context.Context, t *friendlyid.Type, cutoff time.Time) (int64, error) {
	defer s.lock()()

	st := s.shared.state
	current := make(map[int64]int64)
	for _, e := range st.entries {
		if e.Type.Name() == t.Name() && e.ID > current[e.OwnerID] {
			current[e.OwnerID] = e.ID
		}
	}

	before := len(st.entries)
	st.entries = slices.DeleteFunc(st.entries, func(e friendlyid.Entry) bool {
		return e.Type.Name() == t.Name() && e.CreatedAt.Before(cutoff) && current[e.OwnerID] != e.ID
	})
	return int64(before - len(st.entries)), nil
}

var _ friendlyid.Store = (*Store)(nil)
