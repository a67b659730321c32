package friendlyid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Result describes the outcome of Save or Prepare.
type Result struct {
	// Slug is the normalized text without sequence suffix.
	Slug string

	// Sequence is 1 for the canonical slot, >1 for suffixed slugs.
	Sequence int

	// FriendlyID is Slug with the sequence suffix, if any.
	FriendlyID string

	// Changed reports whether a new slug was (or would be) assigned.
	Changed bool

	// Previous is the friendly id the record had before, if any.
	Previous string
}

// Save assigns a slug to rec when it has none or when its normalized base
// changed, and persists it. Blank and reserved candidates fail before any
// write. A uniqueness violation caused by a concurrent save is retried once.
func (e *Engine) Save(ctx context.Context, t *Type, rec Record) (Result, error) {
	if rec.ID == 0 {
		return Result{}, fmt.Errorf("%w: %s record has no id", ErrInvalidRecord, t.Name())
	}

	candidate, err := e.candidate(t, rec)
	if err != nil {
		return Result{}, err
	}

	var res Result
	attempt := func() error {
		return e.store.Tx(ctx, func(s Store) error {
			r, err := e.With(s).save(ctx, t, rec, candidate)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
	}

	err = attempt()
	if isRetryable(err) {
		e.logger.WarnContext(ctx, "slug claimed concurrently, retrying",
			slog.String("type", t.Name()),
			slog.Int64("id", rec.ID),
			slog.String("candidate", candidate),
			slog.Any("error", err),
		)
		err = attempt()
		if isRetryable(err) {
			return Result{}, errors.Join(ErrSaveFailed, err)
		}
	}
	if err != nil {
		return Result{}, err
	}

	if res.Changed {
		e.logger.DebugContext(ctx, "slug assigned",
			slog.String("type", t.Name()),
			slog.Int64("id", rec.ID),
			slog.String("friendly_id", res.FriendlyID),
			slog.String("previous", res.Previous),
		)
	}
	e.invalidate(ctx, t, res)

	return res, nil
}

// Prepare computes what Save would assign without writing anything.
// Records with a zero ID are treated as new.
func (e *Engine) Prepare(ctx context.Context, t *Type, rec Record) (Result, error) {
	candidate, err := e.candidate(t, rec)
	if err != nil {
		return Result{}, err
	}

	current, err := e.current(ctx, e.store, t, rec)
	if err != nil {
		return Result{}, err
	}
	keep, err := e.keepCurrent(ctx, e.store, t, rec, current, candidate)
	if err != nil {
		return Result{}, err
	}
	if keep {
		return current.result(), nil
	}

	seq, err := e.resolve(ctx, e.store, t, rec, candidate)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Slug:       candidate,
		Sequence:   seq,
		FriendlyID: t.FormatFriendlyID(candidate, seq),
		Changed:    true,
		Previous:   current.fid,
	}, nil
}

// FriendlyID returns the record's current friendly id, or its decimal id
// when it has no slug.
func (e *Engine) FriendlyID(ctx context.Context, t *Type, id int64) (string, error) {
	current, err := e.current(ctx, e.store, t, Record{ID: id})
	if err != nil {
		return "", err
	}
	if current.fid == "" {
		return strconv.FormatInt(id, 10), nil
	}
	return current.fid, nil
}

func (e *Engine) candidate(t *Type, rec Record) (string, error) {
	candidate, err := t.Normalize(rec.Base)
	if err != nil {
		return "", err
	}
	if t.cfg.ReservedPolicy == ReservedReject {
		if err := t.CheckReserved(candidate); err != nil {
			return "", err
		}
	}
	return candidate, nil
}

func (e *Engine) save(ctx context.Context, t *Type, rec Record, candidate string) (Result, error) {
	current, err := e.current(ctx, e.store, t, rec)
	if err != nil {
		return Result{}, err
	}

	keep, err := e.keepCurrent(ctx, e.store, t, rec, current, candidate)
	if err != nil {
		return Result{}, err
	}
	if keep {
		res := current.result()
		return res, e.syncCacheColumn(ctx, e.store, t, rec.ID, res.FriendlyID)
	}

	scope := scopeOf(t, rec.Scope)
	if t.cfg.Mode == ModeHistory {
		// Renaming back to an earlier value reclaims that value's slot.
		if _, err := e.store.DeleteEntries(ctx, t, rec.ID, candidate, scope); err != nil {
			return Result{}, err
		}
	}

	seq, err := e.resolve(ctx, e.store, t, rec, candidate)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Slug:       candidate,
		Sequence:   seq,
		FriendlyID: t.FormatFriendlyID(candidate, seq),
		Changed:    true,
		Previous:   current.fid,
	}

	switch t.cfg.Mode {
	case ModeHistory:
		entry := &Entry{
			Type:      t,
			OwnerID:   rec.ID,
			Slug:      candidate,
			Sequence:  seq,
			Scope:     scope,
			CreatedAt: e.now(),
		}
		if err := e.store.InsertEntry(ctx, entry); err != nil {
			return Result{}, err
		}
	default:
		if err := e.store.CompareAndSetColumn(ctx, t, rec.ID, t.cfg.SlugColumn, current.column, res.FriendlyID); err != nil {
			return Result{}, err
		}
	}

	if err := e.syncCacheColumn(ctx, e.store, t, rec.ID, res.FriendlyID); err != nil {
		return Result{}, err
	}

	if res.Previous != "" && res.Previous != res.FriendlyID {
		if err := e.propagate(ctx, t, res.Previous, res.FriendlyID); err != nil {
			return Result{}, err
		}
	}

	return res, nil
}

// resolve returns the sequence candidate gets among the existing conflicts.
func (e *Engine) resolve(ctx context.Context, s Store, t *Type, rec Record, candidate string) (int, error) {
	top, err := s.LatestConflict(ctx, ConflictQuery{
		Type:      t,
		Candidate: candidate,
		Scope:     scopeOf(t, rec.Scope),
		ExcludeID: rec.ID,
	})
	if err != nil {
		return 0, err
	}

	seq := NextSequence(candidate, top, t.cfg.Separator)
	if seq < 2 && t.IsReserved(candidate) {
		seq = 2
	}
	return seq, nil
}

// currentSlug is what the store holds for a record before a save.
type currentSlug struct {
	fid    string
	name   string
	seq    int
	scope  string
	column string
	entry  bool
}

// keepCurrent reports whether the stored slug still fits the record:
// same normalized text and, for scoped types, still unique in its scope.
func (e *Engine) keepCurrent(ctx context.Context, s Store, t *Type, rec Record, c currentSlug, candidate string) (bool, error) {
	if c.fid == "" || c.name != candidate {
		return false, nil
	}
	if !t.Scoped() {
		return true, nil
	}
	if c.entry {
		return c.scope == rec.Scope, nil
	}
	moved, err := e.columnMoved(ctx, s, t, rec, c.fid)
	return !moved, err
}

func (c currentSlug) result() Result {
	return Result{Slug: c.name, Sequence: c.seq, FriendlyID: c.fid}
}

func (e *Engine) current(ctx context.Context, s Store, t *Type, rec Record) (currentSlug, error) {
	if rec.ID == 0 {
		return currentSlug{}, nil
	}

	if t.cfg.Mode == ModeHistory {
		entry, err := s.CurrentEntry(ctx, t, rec.ID)
		if errors.Is(err, ErrRecordNotFound) {
			return currentSlug{}, nil
		}
		if err != nil {
			return currentSlug{}, err
		}
		return currentSlug{
			fid:   entry.FriendlyID(),
			name:  entry.Slug,
			seq:   entry.Sequence,
			scope: entry.Scope,
			entry: true,
		}, nil
	}

	value, err := s.ReadColumn(ctx, t, rec.ID, t.cfg.SlugColumn)
	if errors.Is(err, ErrRecordNotFound) {
		return currentSlug{}, nil
	}
	if err != nil {
		return currentSlug{}, err
	}
	name, seq := t.ParseFriendlyID(value)
	return currentSlug{fid: value, name: name, seq: seq, column: value}, nil
}

// columnMoved reports whether a column-mode slug now collides with another
// record, which happens when the record moved to another scope.
func (e *Engine) columnMoved(ctx context.Context, s Store, t *Type, rec Record, fid string) (bool, error) {
	if !t.Scoped() {
		return false, nil
	}

	_, err := s.FindByColumn(ctx, ColumnQuery{
		Type:      t,
		Column:    t.cfg.SlugColumn,
		Value:     fid,
		Scope:     ScopeFilter{Value: rec.Scope, Set: true},
		ExcludeID: rec.ID,
	})
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// syncCacheColumn writes fid into the cache column when it differs.
// A concurrent change of the column is re-read and retried once.
func (e *Engine) syncCacheColumn(ctx context.Context, s Store, t *Type, id int64, fid string) error {
	column := t.cfg.CacheColumn
	if column == "" {
		return nil
	}

	for attempt := 0; ; attempt++ {
		cached, err := s.ReadColumn(ctx, t, id, column)
		if err != nil {
			return err
		}
		if cached == fid {
			return nil
		}

		err = s.CompareAndSetColumn(ctx, t, id, column, cached, fid)
		if errors.Is(err, ErrStaleRecord) && attempt == 0 {
			e.logger.DebugContext(ctx, "cache column changed concurrently, reloading",
				slog.String("type", t.Name()),
				slog.Int64("id", id),
			)
			continue
		}
		return err
	}
}

// propagate moves history entries of dependent types from the parent's old
// friendly id to the new one. Entries that collide in the new scope are
// re-sequenced instead of failing the parent's save.
func (e *Engine) propagate(ctx context.Context, parent *Type, from, to string) error {
	for _, dep := range e.registry.Dependents(parent) {
		entries, err := e.store.EntriesInScope(ctx, dep, from)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if err := e.moveEntry(ctx, dep, entry, to); err != nil {
				return err
			}
		}

		if len(entries) > 0 {
			e.logger.DebugContext(ctx, "scope propagated",
				slog.String("type", dep.Name()),
				slog.String("from", from),
				slog.String("to", to),
				slog.Int("entries", len(entries)),
			)
		}
	}
	return nil
}

func (e *Engine) moveEntry(ctx context.Context, t *Type, entry Entry, scope string) error {
	entry.Scope = scope
	err := e.store.Tx(ctx, func(s Store) error {
		return s.UpdateEntry(ctx, entry)
	})
	if !errors.Is(err, ErrUniqueViolation) {
		return err
	}

	top, err := e.store.LatestConflict(ctx, ConflictQuery{
		Type:      t,
		Candidate: entry.Slug,
		Scope:     scope,
	})
	if err != nil {
		return err
	}
	entry.Sequence = NextSequence(entry.Slug, top, t.cfg.Separator)
	if err := e.store.UpdateEntry(ctx, entry); err != nil {
		return err
	}

	e.logger.DebugContext(ctx, "dependent slug re-sequenced",
		slog.String("type", t.Name()),
		slog.Int64("owner_id", entry.OwnerID),
		slog.String("friendly_id", entry.FriendlyID()),
	)

	current, err := e.store.CurrentEntry(ctx, t, entry.OwnerID)
	if err != nil {
		return err
	}
	if current.ID != entry.ID {
		return nil
	}
	return e.syncCacheColumn(ctx, e.store, t, entry.OwnerID, entry.FriendlyID())
}

// invalidate drops lookup cache keys made stale by a committed save.
func (e *Engine) invalidate(ctx context.Context, t *Type, res Result) {
	if e.cache == nil {
		return
	}

	switch {
	case t.Scoped():
		// A record that moves to another scope may keep its slug, and the
		// scope it left is no longer known here.
		e.purgeCache(ctx, t)
	case res.Changed && t.cfg.Mode == ModeColumn && res.Previous != "":
		if err := e.cache.Delete(ctx, lookupKey(t, res.Previous, ScopeFilter{})); err != nil {
			e.logger.WarnContext(ctx, "lookup cache invalidation failed",
				slog.String("type", t.Name()),
				slog.Any("error", err),
			)
		}
	}

	if res.Changed && res.Previous != "" && res.Previous != res.FriendlyID {
		for _, dep := range e.registry.Dependents(t) {
			e.purgeCache(ctx, dep)
		}
	}
}

func (e *Engine) purgeCache(ctx context.Context, t *Type) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Purge(ctx, t.Name()); err != nil {
		e.logger.WarnContext(ctx, "lookup cache purge failed",
			slog.String("type", t.Name()),
			slog.Any("error", err),
		)
	}
}

func scopeOf(t *Type, scope string) string {
	if !t.Scoped() {
		return ""
	}
	return scope
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrUniqueViolation) || errors.Is(err, ErrStaleRecord)
}
