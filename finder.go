package friendlyid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrymomot/friendlyid/pkg/cache"
)

// Classification is the lexical kind of a lookup value.
type Classification int

const (
	// Ambiguous values look like integers and may be a slug or a primary key.
	Ambiguous Classification = iota

	// DefinitelyNumeric values are primary keys.
	DefinitelyNumeric

	// DefinitelyFriendly values can only be slugs.
	DefinitelyFriendly
)

func (c Classification) String() string {
	switch c {
	case Ambiguous:
		return "ambiguous"
	case DefinitelyNumeric:
		return "numeric"
	case DefinitelyFriendly:
		return "friendly"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// Classify decides how a lookup value is resolved. Integer values and
// records are numeric. Other values are friendly unless their string form
// is exactly the decimal rendering of an integer ("42" is ambiguous,
// "042" and "42abc" are friendly).
func Classify(v any) Classification {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		Record, *Record, Entry, *Entry:
		return DefinitelyNumeric
	}

	s := fmt.Sprint(v)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != s {
		return DefinitelyFriendly
	}
	return Ambiguous
}

// FindOption configures Find and FindMany.
type FindOption func(*findOptions)

type findOptions struct {
	scope    ScopeFilter
	allowNil bool
	offset   int
	limit    int
}

// InScope restricts slug lookups of scoped types to one scope value.
// Without it the first match in any scope is returned.
func InScope(scope string) FindOption {
	return func(o *findOptions) {
		o.scope = ScopeFilter{Value: scope, Set: true}
	}
}

// AllowNil makes Find return (0, nil) instead of *RecordNotFoundError.
func AllowNil() FindOption {
	return func(o *findOptions) {
		o.allowNil = true
	}
}

// WithOffset skips the first n resolved ids in FindMany.
func WithOffset(n int) FindOption {
	return func(o *findOptions) {
		o.offset = max(n, 0)
	}
}

// WithLimit caps the number of ids FindMany returns. Zero means no limit.
func WithLimit(n int) FindOption {
	return func(o *findOptions) {
		o.limit = max(n, 0)
	}
}

func newFindOptions(opts []FindOption) findOptions {
	var o findOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Find resolves v to a primary key of type t.
//
// Friendly values are looked up by slug only, numeric values by primary key
// only. Ambiguous values try the slug first and fall back to the primary key.
func (e *Engine) Find(ctx context.Context, t *Type, v any, opts ...FindOption) (int64, error) {
	o := newFindOptions(opts)

	id, err := e.find(ctx, t, v, o)
	if errors.Is(err, ErrRecordNotFound) && o.allowNil {
		return 0, nil
	}
	return id, err
}

// FindMany resolves every value in vs. Offset and limit apply to the
// resolved ids. It fails with *RecordNotFoundError when fewer ids resolve
// than expected.
func (e *Engine) FindMany(ctx context.Context, t *Type, vs []any, opts ...FindOption) ([]int64, error) {
	o := newFindOptions(opts)

	ids := make([]int64, 0, len(vs))
	for _, v := range vs {
		id, err := e.find(ctx, t, v, o)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	expected := window(len(vs), o.offset, o.limit)
	ids = ids[min(o.offset, len(ids)):]
	if o.limit > 0 && len(ids) > o.limit {
		ids = ids[:o.limit]
	}

	if len(ids) != expected && !o.allowNil {
		inputs := make([]string, len(vs))
		for i, v := range vs {
			inputs[i] = fmt.Sprint(v)
		}
		return nil, &RecordNotFoundError{
			Type:     t.Name(),
			Input:    "(" + strings.Join(inputs, ", ") + ")",
			Field:    t.cfg.IDColumn,
			Expected: expected,
			Found:    len(ids),
		}
	}

	return ids, nil
}

func window(n, offset, limit int) int {
	n = max(n-offset, 0)
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}

func (e *Engine) find(ctx context.Context, t *Type, v any, o findOptions) (int64, error) {
	switch Classify(v) {
	case DefinitelyNumeric:
		id, ok := numericID(v)
		if !ok {
			return 0, &RecordNotFoundError{Type: t.Name(), Input: fmt.Sprint(v), Field: t.cfg.IDColumn}
		}
		return e.findByID(ctx, t, id)

	case DefinitelyFriendly:
		return e.findBySlug(ctx, t, fmt.Sprint(v), o.scope)

	default:
		s := fmt.Sprint(v)
		id, err := e.findBySlug(ctx, t, s, o.scope)
		if !errors.Is(err, ErrRecordNotFound) {
			return id, err
		}
		n, _ := strconv.ParseInt(s, 10, 64)
		return e.findByID(ctx, t, n)
	}
}

func (e *Engine) findByID(ctx context.Context, t *Type, id int64) (int64, error) {
	ok, err := e.store.Exists(ctx, t, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &RecordNotFoundError{
			Type:  t.Name(),
			Input: strconv.FormatInt(id, 10),
			Field: t.cfg.IDColumn,
		}
	}
	return id, nil
}

func (e *Engine) findBySlug(ctx context.Context, t *Type, value string, scope ScopeFilter) (int64, error) {
	if !t.Scoped() {
		scope = ScopeFilter{}
	}

	var (
		id  int64
		err error
	)
	if e.lookups != nil {
		id, err = e.lookups.Resolve(ctx, lookupKey(t, value, scope),
			func(ctx context.Context) (int64, error) {
				return e.lookupSlug(ctx, t, value, scope)
			})
	} else {
		id, err = e.lookupSlug(ctx, t, value, scope)
	}

	if errors.Is(err, ErrRecordNotFound) {
		field := t.cfg.SlugColumn
		if t.cfg.Mode == ModeHistory {
			field = "friendly id"
		}
		return 0, &RecordNotFoundError{Type: t.Name(), Input: value, Field: field}
	}
	return id, err
}

func (e *Engine) lookupSlug(ctx context.Context, t *Type, value string, scope ScopeFilter) (int64, error) {
	if t.cfg.Mode == ModeColumn {
		return e.store.FindByColumn(ctx, ColumnQuery{
			Type:   t,
			Column: t.cfg.SlugColumn,
			Value:  value,
			Scope:  scope,
		})
	}

	if t.cfg.CacheColumn != "" {
		id, err := e.store.FindByColumn(ctx, ColumnQuery{
			Type:   t,
			Column: t.cfg.CacheColumn,
			Value:  value,
			Scope:  scope,
		})
		if !errors.Is(err, ErrRecordNotFound) {
			return id, err
		}
	}

	// "name--1" is not a rendering of sequence 1, so it is looked up verbatim.
	name, seq := t.ParseFriendlyID(value)
	if t.FormatFriendlyID(name, seq) != value {
		name, seq = value, 1
	}

	id, err := e.store.FindEntryOwner(ctx, t, name, seq, scope)
	if err == nil {
		e.logger.DebugContext(ctx, "resolved from slug history",
			slog.String("type", t.Name()),
			slog.String("friendly_id", value),
			slog.Int64("id", id),
		)
	}
	return id, err
}

func lookupKey(t *Type, value string, scope ScopeFilter) cache.Key {
	k := cache.Key{Type: t.Name(), Slug: value}
	if scope.Set {
		k.Scope = "=" + scope.Value
	} else {
		k.Scope = "*"
	}
	return k
}

// numericID converts v to a primary key. It reports false for unsigned
// values that do not fit an int64.
func numericID(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case Record:
		return n.ID, true
	case *Record:
		return n.ID, true
	case Entry:
		return n.OwnerID, true
	case *Entry:
		return n.OwnerID, true
	}
	return 0, true
}
