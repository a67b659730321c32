package pgstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/friendlyid"
	"github.com/dmitrymomot/friendlyid/pkg/db"
)

// Querier is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is a friendlyid.Store backed by PostgreSQL.
type Store struct {
	q       Querier
	history string
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
// Default: logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistoryTable sets the slug history table name. The table must have
// the layout created by Migrate.
// Default: "friendly_id_slugs".
func WithHistoryTable(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.history = name
		}
	}
}

// New returns a store running its queries on q.
func New(q Querier, opts ...Option) *Store {
	s := &Store{
		q:       q,
		history: HistoryTable,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) with(q Querier) *Store {
	c := *s
	c.q = q
	return &c
}

// Tx runs fn in a transaction, or in a savepoint when the store is already
// bound to one.
func (s *Store) Tx(ctx context.Context, fn func(friendlyid.Store) error) error {
	return db.WithTx(ctx, s.q, func(tx pgx.Tx) error {
		return fn(s.with(tx))
	})
}

func (s *Store) ReadColumn(ctx context.Context, t *friendlyid.Type, id int64, column string) (string, error) {
	cfg := t.Config()
	query := fmt.Sprintf(`SELECT COALESCE(%s::text, '') FROM %s WHERE %s = $1`,
		ident(column), ident(cfg.Table), ident(cfg.IDColumn))

	var value string
	if err := s.q.QueryRow(ctx, query, id).Scan(&value); err != nil {
		return "", s.mapErr(ctx, t, err)
	}
	return value, nil
}

func (s *Store) CompareAndSetColumn(ctx context.Context, t *friendlyid.Type, id int64, column, expected, value string) error {
	cfg := t.Config()
	query := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = NULLIF($1, '') WHERE %[3]s = $2 AND COALESCE(%[2]s::text, '') = $3`,
		ident(cfg.Table), ident(column), ident(cfg.IDColumn))

	tag, err := s.q.Exec(ctx, query, value, id, expected)
	if err != nil {
		return s.mapErr(ctx, t, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	ok, err := s.Exists(ctx, t, id)
	if err != nil {
		return err
	}
	if !ok {
		return friendlyid.ErrRecordNotFound
	}
	return friendlyid.ErrStaleRecord
}

func (s *Store) FindByColumn(ctx context.Context, q friendlyid.ColumnQuery) (int64, error) {
	cfg := q.Type.Config()

	w := where{}
	w.add(ident(q.Column)+"::text = %s", q.Value)
	if q.Type.Scoped() && q.Scope.Set {
		w.add("COALESCE("+ident(cfg.Scope)+"::text, '') = %s", q.Scope.Value)
	}
	if q.ExcludeID != 0 {
		w.add(ident(cfg.IDColumn)+" <> %s", q.ExcludeID)
	}

	query := fmt.Sprintf(`SELECT %[1]s FROM %[2]s WHERE %[3]s ORDER BY %[1]s LIMIT 1`,
		ident(cfg.IDColumn), ident(cfg.Table), w.sql())

	var id int64
	if err := s.q.QueryRow(ctx, query, w.args...).Scan(&id); err != nil {
		return 0, s.mapErr(ctx, q.Type, err)
	}
	return id, nil
}

func (s *Store) Exists(ctx context.Context, t *friendlyid.Type, id int64) (bool, error) {
	cfg := t.Config()
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, ident(cfg.Table), ident(cfg.IDColumn))

	var ok bool
	if err := s.q.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) LatestConflict(ctx context.Context, q friendlyid.ConflictQuery) (string, error) {
	cfg := q.Type.Config()

	if cfg.Mode == friendlyid.ModeHistory {
		query := fmt.Sprintf(`SELECT COALESCE(MAX(sequence), 0) FROM %s
			WHERE sluggable_type = $1 AND slug = $2 AND scope = $3 AND sluggable_id <> $4`, ident(s.history))

		var seq int
		if err := s.q.QueryRow(ctx, query, q.Type.Name(), q.Candidate, q.Scope, q.ExcludeID).Scan(&seq); err != nil {
			return "", err
		}
		if seq == 0 {
			return "", nil
		}
		return q.Type.FormatFriendlyID(q.Candidate, seq), nil
	}

	slugCol := ident(cfg.SlugColumn)
	w := where{}
	w.add("("+slugCol+"::text = %[1]s OR "+slugCol+"::text LIKE %[2]s ESCAPE '\\')",
		q.Candidate, EscapeLike(q.Candidate+cfg.Separator)+"%")
	if q.Type.Scoped() {
		w.add("COALESCE("+ident(cfg.Scope)+"::text, '') = %s", q.Scope)
	}
	if q.ExcludeID != 0 {
		w.add(ident(cfg.IDColumn)+" <> %s", q.ExcludeID)
	}

	query := fmt.Sprintf(`SELECT %[1]s::text FROM %[2]s WHERE %[3]s
		ORDER BY OCTET_LENGTH(%[1]s::text) DESC, %[1]s::text COLLATE "C" DESC LIMIT 1`,
		slugCol, ident(cfg.Table), w.sql())

	var top string
	err := s.q.QueryRow(ctx, query, w.args...).Scan(&top)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return top, nil
}

func (s *Store) MissingSlugs(ctx context.Context, t *friendlyid.Type, afterID int64, limit int) ([]friendlyid.Record, error) {
	cfg := t.Config()

	scopeExpr := "''"
	if t.Scoped() {
		scopeExpr = "COALESCE(r." + ident(cfg.Scope) + "::text, '')"
	}

	w := where{}
	w.add("r."+ident(cfg.IDColumn)+" > %s", afterID)
	if cfg.Mode == friendlyid.ModeHistory {
		w.add(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s h WHERE h.sluggable_type = %%s AND h.sluggable_id = r.%s)",
			ident(s.history), ident(cfg.IDColumn)), t.Name())
	} else {
		w.add("COALESCE(r."+ident(cfg.SlugColumn)+"::text, '') = %s", "")
	}

	query := fmt.Sprintf(`SELECT r.%[1]s, COALESCE(r.%[2]s::text, ''), %[3]s FROM %[4]s r WHERE %[5]s ORDER BY r.%[1]s`,
		ident(cfg.IDColumn), ident(cfg.Base), scopeExpr, ident(cfg.Table), w.sql())
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (friendlyid.Record, error) {
		var rec friendlyid.Record
		err := row.Scan(&rec.ID, &rec.Base, &rec.Scope)
		return rec, err
	})
}

const entryColumns = `id, sluggable_id, slug, sequence, scope, created_at`

func scanEntry(t *friendlyid.Type) pgx.RowToFunc[friendlyid.Entry] {
	return func(row pgx.CollectableRow) (friendlyid.Entry, error) {
		e := friendlyid.Entry{Type: t}
		err := row.Scan(&e.ID, &e.OwnerID, &e.Slug, &e.Sequence, &e.Scope, &e.CreatedAt)
		return e, err
	}
}

func (s *Store) CurrentEntry(ctx context.Context, t *friendlyid.Type, ownerID int64) (friendlyid.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE sluggable_type = $1 AND sluggable_id = $2 ORDER BY id DESC LIMIT 1`,
		entryColumns, ident(s.history))

	rows, err := s.q.Query(ctx, query, t.Name(), ownerID)
	if err != nil {
		return friendlyid.Entry{}, err
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry(t))
	if err != nil {
		return friendlyid.Entry{}, s.mapErr(ctx, t, err)
	}
	return e, nil
}

func (s *Store) InsertEntry(ctx context.Context, e *friendlyid.Entry) error {
	query := fmt.Sprintf(`INSERT INTO %s (slug, sluggable_type, sluggable_id, sequence, scope, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, NOW()))
		RETURNING id, created_at`, ident(s.history))

	var createdAt *time.Time
	if !e.CreatedAt.IsZero() {
		createdAt = &e.CreatedAt
	}

	err := s.q.QueryRow(ctx, query, e.Slug, e.Type.Name(), e.OwnerID, e.Sequence, e.Scope, createdAt).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return s.mapErr(ctx, e.Type, err)
	}
	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, e friendlyid.Entry) error {
	query := fmt.Sprintf(`UPDATE %s SET scope = $1, sequence = $2 WHERE id = $3`, ident(s.history))

	tag, err := s.q.Exec(ctx, query, e.Scope, e.Sequence, e.ID)
	if err != nil {
		return s.mapErr(ctx, e.Type, err)
	}
	if tag.RowsAffected() == 0 {
		return friendlyid.ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteEntries(ctx context.Context, t *friendlyid.Type, ownerID int64, slug, scope string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE sluggable_type = $1 AND sluggable_id = $2 AND slug = $3 AND scope = $4`,
		ident(s.history))

	tag, err := s.q.Exec(ctx, query, t.Name(), ownerID, slug, scope)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) FindEntryOwner(ctx context.Context, t *friendlyid.Type, slug string, seq int, scope friendlyid.ScopeFilter) (int64, error) {
	w := where{}
	w.add("sluggable_type = %s", t.Name())
	w.add("slug = %s", slug)
	w.add("sequence = %s", seq)
	if t.Scoped() && scope.Set {
		w.add("scope = %s", scope.Value)
	}

	query := fmt.Sprintf(`SELECT sluggable_id FROM %s WHERE %s ORDER BY id DESC LIMIT 1`, ident(s.history), w.sql())

	var owner int64
	if err := s.q.QueryRow(ctx, query, w.args...).Scan(&owner); err != nil {
		return 0, s.mapErr(ctx, t, err)
	}
	return owner, nil
}

func (s *Store) EntriesInScope(ctx context.Context, t *friendlyid.Type, scope string) ([]friendlyid.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE sluggable_type = $1 AND scope = $2 ORDER BY id`,
		entryColumns, ident(s.history))

	rows, err := s.q.Query(ctx, query, t.Name(), scope)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEntry(t))
}

func (s *Store) PurgeEntries(ctx context.Context, t *friendlyid.Type) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE sluggable_type = $1`, ident(s.history))

	tag, err := s.q.Exec(ctx, query, t.Name())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) PurgeEntriesBefore(ctx context.Context, t *friendlyid.Type, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %[1]s
		WHERE sluggable_type = $1 AND created_at < $2
		  AND id NOT IN (SELECT MAX(id) FROM %[1]s WHERE sluggable_type = $1 GROUP BY sluggable_id)`,
		ident(s.history))

	tag, err := s.q.Exec(ctx, query, t.Name(), cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// mapErr translates pgx errors into the engine's sentinels.
func (s *Store) mapErr(ctx context.Context, t *friendlyid.Type, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return friendlyid.ErrRecordNotFound
	case db.IsUniqueViolation(err):
		s.logger.DebugContext(ctx, "unique constraint violated",
			slog.String("type", t.Name()),
			slog.Any("error", err),
		)
		return errors.Join(friendlyid.ErrUniqueViolation, err)
	default:
		return err
	}
}

// ident quotes a possibly schema-qualified identifier.
func ident(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// EscapeLike escapes the LIKE metacharacters %, _ and \ in s.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where collects AND-ed conditions with positional arguments. Each %s (or
// indexed %[n]s) verb in a condition is replaced by the next placeholder.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	placeholders := make([]any, len(args))
	for i, arg := range args {
		w.args = append(w.args, arg)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.conds = append(w.conds, fmt.Sprintf(cond, placeholders...))
}

func (w *where) sql() string {
	return strings.Join(w.conds, " AND ")
}

var _ friendlyid.Store = (*Store)(nil)
