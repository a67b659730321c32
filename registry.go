package friendlyid

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/friendlyid/pkg/slug"
)

// Type is a registered sluggable type. It is immutable and safe to share.
type Type struct {
	cfg Config
}

// Name returns the type name used at the storage boundary.
func (t *Type) Name() string { return t.cfg.Name }

// Config returns a copy of the type's configuration.
func (t *Type) Config() Config {
	c := t.cfg
	c.ReservedWords = slices.Clone(c.ReservedWords)
	c.SlugOptions = slices.Clone(c.SlugOptions)
	return c
}

// Scoped reports whether uniqueness is partitioned by a scope column.
func (t *Type) Scoped() bool { return t.cfg.Scope != "" }

// Normalize turns a base value into a slug candidate. The result never
// contains the sequence separator and never exceeds MaxLength runes.
func (t *Type) Normalize(base string) (string, error) {
	var s string
	if t.cfg.Normalizer != nil {
		s = t.cfg.Normalizer(base)
	} else {
		opts := append(slices.Clone(t.cfg.SlugOptions), slug.Separator(wordSeparator))
		s, _ = slug.Normalize(base, opts...)
	}

	s = t.stripSeparator(s)
	s = slug.Truncate(s, t.cfg.MaxLength, wordSeparator)
	s = t.stripSeparator(s)
	if strings.TrimSpace(s) == "" {
		return "", &BlankSlugError{Field: t.cfg.Base, Input: base}
	}

	return s, nil
}

// stripSeparator rewrites sequence separators into a single word separator
// and trims word separators at both ends.
func (t *Type) stripSeparator(s string) string {
	for strings.Contains(s, t.cfg.Separator) {
		s = strings.ReplaceAll(s, t.cfg.Separator, wordSeparator)
	}
	return strings.Trim(s, wordSeparator)
}

// CheckReserved returns *ReservedWordError when candidate is a reserved word.
func (t *Type) CheckReserved(candidate string) error {
	if !t.IsReserved(candidate) {
		return nil
	}
	return &ReservedWordError{
		Field:   t.cfg.Base,
		Word:    candidate,
		Message: "can not be " + candidate,
	}
}

// IsReserved reports whether candidate matches a reserved word exactly.
func (t *Type) IsReserved(candidate string) bool {
	return slices.Contains(t.cfg.ReservedWords, candidate)
}

// FormatFriendlyID renders name with this type's separator.
func (t *Type) FormatFriendlyID(name string, seq int) string {
	return FormatFriendlyID(name, seq, t.cfg.Separator)
}

// ParseFriendlyID splits value with this type's separator.
func (t *Type) ParseFriendlyID(value string) (string, int) {
	return ParseFriendlyID(value, t.cfg.Separator)
}

// Registry holds the sluggable types known to an engine.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register validates cfg, fills defaults and adds the type.
func (r *Registry) Register(cfg Config) (*Type, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[cfg.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeRegistered, cfg.Name)
	}

	t := &Type{cfg: cfg}
	r.types[cfg.Name] = t
	return t, nil
}

// MustRegister is like Register but panics on error.
// Intended for package-level setup.
func (r *Registry) MustRegister(cfg Config) *Type {
	t, err := r.Register(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// Types returns all registered types ordered by name.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Type) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// Dependents returns the history-mode types whose scope is parent's friendly id.
func (r *Registry) Dependents(parent *Type) []*Type {
	var out []*Type
	for _, t := range r.Types() {
		if t.cfg.ScopeParent == parent.Name() && t.cfg.Mode == ModeHistory {
			out = append(out, t)
		}
	}
	return out
}
