package slug

import (
	"cmp"
	"errors"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrBlank is returned by Normalize when nothing usable is left of the input.
var ErrBlank = errors.New("slug: blank result")

// Make converts input into a URL-safe slug.
// It returns an empty string when the input has no letters or digits.
func Make(input string, opts ...Option) string {
	s, _ := Normalize(input, opts...)
	return s
}

// Normalize converts input into a URL-safe slug.
//
// Processing order: HTML stripping, custom replacements, character stripping,
// transliteration, strict ASCII filtering, word splitting, case folding and
// truncation. Returns ErrBlank when the result is empty.
func Normalize(input string, opts ...Option) (string, error) {
	o := newOptions(opts)

	s := input
	if o.stripHTML {
		s = stripHTML(s)
	}
	if len(o.replacements) > 0 {
		s = replace(s, o.replacements)
	}
	if o.stripChars != "" {
		s = strings.Map(func(r rune) rune {
			if strings.ContainsRune(o.stripChars, r) {
				return -1
			}
			return r
		}, s)
	}
	if o.transliterate {
		s = transliterate(s, localeTable(o.locale))
	}
	if o.strictASCII {
		s = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, s)
	}

	s = joinWords(s, o.separator)

	// Locale-free: Turkish folding maps "I" to a dotless "ı" after the
	// ASCII filter has run.
	if o.lowercase {
		s = cases.Lower(language.Und).String(s)
	}

	s = Truncate(s, o.maxLength, o.separator)
	if s == "" {
		return "", ErrBlank
	}

	return s, nil
}

// Truncate shortens s to at most limit runes. A cut that lands inside or right
// after a separator drops the whole separator, so the result never ends with
// a partial or dangling separator. Zero or negative limit disables truncation.
func Truncate(s string, limit int, sep string) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	cut := 0
	for range limit {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}

	if sep != "" {
		for from := 0; from < cut; {
			idx := strings.Index(s[from:], sep)
			if idx < 0 {
				break
			}
			start := from + idx
			if start >= cut {
				break
			}
			if cut <= start+len(sep) {
				cut = start
				break
			}
			from = start + len(sep)
		}
	}

	out := s[:cut]
	if sep != "" {
		for strings.HasSuffix(out, sep) {
			out = strings.TrimSuffix(out, sep)
		}
	}

	return out
}

// joinWords keeps letters, digits and combining marks, treats whitespace,
// dashes and connector punctuation as word boundaries, and drops everything
// else. Boundaries at either end are discarded and runs collapse into one
// separator.
func joinWords(s, sep string) string {
	var b strings.Builder
	b.Grow(len(s))

	boundary := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if boundary && b.Len() > 0 {
				b.WriteString(sep)
			}
			boundary = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.In(r, unicode.Pd, unicode.Pc):
			boundary = true
		}
	}

	return b.String()
}

func replace(s string, replacements map[string]string) string {
	keys := slices.SortedFunc(maps.Keys(replacements), func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		if k == "" {
			continue
		}
		pairs = append(pairs, k, replacements[k])
	}

	return strings.NewReplacer(pairs...).Replace(s)
}
