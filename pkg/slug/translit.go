package slug

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// commonTable covers letters that have no canonical decomposition,
// so NFD alone cannot reduce them to ASCII.
var commonTable = map[rune]string{
	'æ': "ae", 'Æ': "AE",
	'ø': "o", 'Ø': "O",
	'œ': "oe", 'Œ': "OE",
	'ß': "ss", 'ẞ': "SS",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "TH",
	'đ': "d", 'Đ': "D",
	'ł': "l", 'Ł': "L",
	'ħ': "h", 'Ħ': "H",
	'ı': "i",
	'ŀ': "l", 'Ŀ': "L",
	'ŋ': "n", 'Ŋ': "N",
	'ŧ': "t", 'Ŧ': "T",
	'ſ': "s",
	'ĸ': "k",
	'ƒ': "f",
}

// localeAliases maps languages onto a shipped table of a close relative.
var localeAliases = map[string]string{
	"no": "nb",
	"nn": "nb",
}

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	localeOnce sync.Once
	localeMaps map[string]map[rune]string
)

// Locales returns the languages that ship a transliteration override map.
func Locales() []language.Tag {
	localeOnce.Do(loadLocales)

	tags := make([]language.Tag, 0, len(localeMaps))
	for name := range localeMaps {
		tags = append(tags, language.Make(name))
	}
	return tags
}

func localeTable(tag language.Tag) map[rune]string {
	if tag == language.Und {
		return nil
	}
	localeOnce.Do(loadLocales)

	base, _ := tag.Base()
	name := base.String()
	if alias, ok := localeAliases[name]; ok {
		name = alias
	}
	return localeMaps[name]
}

func loadLocales() {
	maps, err := parseLocales(localeFS, "locales")
	if err != nil {
		// Embedded at build time; a broken file is a programming error.
		panic(err)
	}
	localeMaps = maps
}

func parseLocales(fsys fs.FS, dir string) (map[string]map[rune]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("slug: read locales: %w", err)
	}

	out := make(map[string]map[rune]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("slug: read locale %q: %w", entry.Name(), err)
		}

		var raw map[string]string
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("slug: parse locale %q: %w", entry.Name(), err)
		}

		table := make(map[rune]string, len(raw))
		for key, value := range raw {
			r, size := utf8.DecodeRuneInString(key)
			if r == utf8.RuneError || size != len(key) {
				return nil, fmt.Errorf("slug: locale %q: key %q must be a single character", entry.Name(), key)
			}
			table[r] = value
		}

		out[strings.TrimSuffix(entry.Name(), ".yaml")] = table
	}

	return out, nil
}

// transliterate applies the locale table, then the common table, then strips
// combining marks from whatever decomposes under NFD.
func transliterate(s string, locale map[rune]string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if rep, ok := locale[r]; ok {
			b.WriteString(rep)
			continue
		}
		if rep, ok := commonTable[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}

	// Transformers keep state, so the chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, b.String())
	if err != nil {
		return b.String()
	}
	return out
}
