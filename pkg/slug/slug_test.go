package slug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/friendlyid/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		opts     []slug.Option
		expected string
	}{
		{
			name:     "simple text",
			input:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "with punctuation",
			input:    "Hello, World!",
			expected: "hello-world",
		},
		{
			name:     "with numbers",
			input:    "Product 123",
			expected: "product-123",
		},
		{
			name:     "multiple spaces",
			input:    "Too    Many     Spaces",
			expected: "too-many-spaces",
		},
		{
			name:     "leading and trailing spaces",
			input:    "  Trim Me  ",
			expected: "trim-me",
		},
		{
			name:     "punctuation inside words is dropped",
			input:    "Price: $99.99",
			expected: "price-9999",
		},
		{
			name:     "apostrophe joins word",
			input:    "Côte d'Ivoire 2024",
			expected: "cote-divoire-2024",
		},
		{
			name:     "dashes separate words",
			input:    "Sci-Fi",
			expected: "sci-fi",
		},
		{
			name:     "underscores separate words",
			input:    "snake_case_name",
			expected: "snake-case-name",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "only special characters",
			input:    "!@#$%^&*()",
			expected: "",
		},
		{
			name:     "unicode diacritics",
			input:    "Café résumé naïve",
			expected: "cafe-resume-naive",
		},
		{
			name:     "mixed case with lowercase false",
			input:    "Hello World",
			opts:     []slug.Option{slug.Lowercase(false)},
			expected: "Hello-World",
		},
		{
			name:     "custom separator",
			input:    "Hello World",
			opts:     []slug.Option{slug.Separator("_")},
			expected: "hello_world",
		},
		{
			name:     "max length drops dangling separator",
			input:    "This is a very long title that should be truncated",
			opts:     []slug.Option{slug.MaxLength(20)},
			expected: "this-is-a-very-long",
		},
		{
			name:     "max length at word boundary",
			input:    "Cut off cleanly",
			opts:     []slug.Option{slug.MaxLength(7)},
			expected: "cut-off",
		},
		{
			name:     "max length mid word",
			input:    "Cut off cleanly",
			opts:     []slug.Option{slug.MaxLength(10)},
			expected: "cut-off-cl",
		},
		{
			name:     "strip specific characters",
			input:    "Remove (these) [chars]",
			opts:     []slug.Option{slug.StripChars("()[]")},
			expected: "remove-these-chars",
		},
		{
			name:  "custom replacements",
			input: "Fish & Chips @ Home",
			opts: []slug.Option{
				slug.CustomReplace(map[string]string{
					"&": " and ",
					"@": " at ",
				}),
			},
			expected: "fish-and-chips-at-home",
		},
		{
			name:  "longer replacement key wins",
			input: "C++ and C",
			opts: []slug.Option{
				slug.CustomReplace(map[string]string{
					"C":   "c",
					"C++": "cpp",
				}),
			},
			expected: "cpp-and-c",
		},
		{
			name:     "consecutive separators",
			input:    "Too---Many---Dashes",
			expected: "too-many-dashes",
		},
		{
			name:     "german characters",
			input:    "Über Größe straße",
			expected: "uber-grosse-strasse",
		},
		{
			name:     "french characters",
			input:    "Château façade élève",
			expected: "chateau-facade-eleve",
		},
		{
			name:     "spanish characters",
			input:    "Niño español año",
			expected: "nino-espanol-ano",
		},
		{
			name:     "polish characters",
			input:    "Zażółć gęślą jaźń",
			expected: "zazolc-gesla-jazn",
		},
		{
			name:  "all options combined",
			input: "COMPLEX & Test @ 2024!!!",
			opts: []slug.Option{
				slug.Separator("_"),
				slug.Lowercase(false),
				slug.MaxLength(15),
				slug.StripChars("!"),
				slug.CustomReplace(map[string]string{
					"&": "AND",
					"@": "AT",
				}),
			},
			expected: "COMPLEX_AND_Tes",
		},
		{
			name:     "trailing dash removed",
			input:    "Ends with dash-",
			expected: "ends-with-dash",
		},
		{
			name:     "only numbers",
			input:    "123456789",
			expected: "123456789",
		},
		{
			name:     "url with protocol",
			input:    "https://example.com/about us",
			expected: "httpsexamplecomabout-us",
		},
		{
			name:     "emoji stripped",
			input:    "Hello 😀 World 🌍",
			expected: "hello-world",
		},
		{
			name:     "tabs and newlines",
			input:    "Line1\nLine2\tTabbed",
			expected: "line1-line2-tabbed",
		},
		{
			name:     "zero max length",
			input:    "Should not truncate",
			opts:     []slug.Option{slug.MaxLength(0)},
			expected: "should-not-truncate",
		},
		{
			name:     "cyrillic dropped by default",
			input:    "Привет World",
			expected: "world",
		},
		{
			name:     "cyrillic kept without strict ascii",
			input:    "Привет мир",
			opts:     []slug.Option{slug.StrictASCII(false)},
			expected: "привет-мир",
		},
		{
			name:     "accents dropped without transliteration",
			input:    "Café au lait",
			opts:     []slug.Option{slug.Transliterate(false)},
			expected: "caf-au-lait",
		},
		{
			name:     "html stripped",
			input:    "<h1>Hello</h1><p>World &amp; friends</p>",
			opts:     []slug.Option{slug.StripHTML(true)},
			expected: "hello-world-friends",
		},
		{
			name:     "html kept as text by default",
			input:    "<b>Bold</b>",
			expected: "bboldb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, slug.Make(tt.input, tt.opts...))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("returns slug", func(t *testing.T) {
		t.Parallel()
		s, err := slug.Normalize("Hello World")
		require.NoError(t, err)
		assert.Equal(t, "hello-world", s)
	})

	t.Run("blank inputs", func(t *testing.T) {
		t.Parallel()
		for _, input := range []string{"", "   ", "!!!", "---", "😀", "\t\n"} {
			s, err := slug.Normalize(input)
			require.ErrorIs(t, err, slug.ErrBlank, "input %q", input)
			assert.Empty(t, s)
		}
	})

	t.Run("blank after html stripping", func(t *testing.T) {
		t.Parallel()
		_, err := slug.Normalize("<br/><hr>", slug.StripHTML(true))
		require.ErrorIs(t, err, slug.ErrBlank)
	})
}

func TestTransliteration(t *testing.T) {
	t.Parallel()

	inputs := []struct {
		char     string
		expected string
	}{
		{"à", "a"}, {"á", "a"}, {"â", "a"}, {"ã", "a"}, {"ä", "a"}, {"å", "a"},
		{"À", "a"}, {"Á", "a"}, {"Â", "a"}, {"Ã", "a"}, {"Ä", "a"}, {"Å", "a"},
		{"è", "e"}, {"é", "e"}, {"ê", "e"}, {"ë", "e"},
		{"ì", "i"}, {"í", "i"}, {"î", "i"}, {"ï", "i"},
		{"ò", "o"}, {"ó", "o"}, {"ô", "o"}, {"õ", "o"}, {"ö", "o"},
		{"ù", "u"}, {"ú", "u"}, {"û", "u"}, {"ü", "u"},
		{"ñ", "n"}, {"Ñ", "n"},
		{"ç", "c"}, {"Ç", "c"},
		{"ø", "o"}, {"Ø", "o"},
		{"ß", "ss"},
		{"æ", "ae"}, {"Æ", "ae"},
		{"œ", "oe"}, {"Œ", "oe"},
		{"ł", "l"}, {"Ł", "l"},
		{"đ", "d"}, {"ð", "d"},
		{"þ", "th"},
		{"ı", "i"},
	}

	for _, tt := range inputs {
		t.Run(tt.char, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, slug.Make(tt.char))
		})
	}
}

func TestLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		locale   language.Tag
		expected string
	}{
		{
			name:     "german umlauts",
			input:    "Über Größe",
			locale:   language.German,
			expected: "ueber-groesse",
		},
		{
			name:     "german regional variant",
			input:    "Grüße",
			locale:   language.MustParse("de-AT"),
			expected: "gruesse",
		},
		{
			name:     "spanish enye",
			input:    "Niño año",
			locale:   language.Spanish,
			expected: "ninno-anno",
		},
		{
			name:     "danish",
			input:    "Ærø",
			locale:   language.Danish,
			expected: "aeroe",
		},
		{
			name:     "norwegian alias",
			input:    "blåbær",
			locale:   language.Norwegian,
			expected: "blaabaer",
		},
		{
			name:     "swedish",
			input:    "Malmö Åre",
			locale:   language.Swedish,
			expected: "malmoe-aare",
		},
		{
			name:     "turkish",
			input:    "Iğdır",
			locale:   language.Turkish,
			expected: "igdir",
		},
		{
			name:     "turkish case folding stays ascii",
			input:    "ISPARTA",
			locale:   language.Turkish,
			expected: "isparta",
		},
		{
			name:     "locale without table uses common table",
			input:    "Über Größe",
			locale:   language.French,
			expected: "uber-grosse",
		},
		{
			name:     "locale table does not affect other letters",
			input:    "Café Müller",
			locale:   language.German,
			expected: "cafe-mueller",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, slug.Make(tt.input, slug.Locale(tt.locale)))
		})
	}
}

func TestLocales(t *testing.T) {
	t.Parallel()

	names := make([]string, 0)
	for _, tag := range slug.Locales() {
		names = append(names, tag.String())
	}

	assert.ElementsMatch(t, []string{"da", "de", "es", "nb", "sv", "tr"}, names)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		limit    int
		sep      string
		expected string
	}{
		{
			name:     "shorter than limit",
			input:    "abc",
			limit:    10,
			sep:      "-",
			expected: "abc",
		},
		{
			name:     "exact limit",
			input:    "abc-def",
			limit:    7,
			sep:      "-",
			expected: "abc-def",
		},
		{
			name:     "cut after separator",
			input:    "abc-def",
			limit:    4,
			sep:      "-",
			expected: "abc",
		},
		{
			name:     "cut inside multi-char separator",
			input:    "abc--2",
			limit:    4,
			sep:      "--",
			expected: "abc",
		},
		{
			name:     "cut right after multi-char separator",
			input:    "abc--def",
			limit:    5,
			sep:      "--",
			expected: "abc",
		},
		{
			name:     "cut in word after multi-char separator",
			input:    "abc--def",
			limit:    6,
			sep:      "--",
			expected: "abc--d",
		},
		{
			name:     "rune based",
			input:    "привет-мир",
			limit:    7,
			sep:      "-",
			expected: "привет",
		},
		{
			name:     "zero limit disables truncation",
			input:    "abc-def",
			limit:    0,
			sep:      "-",
			expected: "abc-def",
		},
		{
			name:     "negative limit disables truncation",
			input:    "abc-def",
			limit:    -1,
			sep:      "-",
			expected: "abc-def",
		},
		{
			name:     "empty separator",
			input:    "abcdef",
			limit:    3,
			sep:      "",
			expected: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, slug.Truncate(tt.input, tt.limit, tt.sep))
		})
	}
}

func TestMakeConcurrent(t *testing.T) {
	t.Parallel()

	const workers = 16
	done := make(chan string, workers)
	for range workers {
		go func() {
			done <- slug.Make("Größe Ñandú", slug.Locale(language.German), slug.StripHTML(true))
		}()
	}

	for range workers {
		assert.Equal(t, "groesse-nandu", <-done)
	}
}

func TestMakeNeverContainsDoubleDash(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"a -- b",
		"a--b",
		"- - -a- - -",
		"foo – bar — baz",
	}
	for _, input := range inputs {
		assert.False(t, strings.Contains(slug.Make(input), "--"), "input %q", input)
	}
}

func BenchmarkMake(b *testing.B) {
	testCases := []struct {
		name  string
		input string
		opts  []slug.Option
	}{
		{
			name:  "simple",
			input: "Hello World",
		},
		{
			name:  "with_diacritics",
			input: "Café résumé naïve",
		},
		{
			name:  "long_text",
			input: "This is a very long title that contains many words and should test the performance of the slug generation",
		},
		{
			name:  "with_options",
			input: "Complex & Test @ 2024",
			opts: []slug.Option{
				slug.MaxLength(20),
				slug.CustomReplace(map[string]string{"&": "and", "@": "at"}),
			},
		},
		{
			name:  "with_locale",
			input: "Ñoño español año château façade über größe",
			opts:  []slug.Option{slug.Locale(language.German)},
		},
		{
			name:  "with_html",
			input: "<p>Some <b>bold</b> text</p>",
			opts:  []slug.Option{slug.StripHTML(true)},
		},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = slug.Make(tc.input, tc.opts...)
			}
		})
	}
}

func BenchmarkMakeParallel(b *testing.B) {
	input := "This is a sample text with some special characters: !@#$%"
	opts := []slug.Option{slug.MaxLength(50)}

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = slug.Make(input, opts...)
		}
	})
}
