package slug

import "golang.org/x/text/language"

// Option configures slug generation.
type Option func(*options)

type options struct {
	replacements  map[string]string
	locale        language.Tag
	stripChars    string
	separator     string
	maxLength     int
	lowercase     bool
	transliterate bool
	strictASCII   bool
	stripHTML     bool
}

func defaultOptions() *options {
	return &options{
		locale:        language.Und,
		separator:     "-",
		lowercase:     true,
		transliterate: true,
		strictASCII:   true,
	}
}

func newOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// MaxLength limits the slug length in runes. Zero or negative means unlimited.
// Default: 0.
func MaxLength(n int) Option {
	return func(o *options) {
		o.maxLength = n
	}
}

// Separator sets the string placed between words.
// Default: "-".
func Separator(sep string) Option {
	return func(o *options) {
		o.separator = sep
	}
}

// Lowercase controls the final case folding step.
// Default: true.
func Lowercase(enabled bool) Option {
	return func(o *options) {
		o.lowercase = enabled
	}
}

// StripChars removes every listed character before any other processing.
func StripChars(chars string) Option {
	return func(o *options) {
		o.stripChars = chars
	}
}

// CustomReplace applies literal replacements before transliteration.
// Longer keys are replaced first, so overlapping keys behave predictably.
func CustomReplace(replacements map[string]string) Option {
	return func(o *options) {
		o.replacements = replacements
	}
}

// Locale selects a language-specific transliteration map that is consulted
// before the common table (e.g. German "ü" becomes "ue" instead of "u").
// Unknown languages fall back to the common table.
func Locale(tag language.Tag) Option {
	return func(o *options) {
		o.locale = tag
	}
}

// Transliterate toggles approximation of accented and special letters to ASCII.
// Default: true.
func Transliterate(enabled bool) Option {
	return func(o *options) {
		o.transliterate = enabled
	}
}

// StrictASCII drops every non-ASCII rune left after transliteration.
// Disable it to keep Cyrillic, CJK and other scripts in slugs.
// Default: true.
func StrictASCII(enabled bool) Option {
	return func(o *options) {
		o.strictASCII = enabled
	}
}

// StripHTML removes markup from the input before slugification.
// Default: false.
func StripHTML(enabled bool) Option {
	return func(o *options) {
		o.stripHTML = enabled
	}
}
