// Package slug converts arbitrary text into URL-safe slug candidates.
//
// Normalization runs in a fixed order: optional HTML stripping, custom
// replacements, character stripping, transliteration to ASCII, strict ASCII
// filtering, word splitting, case folding and truncation. Letters and digits
// are kept, whitespace and dashes separate words, everything else is dropped.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/friendlyid/pkg/slug"
//
//	s := slug.Make("Hello, World!")
//	// Output: "hello-world"
//
//	s = slug.Make("Café résumé")
//	// Output: "cafe-resume"
//
// Normalize reports a blank result as an error instead of an empty string:
//
//	s, err := slug.Normalize("!!!")
//	// err: slug.ErrBlank
//
// # Transliteration
//
// Accented letters are reduced to their base letter through Unicode
// decomposition. Letters without a decomposition (ß, æ, ø, ł, ...) use a
// common replacement table. A locale map is consulted first when a locale is
// configured:
//
//	slug.Make("Über Größe")                                // "uber-grosse"
//	slug.Make("Über Größe", slug.Locale(language.German))  // "ueber-groesse"
//	slug.Make("Niño", slug.Locale(language.Spanish))       // "ninno"
//
// Locales lists the languages with a shipped override map.
//
// Scripts that cannot be approximated in ASCII (Cyrillic, CJK, ...) are
// dropped unless StrictASCII(false) is set:
//
//	slug.Make("Привет мир", slug.StrictASCII(false))  // "привет-мир"
//
// # Truncation
//
// MaxLength limits the result in runes. Truncate never leaves a partial or
// trailing separator behind, for single and multi-character separators alike:
//
//	slug.Truncate("abc--2", 4, "--")  // "abc"
package slug
