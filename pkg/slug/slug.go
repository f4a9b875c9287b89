// Package slug turns free text into URL-safe path segments and picks the
// best slug for a catalog item from its candidate fields.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts text into a lower-case token made of [a-z0-9-].
//
// Accented letters are decomposed (NFD) and their combining marks dropped,
// so "Café" becomes "cafe". Every run of other characters collapses into a
// single hyphen and leading/trailing hyphens are trimmed. Returns "" for
// empty input or input with no alphanumeric characters.
func Slugify(text string) string {
	if text == "" {
		return ""
	}

	// Transformer chains keep internal state, build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, text)
	if err != nil {
		// Best-effort ASCII path, diacritics are lost instead of folded.
		stripped = text
	}

	return hyphenate(stripped)
}

// hyphenate keeps ASCII letters and digits, lower-cased, and replaces each
// maximal run of anything else with one hyphen. No leading, trailing or
// doubled hyphens survive.
func hyphenate(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pending := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('-')
		}
		pending = false
		b.WriteRune(r)
	}

	return b.String()
}
