package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper decomposes characters and removes combining marks, so
// "Müller" and "Muller" normalize to the same comparison form.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ComparisonName converts a free-text name into its canonical comparison form:
// lowercase, diacritics stripped, punctuation replaced with spaces, whitespace
// collapsed. Returns "" for input that contains no letters or digits.
func ComparisonName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	stripped, _, err := transform.String(diacriticStripper, name)
	if err == nil {
		name = stripped
	}
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits a comparison name into its whitespace-separated tokens.
func Tokens(comparisonName string) []string {
	return strings.Fields(comparisonName)
}
