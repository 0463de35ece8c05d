package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold case-folds s, drops diacritics and trims surrounding space.
// "Café Bustelo " and "CAFE BUSTELO" fold to the same key.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.TrimSpace(cases.Fold().String(stripped))
}

// CollapseSpaces replaces runs of whitespace with a single space
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
