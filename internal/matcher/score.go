// Package matcher scores scanned items against receipt lines and assigns
// lines to items.
package matcher

import (
	"strings"
	"unicode"
)

const (
	minScannedToken = 3
	minReceiptToken = 2
	prefixLen       = 3
)

// Tokenize lower-cases s, drops non-alphanumeric runes and splits on whitespace,
// keeping tokens of at least minLen runes.
func Tokenize(s string, minLen int) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, f := range strings.Fields(b.String()) {
		if len([]rune(f)) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Score rates how well a receipt description matches a scanned item, in [0,1].
// Each scanned token earns a full point for an equal or contained receipt token
// and half a point for an abbreviation (shared three letter prefix, or a receipt
// token spelling the scanned token's letters in order, like BLK for BLACK).
func Score(brand, name, description string) float64 {
	scanned := Tokenize(strings.TrimSpace(brand+" "+name), minScannedToken)
	receipt := Tokenize(description, minReceiptToken)

	var sum float64
	for _, st := range scanned {
		sum += tokenPoints(st, receipt)
	}

	n := len(scanned)
	if n < 1 {
		n = 1
	}
	return sum / float64(n)
}

func tokenPoints(scanned string, receipt []string) float64 {
	best := 0.0
	for _, rt := range receipt {
		if rt == scanned || strings.Contains(rt, scanned) || strings.Contains(scanned, rt) {
			return 1
		}
		if sharesPrefix(scanned, rt) || isAbbreviation(rt, scanned) {
			best = 0.5
		}
	}
	return best
}

func sharesPrefix(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < prefixLen || len(rb) < prefixLen {
		return false
	}
	return string(ra[:prefixLen]) == string(rb[:prefixLen])
}

// isAbbreviation reports whether abbr keeps word's first letter and the rest
// of its letters appear in word in order.
func isAbbreviation(abbr, word string) bool {
	a, w := []rune(abbr), []rune(word)
	if len(a) < minReceiptToken || len(a) >= len(w) || a[0] != w[0] {
		return false
	}
	i := 1
	for _, r := range w[1:] {
		if i < len(a) && a[i] == r {
			i++
		}
	}
	return i == len(a)
}
