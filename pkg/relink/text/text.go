// Package text provides the normalization and n-gram primitives shared by
// the reconciliation pipeline. Matching is exact-token after normalization;
// there is deliberately no fuzzy or edit-distance logic here.
package text

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a string for token comparison: uppercase, with
// spaces, underscores and hyphens removed. Idempotent.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// NGrams returns the normalized n-grams of words: each window of n
// consecutive words joined without separator and passed through Normalize.
// Windows that normalize to the empty string are skipped, so the result has
// at most max(0, len(words)-n+1) entries.
func NGrams(n int, words []string) []string {
	if n <= 0 || len(words) < n {
		return nil
	}
	grams := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		g := Normalize(strings.Join(words[i:i+n], ""))
		if g == "" {
			continue
		}
		grams = append(grams, g)
	}
	return grams
}

// TitleGrams returns the 1- and 2-grams of a whitespace-delimited title,
// the token set used everywhere listings and manufacturer strings are
// tokenized.
func TitleGrams(title string) []string {
	words := strings.Fields(title)
	grams := NGrams(1, words)
	return append(grams, NGrams(2, words)...)
}
