package redaction

import "strings"

// NormalizeWhitespace collapses every run of whitespace to a single space and
// trims both ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Similarity scores candidate against reference as a percentage in [0, 100].
//
// Both inputs are whitespace-normalized first so that formatting-only
// differences do not count. An empty reference scores 0: there is nothing to
// compare against.
func Similarity(reference, candidate string) float64 {
	a := NormalizeWhitespace(reference)
	b := NormalizeWhitespace(candidate)

	if len(a) == 0 {
		return 0
	}

	dist := Levenshtein(a, b)
	maxLen := max(len(a), len(b))

	return max(0, float64(maxLen-dist)/float64(maxLen)*100)
}
