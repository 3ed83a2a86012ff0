// Package grader decides whether a spoken answer matches an expected
// one-word answer. Matching is permissive on purpose: any containment or
// shared prefix/suffix between words counts as correct.
package grader

import (
	"strings"

	"flashvoice-backend/internal/textanalysis"
)

// ValidateAnswer applies, in order: exact match, containment either way,
// then a cross-word similarity check. The first rule that succeeds wins.
func ValidateAnswer(userAnswer, expected string) bool {
	user := normalize(userAnswer)
	want := normalize(expected)
	if user == "" || want == "" {
		return false
	}

	if user == want {
		return true
	}

	if strings.Contains(user, want) || strings.Contains(want, user) {
		return true
	}

	for _, u := range strings.Fields(user) {
		for _, w := range strings.Fields(want) {
			if similar(u, w) {
				return true
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func similar(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a) ||
		strings.HasPrefix(a, b) || strings.HasPrefix(b, a) ||
		strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}

const (
	minKeywordLength = 4
	defaultKeywords  = 5
)

// Keywords returns the most frequent words longer than four characters,
// ties in first-seen order. max <= 0 selects five.
func Keywords(text string, max int) []string {
	if max <= 0 {
		max = defaultKeywords
	}
	return textanalysis.RankByFrequency(textanalysis.ExtractLongWords(text, minKeywordLength), max)
}
