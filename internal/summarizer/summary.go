package summarizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	noContentSummary = "No content available for summarization."
	tooShortSummary  = "Content extracted but too short for meaningful summary."
	maxSummaryLength = 200
	maxKeyPointChars = 80
)

var (
	fillerWords    = regexp.MustCompile(`(?i)\b(this|that|these|those|it|they|them)\b`)
	copulaArticle  = regexp.MustCompile(`(?i)\b(is|are|was|were)\s+(a|an|the)\s+`)
	demonstratives = regexp.MustCompile(`(?i)\b(this|that|these|those)\b`)
)

func selectByLength(sentences []string, min, max, limit int) []string {
	out := make([]string, 0, limit)
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if n <= min || n >= max {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// SummaryText condenses up to three mid-length sentences. Never empty.
func SummaryText(sentences []string) string {
	if len(sentences) == 0 {
		return noContentSummary
	}

	picked := selectByLength(sentences, 20, 120, 3)
	if len(picked) == 0 {
		if sentences[0] != "" {
			return sentences[0]
		}
		return tooShortSummary
	}

	parts := make([]string, len(picked))
	for i, s := range picked {
		s = fillerWords.ReplaceAllString(s, "")
		s = copulaArticle.ReplaceAllString(s, "is ")
		parts[i] = collapse(s)
	}

	summary := strings.Join(parts, ". ")
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return truncate(summary, maxSummaryLength)
}

// KeyPoints returns up to four short sentences, each cut to 80 characters.
func KeyPoints(sentences []string) []string {
	picked := selectByLength(sentences, 20, 100, 4)
	points := make([]string, len(picked))
	for i, s := range picked {
		p := []rune(collapse(demonstratives.ReplaceAllString(s, "")))
		if len(p) > maxKeyPointChars {
			p = p[:maxKeyPointChars]
		}
		points[i] = string(p)
	}
	return points
}
