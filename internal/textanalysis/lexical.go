package textanalysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	maxSentences       = 20
	minSentenceLength  = 10
	maxSentenceLength  = 200
	minWordLength      = 3
	defaultKeywordsMax = 10
)

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]+`)
	nonWordChars     = regexp.MustCompile(`[^\w\s]`)
)

// ExtractSentences splits text on runs of terminal punctuation and keeps the
// first 20 trimmed sentences whose length lies strictly between 10 and 200.
func ExtractSentences(text string) []string {
	sentences := make([]string, 0, maxSentences)
	for _, part := range sentenceBoundary.Split(text, -1) {
		s := strings.TrimSpace(part)
		n := utf8.RuneCountInString(s)
		if n <= minSentenceLength || n >= maxSentenceLength {
			continue
		}
		sentences = append(sentences, s)
		if len(sentences) == maxSentences {
			break
		}
	}
	return sentences
}

// ExtractWords lowercases text, strips punctuation and returns the tokens
// longer than three characters that are not stop words.
func ExtractWords(text string) []string {
	return filterWords(text, minWordLength)
}

// ExtractKeywords ranks ExtractWords by frequency. Ties keep first-seen order.
func ExtractKeywords(text string, max int) []string {
	return RankByFrequency(ExtractWords(text), max)
}

// RankByFrequency returns up to max distinct words ordered by descending
// count, ties broken by first occurrence. max <= 0 selects the default of 10.
func RankByFrequency(words []string, max int) []string {
	if max <= 0 {
		max = defaultKeywordsMax
	}

	counts := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > max {
		order = order[:max]
	}
	return order
}

// Tokenize lowercases text, strips punctuation and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(nonWordChars.ReplaceAllString(strings.ToLower(text), ""))
}

func filterWords(text string, minLen int) []string {
	tokens := Tokenize(text)
	words := tokens[:0]
	for _, tok := range tokens {
		if len(tok) <= minLen || IsStopWord(tok) {
			continue
		}
		words = append(words, tok)
	}
	return words
}

// ExtractLongWords is ExtractWords with a custom minimum length, used where
// representative keywords must be longer than the default cut.
func ExtractLongWords(text string, minLen int) []string {
	return filterWords(text, minLen)
}
