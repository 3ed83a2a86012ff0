package summarizer

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"flashvoice-backend/internal/textanalysis"
)

const (
	maxAnswerLength   = 120
	maxQuestionWord   = 15
	wordsPerSecond    = 3
	genericQuestion   = "What is this about?"
	definitionalVerbs = `is|are|was|were|means|refers to|describes|defines`
)

var (
	definitionalSubject = regexp.MustCompile(`(?i)^(.*?)\b(` + definitionalVerbs + `)\b`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// MakeQuestion turns a statement into a question. It always returns one.
func MakeQuestion(sentence string) string {
	if m := definitionalSubject.FindStringSubmatch(sentence); m != nil && m[1] != "" {
		if subject := strings.TrimSpace(m[1]); subject != "" {
			return "What is " + subject + "?"
		}
	}
	firstWord := strings.SplitN(sentence, " ", 2)[0]
	if firstWord != "" && len([]rune(firstWord)) < maxQuestionWord {
		return "What about " + firstWord + "?"
	}
	return genericQuestion
}

// Simplify rewrites a sentence into plainer English using the ordered rule
// table, then collapses whitespace and caps it at 120 characters.
func Simplify(sentence string) string {
	result := sentence
	for _, rule := range simplifyRules {
		result = rule.pattern.ReplaceAllLiteralString(result, rule.replacement)
	}
	result = strings.TrimSpace(whitespaceRun.ReplaceAllString(result, " "))
	return truncate(result, maxAnswerLength)
}

// ReadingTime estimates screen-reader time at three words per second.
func ReadingTime(text string) string {
	words := len(whitespaceRun.Split(text, -1))
	seconds := int(math.Max(1, math.Round(float64(words)/wordsPerSecond)))
	return fmt.Sprintf("%d sec", seconds)
}

func ShortDefinition(term string) string {
	if def, ok := shortDefinitions[strings.ToLower(term)]; ok {
		return def
	}
	return term + ": technical concept"
}

// DefinitionAnswer prefers a sentence of the text that mentions term and
// falls back to the built-in definition table.
func DefinitionAnswer(term, text string) string {
	lowerTerm := strings.ToLower(term)
	for _, s := range textanalysis.ExtractSentences(text) {
		if strings.Contains(strings.ToLower(s), lowerTerm) {
			return s
		}
	}
	if def, ok := fallbackDefinitions[lowerTerm]; ok {
		return def
	}
	return term + " is a technical concept used in software development."
}

// truncate caps s at max runes, replacing the tail with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
