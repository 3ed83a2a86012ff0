package textanalysis

import (
	"math"
	"strings"

	"flashvoice-backend/internal/models"
)

const (
	maxTopics    = 3
	generalTopic = "General"
)

type topicRule struct {
	label string
	match func(lower string) bool
}

func containsAny(lower string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

var topicRules = []topicRule{
	{"Programming", func(lower string) bool { return containsAny(lower, TechnicalTerms...) }},
	{"Software Development", func(lower string) bool {
		for _, c := range ProgrammingConcepts {
			if strings.Contains(lower, strings.ToLower(c)) {
				return true
			}
		}
		return false
	}},
	{"APIs", func(lower string) bool { return containsAny(lower, "api", "endpoint") }},
	{"Databases", func(lower string) bool { return containsAny(lower, "database", "sql", "query") }},
	{"Frontend Frameworks", func(lower string) bool { return containsAny(lower, "react", "vue", "angular") }},
	{"Backend Development", func(lower string) bool { return containsAny(lower, "node", "express", "server") }},
	{"Testing", func(lower string) bool { return containsAny(lower, "test", "testing", "unit") }},
	{"Deployment", func(lower string) bool { return containsAny(lower, "deploy", "production", "hosting") }},
	{"Security", func(lower string) bool { return containsAny(lower, "security", "authentication", "encryption") }},
}

// IdentifyTopics returns at most three topic labels in rule order, or
// "General" when no rule matches.
func IdentifyTopics(text string) []string {
	lower := strings.ToLower(text)
	topics := make([]string, 0, maxTopics)
	for _, rule := range topicRules {
		if rule.match(lower) {
			topics = append(topics, rule.label)
			if len(topics) == maxTopics {
				break
			}
		}
	}
	if len(topics) == 0 {
		topics = append(topics, generalTopic)
	}
	return topics
}

// CountTechnicalTerms counts distinct technical terms appearing in text.
func CountTechnicalTerms(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, term := range TechnicalTerms {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}

// FirstTechnicalTerm returns the first technical term, in list order, found
// anywhere in text.
func FirstTechnicalTerm(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, term := range TechnicalTerms {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

// AverageWordLength is the mean length of ExtractWords(text), 0 for no words.
func AverageWordLength(text string) float64 {
	words := ExtractWords(text)
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return float64(total) / float64(len(words))
}

// ScoreDifficulty combines the three signals into the 0..6 difficulty score.
func ScoreDifficulty(avgWordLength float64, sentenceCount, technicalTerms int) int {
	score := 0
	switch {
	case avgWordLength > 8:
		score += 2
	case avgWordLength > 6:
		score++
	}
	switch {
	case sentenceCount > 15:
		score += 2
	case sentenceCount > 10:
		score++
	}
	switch {
	case technicalTerms > 5:
		score += 2
	case technicalTerms > 2:
		score++
	}
	return score
}

func DifficultyScore(text string) int {
	return ScoreDifficulty(AverageWordLength(text), len(ExtractSentences(text)), CountTechnicalTerms(text))
}

func DifficultyForScore(score int) models.Difficulty {
	switch {
	case score >= 5:
		return models.DifficultyHard
	case score >= 2:
		return models.DifficultyMedium
	default:
		return models.DifficultyEasy
	}
}

func AssessDifficulty(text string) models.Difficulty {
	return DifficultyForScore(DifficultyScore(text))
}

// CalculateConfidence scores how well suited text is for generation.
// The keyword test for function/class/method is case sensitive.
func CalculateConfidence(text string) float64 {
	confidence := 0.5
	if len(ExtractWords(text)) > 100 {
		confidence += 0.2
	}
	if len(ExtractSentences(text)) > 5 {
		confidence += 0.1
	}
	if _, ok := FirstTechnicalTerm(text); ok {
		confidence += 0.1
	}
	if strings.Contains(text, "function") || strings.Contains(text, "class") || strings.Contains(text, "method") {
		confidence += 0.1
	}
	return math.Min(confidence, 1.0)
}
