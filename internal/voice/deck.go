package voice

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"flashvoice-backend/internal/grader"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/summarizer"
	"flashvoice-backend/internal/textanalysis"
)

const (
	SummaryCardID        = "summary-1"
	summaryCardQuestion  = "What is the main topic of this page?"
	defaultOneWordAnswer = "topic"
	minQuestionSentence  = 30
	maxShortQuestions    = 6
	cardKeywords         = 5
	blank                = "blank"
)

var clozeTemplates = []struct {
	format     string
	difficulty models.Difficulty
}{
	{"Complete the sentence: %s", models.DifficultyEasy},
	{"Which word fills the blank: %s", models.DifficultyMedium},
	{"Name the missing term: %s", models.DifficultyHard},
}

// BuildDeck derives a voice deck from raw page text. The first card is always
// the summary card, so the deck is never empty.
func BuildDeck(content string) []models.VoiceFlashcard {
	keywords := grader.Keywords(content, cardKeywords)
	summary := summarizer.SummaryText(textanalysis.ExtractSentences(content))

	deck := []models.VoiceFlashcard{{
		ID:         SummaryCardID,
		Question:   summaryCardQuestion,
		Answer:     ExtractOneWordAnswer(content),
		Summary:    summary,
		Type:       models.VoiceCardSummary,
		Difficulty: models.DifficultyEasy,
		Keywords:   keywords,
	}}
	return append(deck, GenerateShortQuestions(content)...)
}

// ExtractOneWordAnswer reduces text to a single gradable word: its top
// keyword, else its first long word, else "topic".
func ExtractOneWordAnswer(text string) string {
	if kw := grader.Keywords(text, 1); len(kw) > 0 {
		return kw[0]
	}
	for _, w := range textanalysis.Tokenize(text) {
		if utf8.RuneCountInString(w) > 3 {
			return w
		}
	}
	return defaultOneWordAnswer
}

// GenerateShortQuestions turns up to six longer sentences into cloze cards
// whose answer is the sentence's top keyword.
func GenerateShortQuestions(content string) []models.VoiceFlashcard {
	var cards []models.VoiceFlashcard
	for _, sentence := range textanalysis.ExtractSentences(content) {
		if utf8.RuneCountInString(sentence) <= minQuestionSentence {
			continue
		}
		keywords := grader.Keywords(sentence, 3)
		if len(keywords) == 0 {
			continue
		}
		answer := keywords[0]
		masked, ok := maskWord(sentence, answer)
		if !ok {
			continue
		}

		tpl := clozeTemplates[len(cards)%len(clozeTemplates)]
		cards = append(cards, models.VoiceFlashcard{
			ID:         fmt.Sprintf("question-%d", len(cards)+1),
			Question:   fmt.Sprintf(tpl.format, masked),
			Answer:     answer,
			Summary:    sentence,
			Type:       models.VoiceCardInteractive,
			Difficulty: tpl.difficulty,
			Keywords:   keywords,
		})
		if len(cards) == maxShortQuestions {
			break
		}
	}
	return cards
}

func maskWord(sentence, word string) (string, bool) {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return sentence, false
	}
	masked := re.ReplaceAllLiteralString(sentence, blank)
	if masked == sentence || strings.TrimSpace(masked) == blank {
		return sentence, false
	}
	return masked, true
}
