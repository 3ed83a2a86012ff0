package summarizer

import (
	"fmt"
	"time"

	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/textanalysis"
)

const (
	maxFlashcards      = 12
	maxQACards         = 5
	maxRevisionCards   = 3
	qaSentenceCount    = 4
	revisionStart      = 4
	revisionEnd        = 7
	fallbackConfidence = 0.3
)

// Generator builds summaries and flashcard decks from plain text. It holds no
// state besides the clock used to stamp results.
type Generator struct {
	now func() time.Time
}

func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

var defaultGenerator = NewGenerator(nil)

// SummarizeText runs the full pipeline with the wall clock.
func SummarizeText(text string) *models.SummarizationResult {
	return defaultGenerator.Summarize(text)
}

// Summarize is total: every input, including "", yields a result with at
// least one flashcard.
func (g *Generator) Summarize(text string) *models.SummarizationResult {
	sentences := textanalysis.ExtractSentences(text)
	topics := textanalysis.IdentifyTopics(text)
	difficulty := textanalysis.AssessDifficulty(text)

	summary := models.Summary{
		Text:       SummaryText(sentences),
		KeyPoints:  KeyPoints(sentences),
		Topics:     topics,
		Difficulty: difficulty,
		Confidence: textanalysis.CalculateConfidence(text),
	}

	cards := GenerateFlashcards(text, sentences, topics, difficulty)
	isFallback := false
	if len(cards) == 0 || summary.Confidence < fallbackConfidence {
		cards = FallbackDeck()
		isFallback = true
	}

	return &models.SummarizationResult{
		Summary:     summary,
		Flashcards:  cards,
		GeneratedAt: g.now().UnixMilli(),
		IsFallback:  isFallback,
	}
}

// GenerateFlashcards concatenates Q&A and revision cards, capped at 12.
func GenerateFlashcards(text string, sentences, topics []string, difficulty models.Difficulty) []models.Flashcard {
	cards := make([]models.Flashcard, 0, maxFlashcards)
	cards = append(cards, qaCards(text, sentences, topics, difficulty)...)
	cards = append(cards, revisionCards(text, sentences, topics, difficulty)...)
	if len(cards) > maxFlashcards {
		cards = cards[:maxFlashcards]
	}
	return cards
}

func withTags(topics []string, tags ...string) []string {
	out := make([]string, 0, len(topics)+len(tags))
	out = append(out, topics...)
	return append(out, tags...)
}

func sentenceCard(id string, sentence string, cardType models.CardType, difficulty models.Difficulty, tags []string) models.Flashcard {
	answer := Simplify(sentence)
	return models.Flashcard{
		ID:          id,
		Question:    MakeQuestion(sentence),
		Answer:      answer,
		Type:        cardType,
		Difficulty:  difficulty,
		Tags:        tags,
		ReadingTime: ReadingTime(answer),
	}
}

func qaCards(text string, sentences, topics []string, difficulty models.Difficulty) []models.Flashcard {
	cards := make([]models.Flashcard, 0, maxQACards)
	for i, s := range window(sentences, 0, qaSentenceCount) {
		cards = append(cards, sentenceCard(fmt.Sprintf("qa_simple_%d", i), s, models.CardConcept, difficulty, withTags(topics, "qa")))
	}

	if term, ok := textanalysis.FirstTechnicalTerm(text); ok {
		answer := Simplify(DefinitionAnswer(term, text))
		cards = append(cards, models.Flashcard{
			ID:          "qa_def_" + term,
			Question:    "What is " + term + "?",
			Answer:      answer,
			Type:        models.CardDefinition,
			Difficulty:  difficulty,
			Tags:        withTags(topics, "definition", "qa"),
			ReadingTime: ReadingTime(answer),
		})
	}

	if len(cards) > maxQACards {
		cards = cards[:maxQACards]
	}
	return cards
}

func revisionCards(text string, sentences, topics []string, difficulty models.Difficulty) []models.Flashcard {
	cards := make([]models.Flashcard, 0, maxRevisionCards+1)
	for i, s := range window(sentences, revisionStart, revisionEnd) {
		cards = append(cards, sentenceCard(fmt.Sprintf("rev_simple_%d", i), s, models.CardFact, difficulty, withTags(topics, "revision")))
	}

	for _, w := range textanalysis.ExtractWords(text) {
		if !textanalysis.IsTechnicalTerm(w) {
			continue
		}
		answer := Simplify(ShortDefinition(w))
		cards = append(cards, models.Flashcard{
			ID:          "rev_keyword_" + w,
			Question:    "Define: " + w,
			Answer:      answer,
			Type:        models.CardDefinition,
			Difficulty:  difficulty,
			Tags:        withTags(topics, "keyword", "revision"),
			ReadingTime: ReadingTime(answer),
		})
		break
	}

	if len(cards) > maxRevisionCards {
		cards = cards[:maxRevisionCards]
	}
	return cards
}

// window returns s[from:to] clamped to the slice bounds.
func window(s []string, from, to int) []string {
	if from >= len(s) {
		return nil
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
