package models

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Summary is built once per generation call and never mutated afterwards.
type Summary struct {
	Text       string     `json:"text"`
	KeyPoints  []string   `json:"key_points"`
	Topics     []string   `json:"topics"`
	Difficulty Difficulty `json:"difficulty"`
	Confidence float64    `json:"confidence"`
}

type SummarizationResult struct {
	Summary     Summary     `json:"summary"`
	Flashcards  []Flashcard `json:"flashcards"`
	GeneratedAt int64       `json:"generated_at"` // unix milliseconds
	IsFallback  bool        `json:"is_fallback"`
}

// SummaryRecord is a stored SummarizationResult owned by a user.
type SummaryRecord struct {
	ID          uuid.UUID            `json:"id"`
	UserID      uuid.UUID            `json:"user_id"`
	Title       string               `json:"title"`
	ContentHash string               `json:"content_hash"`
	WordCount   int                  `json:"word_count"`
	Status      string               `json:"status"` // "pending" | "ready" | "failed"
	Result      *SummarizationResult `json:"result,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type GenerateSummaryRequest struct {
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"max=200000"`
}

type AnalyzeTextRequest struct {
	Content string `json:"content" validate:"required,max=200000"`
}
