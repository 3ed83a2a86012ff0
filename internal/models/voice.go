package models

import (
	"time"

	"github.com/google/uuid"
)

type VoiceCardType string

const (
	VoiceCardSummary     VoiceCardType = "summary"
	VoiceCardQuestion    VoiceCardType = "question"
	VoiceCardInteractive VoiceCardType = "interactive"
)

// VoiceFlashcard carries a single-word answer so it can be graded from speech.
type VoiceFlashcard struct {
	ID         string        `json:"id"`
	Question   string        `json:"question"`
	Answer     string        `json:"answer"`
	Summary    string        `json:"summary"`
	Type       VoiceCardType `json:"type"`
	Difficulty Difficulty    `json:"difficulty"`
	Keywords   []string      `json:"keywords"`
}

type VoiceSession struct {
	Flashcards       []VoiceFlashcard  `json:"flashcards"`
	CurrentIndex     int               `json:"current_index"`
	IsListening      bool              `json:"is_listening"`
	IsSpeaking       bool              `json:"is_speaking"`
	UserAnswers      map[string]string `json:"user_answers"`
	SessionStartTime time.Time         `json:"session_start_time"`
}

// Clone returns a deep copy safe to hand to observers.
func (s *VoiceSession) Clone() *VoiceSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Flashcards = make([]VoiceFlashcard, len(s.Flashcards))
	for i, card := range s.Flashcards {
		card.Keywords = append([]string(nil), card.Keywords...)
		c.Flashcards[i] = card
	}
	c.UserAnswers = make(map[string]string, len(s.UserAnswers))
	for k, v := range s.UserAnswers {
		c.UserAnswers[k] = v
	}
	return &c
}

func (s *VoiceSession) CurrentCard() *VoiceFlashcard {
	if s == nil || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Flashcards) {
		return nil
	}
	return &s.Flashcards[s.CurrentIndex]
}

type VoiceResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// VoiceSessionRecord is the stored trace of one voice session.
type VoiceSessionRecord struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	CardCount       int        `json:"card_count"`
	AnsweredCount   int        `json:"answered_count"`
	CorrectCount    int        `json:"correct_count"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

type VoiceAnswer struct {
	SessionID  uuid.UUID `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}
