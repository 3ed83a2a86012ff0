package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/models"
)

type voiceSessionStore interface {
	Start(ctx context.Context, s *models.VoiceSessionRecord) error
	RecordAnswer(ctx context.Context, a *models.VoiceAnswer) error
	Stop(ctx context.Context, sessionID, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.VoiceSessionRecord, error)
}

// VoiceSessionService keeps the stored trace of voice sessions.
type VoiceSessionService struct {
	store voiceSessionStore
	now   func() time.Time
	log   *logger.Logger
}

func NewVoiceSessionService(store voiceSessionStore, log *logger.Logger) *VoiceSessionService {
	return &VoiceSessionService{store: store, now: time.Now, log: log}
}

func (s *VoiceSessionService) Start(ctx context.Context, userID uuid.UUID, cardCount int) (uuid.UUID, error) {
	rec := &models.VoiceSessionRecord{UserID: userID, CardCount: cardCount}
	if err := s.store.Start(ctx, rec); err != nil {
		return uuid.Nil, err
	}
	s.log.Info("voice session recorded", "session_id", rec.ID, "user_id", userID, "cards", cardCount)
	return rec.ID, nil
}

func (s *VoiceSessionService) RecordAnswer(ctx context.Context, sessionID uuid.UUID, questionID, answer string, correct bool) error {
	return s.store.RecordAnswer(ctx, &models.VoiceAnswer{
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     answer,
		IsCorrect:  correct,
		AnsweredAt: s.now(),
	})
}

func (s *VoiceSessionService) Stop(ctx context.Context, sessionID, userID uuid.UUID) error {
	return s.store.Stop(ctx, sessionID, userID)
}

func (s *VoiceSessionService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*models.VoiceSessionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByUser(ctx, userID, limit)
}
