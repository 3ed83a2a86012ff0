package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/models"
)

type memVoiceStore struct {
	started   []*models.VoiceSessionRecord
	answers   []*models.VoiceAnswer
	stopped   []uuid.UUID
	lastLimit int
}

func (m *memVoiceStore) Start(_ context.Context, s *models.VoiceSessionRecord) error {
	s.ID = uuid.New()
	m.started = append(m.started, s)
	return nil
}

func (m *memVoiceStore) RecordAnswer(_ context.Context, a *models.VoiceAnswer) error {
	m.answers = append(m.answers, a)
	return nil
}

func (m *memVoiceStore) Stop(_ context.Context, sessionID, _ uuid.UUID) error {
	m.stopped = append(m.stopped, sessionID)
	return nil
}

func (m *memVoiceStore) ListByUser(_ context.Context, _ uuid.UUID, limit int) ([]*models.VoiceSessionRecord, error) {
	m.lastLimit = limit
	return m.started, nil
}

func TestVoiceSessionService_Lifecycle(t *testing.T) {
	store := &memVoiceStore{}
	svc := NewVoiceSessionService(store, logger.NewNop())
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }
	userID := uuid.New()

	id, err := svc.Start(context.Background(), userID, 4)
	require.NoError(t, err)
	require.Len(t, store.started, 1)
	assert.Equal(t, id, store.started[0].ID)
	assert.Equal(t, 4, store.started[0].CardCount)

	require.NoError(t, svc.RecordAnswer(context.Background(), id, "summary-1", "caching", true))
	require.Len(t, store.answers, 1)
	assert.Equal(t, &models.VoiceAnswer{
		SessionID:  id,
		QuestionID: "summary-1",
		Answer:     "caching",
		IsCorrect:  true,
		AnsweredAt: at,
	}, store.answers[0])

	require.NoError(t, svc.Stop(context.Background(), id, userID))
	assert.Equal(t, []uuid.UUID{id}, store.stopped)
}

func TestVoiceSessionService_ListClampsLimit(t *testing.T) {
	store := &memVoiceStore{}
	svc := NewVoiceSessionService(store, logger.NewNop())

	for _, tc := range []struct{ in, want int }{{0, 20}, {-3, 20}, {500, 20}, {50, 50}} {
		_, err := svc.List(context.Background(), uuid.New(), tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, store.lastLimit, "limit %d", tc.in)
	}
}
