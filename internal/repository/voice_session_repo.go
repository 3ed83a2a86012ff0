package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashvoice-backend/internal/models"
)

type VoiceSessionRepo struct {
	pool *pgxpool.Pool
}

func NewVoiceSessionRepo(pool *pgxpool.Pool) *VoiceSessionRepo {
	return &VoiceSessionRepo{pool: pool}
}

func (r *VoiceSessionRepo) Start(ctx context.Context, s *models.VoiceSessionRecord) error {
	// Close any session the same user left open (dropped socket).
	_, _ = r.pool.Exec(ctx, `
		UPDATE voice_sessions
		SET ended_at = NOW(),
			duration_seconds = GREATEST(0, LEAST(43200, EXTRACT(EPOCH FROM (NOW() - started_at))::INT))
		WHERE user_id = $1
		  AND ended_at IS NULL
	`, s.UserID)

	query := `
		INSERT INTO voice_sessions (user_id, card_count)
		VALUES ($1, $2)
		RETURNING id, started_at
	`
	return r.pool.QueryRow(ctx, query, s.UserID, s.CardCount).Scan(&s.ID, &s.StartedAt)
}

// RecordAnswer keeps the latest answer per question and refreshes the
// session counters.
func (r *VoiceSessionRepo) RecordAnswer(ctx context.Context, a *models.VoiceAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO voice_answers (session_id, question_id, answer, is_correct, answered_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, question_id)
		DO UPDATE SET answer = EXCLUDED.answer, is_correct = EXCLUDED.is_correct, answered_at = EXCLUDED.answered_at
	`, a.SessionID, a.QuestionID, a.Answer, a.IsCorrect, a.AnsweredAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE voice_sessions
		SET answered_count = (SELECT COUNT(*) FROM voice_answers WHERE session_id = $1),
			correct_count = (SELECT COUNT(*) FROM voice_answers WHERE session_id = $1 AND is_correct)
		WHERE id = $1
	`, a.SessionID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *VoiceSessionRepo) Stop(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE voice_sessions
		SET ended_at = CASE WHEN ended_at IS NULL THEN NOW() ELSE ended_at END,
			duration_seconds = CASE
				WHEN ended_at IS NULL THEN GREATEST(0, LEAST(43200, EXTRACT(EPOCH FROM (NOW() - started_at))::INT))
				ELSE duration_seconds
			END
		WHERE id = $1
		  AND user_id = $2
	`, sessionID, userID)
	return err
}

func (r *VoiceSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.VoiceSessionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, card_count, answered_count, correct_count, started_at, ended_at, duration_seconds
		FROM voice_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*models.VoiceSessionRecord{}
	for rows.Next() {
		s := &models.VoiceSessionRecord{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.CardCount, &s.AnsweredCount, &s.CorrectCount,
			&s.StartedAt, &s.EndedAt, &s.DurationSeconds); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
