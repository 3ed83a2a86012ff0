package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashvoice-backend/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type SummaryRepo struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

// Create stores the record together with the raw content it was built from.
func (r *SummaryRepo) Create(ctx context.Context, s *models.SummaryRecord, content string) error {
	s.ID = uuid.New()
	resultBytes, err := marshalResult(s.Result)
	if err != nil {
		return err
	}

	query := `INSERT INTO summaries (id, user_id, title, content_hash, word_count, status, content_raw, result_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.Title, s.ContentHash, s.WordCount, s.Status, content, resultBytes,
	).Scan(&s.CreatedAt)
}

func (r *SummaryRepo) SaveResult(ctx context.Context, id uuid.UUID, status string, result *models.SummarizationResult) error {
	resultBytes, err := marshalResult(result)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		"UPDATE summaries SET status = $1, result_json = $2 WHERE id = $3",
		status, resultBytes, id,
	)
	return err
}

func (r *SummaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SummaryRecord, error) {
	query := `SELECT id, user_id, title, content_hash, word_count, status, result_json, created_at
		FROM summaries WHERE id = $1`

	s, err := scanSummary(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *SummaryRepo) GetContent(ctx context.Context, id uuid.UUID) (string, error) {
	var content *string
	err := r.pool.QueryRow(ctx, "SELECT content_raw FROM summaries WHERE id = $1", id).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", nil
	}
	return *content, nil
}

func (r *SummaryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.SummaryRecord, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM summaries WHERE user_id = $1", userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, user_id, title, content_hash, word_count, status, result_json, created_at
		FROM summaries WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []*models.SummaryRecord
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}

	return summaries, total, rows.Err()
}

func (r *SummaryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM summaries WHERE id = $1", id)
	return err
}

func scanSummary(row pgx.Row) (*models.SummaryRecord, error) {
	s := &models.SummaryRecord{}
	var resultBytes []byte
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.ContentHash, &s.WordCount, &s.Status, &resultBytes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(resultBytes) > 0 {
		s.Result = &models.SummarizationResult{}
		if err := json.Unmarshal(resultBytes, s.Result); err != nil {
			return nil, fmt.Errorf("decode summary %s result: %w", s.ID, err)
		}
	}
	return s, nil
}

func marshalResult(result *models.SummarizationResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode summary result: %w", err)
	}
	return b, nil
}
