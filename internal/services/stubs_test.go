package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/repository"
)

type memSummaryStore struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*models.SummaryRecord
	contents map[uuid.UUID]string
	deleted  []uuid.UUID
}

func newMemSummaryStore() *memSummaryStore {
	return &memSummaryStore{
		records:  make(map[uuid.UUID]*models.SummaryRecord),
		contents: make(map[uuid.UUID]string),
	}
}

func (m *memSummaryStore) Create(_ context.Context, s *models.SummaryRecord, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	m.records[s.ID] = s
	m.contents[s.ID] = content
	return nil
}

func (m *memSummaryStore) SaveResult(_ context.Context, id uuid.UUID, status string, result *models.SummarizationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	rec.Result = result
	return nil
}

func (m *memSummaryStore) GetByID(_ context.Context, id uuid.UUID) (*models.SummaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memSummaryStore) GetContent(_ context.Context, id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.contents[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return content, nil
}

func (m *memSummaryStore) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.SummaryRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SummaryRecord
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, len(out), nil
}

func (m *memSummaryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memJobStore struct {
	jobs map[uuid.UUID]*models.Job
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[uuid.UUID]*models.Job)}
}

func (m *memJobStore) Create(_ context.Context, j *models.Job) error {
	j.ID = uuid.New()
	j.Status = "pending"
	m.jobs[j.ID] = j
	return nil
}

func (m *memJobStore) GetByID(_ context.Context, id uuid.UUID) (*models.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return j, nil
}

func (m *memJobStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if j, ok := m.jobs[id]; ok {
		j.Status = status
	}
	return nil
}

func (m *memJobStore) UpdateError(_ context.Context, id uuid.UUID, errMsg string, retryCount int) error {
	if j, ok := m.jobs[id]; ok {
		j.ErrorMessage = &errMsg
		j.RetryCount = retryCount
	}
	return nil
}
