package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/summarizer"
)

const lectureText = "A function is a reusable block of code. " +
	"APIs let programs talk to each other over the network. " +
	"Testing catches regressions before they reach production."

func newTestSummaryService() (*SummaryService, *memSummaryStore, *memJobStore) {
	store := newMemSummaryStore()
	jobs := newMemJobStore()
	svc := NewSummaryService(store, jobs, nil, time.Hour, logger.NewNop())
	return svc, store, jobs
}

func TestSummaryService_Create(t *testing.T) {
	svc, store, _ := newTestSummaryService()
	userID := uuid.New()

	rec, err := svc.Create(context.Background(), userID, models.GenerateSummaryRequest{Content: lectureText})
	require.NoError(t, err)

	assert.Equal(t, StatusReady, rec.Status)
	assert.Equal(t, "A function is a reusable block of code", rec.Title)
	assert.Equal(t, ContentHash(lectureText), rec.ContentHash)
	assert.Equal(t, len(strings.Fields(lectureText)), rec.WordCount)
	require.NotNil(t, rec.Result)
	assert.False(t, rec.Result.IsFallback)
	assert.NotEmpty(t, rec.Result.Flashcards)
	assert.Equal(t, lectureText, store.contents[rec.ID])
}

func TestSummaryService_CreateEmptyContentFallsBack(t *testing.T) {
	svc, _, _ := newTestSummaryService()

	rec, err := svc.Create(context.Background(), uuid.New(), models.GenerateSummaryRequest{})
	require.NoError(t, err)

	assert.Equal(t, "Untitled summary", rec.Title)
	assert.True(t, rec.Result.IsFallback)
	assert.Equal(t, summarizer.FallbackDeck(), rec.Result.Flashcards)
}

func TestSummaryService_CreateValidation(t *testing.T) {
	svc, _, _ := newTestSummaryService()

	_, err := svc.Create(context.Background(), uuid.New(), models.GenerateSummaryRequest{
		Title:   strings.Repeat("t", 201),
		Content: lectureText,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at most 200 characters", verr.Fields["title"])
}

func TestSummaryService_GetOwnership(t *testing.T) {
	svc, _, _ := newTestSummaryService()
	owner := uuid.New()
	rec, err := svc.Create(context.Background(), owner, models.GenerateSummaryRequest{Content: lectureText})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), rec.ID)
	var forbidden *ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	got, err := svc.Get(context.Background(), owner, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestSummaryService_Delete(t *testing.T) {
	svc, store, _ := newTestSummaryService()
	owner := uuid.New()
	rec, _ := svc.Create(context.Background(), owner, models.GenerateSummaryRequest{Content: lectureText})

	assert.Error(t, svc.Delete(context.Background(), uuid.New(), rec.ID))
	require.NoError(t, svc.Delete(context.Background(), owner, rec.ID))
	assert.Equal(t, []uuid.UUID{rec.ID}, store.deleted)
}

func TestSummaryService_EnqueueWithoutQueue(t *testing.T) {
	svc, _, _ := newTestSummaryService()

	_, _, err := svc.Enqueue(context.Background(), uuid.New(), models.GenerateSummaryRequest{Content: lectureText})

	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestSummaryService_Process(t *testing.T) {
	svc, store, _ := newTestSummaryService()
	userID := uuid.New()
	rec := &models.SummaryRecord{UserID: userID, Status: StatusPending}
	require.NoError(t, store.Create(context.Background(), rec, lectureText))

	result, err := svc.Process(context.Background(), &models.Job{UserID: userID, ReferenceID: rec.ID})
	require.NoError(t, err)

	assert.Equal(t, StatusReady, rec.Status)
	assert.Same(t, result, rec.Result)

	_, err = svc.Process(context.Background(), &models.Job{ReferenceID: uuid.New()})
	assert.Error(t, err)
}

func TestSummaryService_SummarizeConcurrent(t *testing.T) {
	svc, _, _ := newTestSummaryService()

	var wg sync.WaitGroup
	results := make([]*models.SummarizationResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Summarize(context.Background(), lectureText)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, results[0].Summary, r.Summary)
	}
}

func TestSummaryService_Notes(t *testing.T) {
	svc, store, _ := newTestSummaryService()
	owner := uuid.New()

	rec, _ := svc.Create(context.Background(), owner, models.GenerateSummaryRequest{Content: lectureText})
	notes, err := svc.Notes(context.Background(), owner, rec.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, notes.Notes)
	assert.NotEmpty(t, notes.Spoken)

	pending := &models.SummaryRecord{UserID: owner, Status: StatusPending}
	require.NoError(t, store.Create(context.Background(), pending, lectureText))
	_, err = svc.Notes(context.Background(), owner, pending.ID)
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestSummaryService_Analyze(t *testing.T) {
	svc, _, _ := newTestSummaryService()
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }

	processed, err := svc.Analyze(models.AnalyzeTextRequest{Content: lectureText})
	require.NoError(t, err)
	assert.Equal(t, len(strings.Fields(lectureText)), processed.WordCount)

	_, err = svc.Analyze(models.AnalyzeTextRequest{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["content"])
}

func TestSummaryService_CancelJob(t *testing.T) {
	svc, _, jobs := newTestSummaryService()
	owner := uuid.New()
	job := &models.Job{UserID: owner, Type: models.JobTypeSummarization}
	require.NoError(t, jobs.Create(context.Background(), job))

	assert.Error(t, svc.CancelJob(context.Background(), uuid.New(), job.ID))
	require.NoError(t, svc.CancelJob(context.Background(), owner, job.ID))
	assert.Equal(t, "cancelled", job.Status)

	job.Status = "completed"
	var conflict *ConflictError
	assert.ErrorAs(t, svc.CancelJob(context.Background(), owner, job.ID), &conflict)
}
