package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/repository"
	"flashvoice-backend/internal/summarizer"
	"flashvoice-backend/internal/textanalysis"
)

const (
	SummarizationQueue = "queue:summarization"
	summaryCachePrefix = "summary:result:"

	StatusPending = "pending"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

type summaryStore interface {
	Create(ctx context.Context, s *models.SummaryRecord, content string) error
	SaveResult(ctx context.Context, id uuid.UUID, status string, result *models.SummarizationResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SummaryRecord, error)
	GetContent(ctx context.Context, id uuid.UUID) (string, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.SummaryRecord, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type jobStore interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

// SummaryService persists summarization results. Generation itself is pure;
// identical content is computed once (singleflight) and cached in redis.
type SummaryService struct {
	summaries summaryStore
	jobs      jobStore
	redis     *redis.Client
	cacheTTL  time.Duration
	generator *summarizer.Generator
	group     singleflight.Group
	now       func() time.Time
	log       *logger.Logger
}

func NewSummaryService(summaries summaryStore, jobs jobStore, redisClient *redis.Client, cacheTTL time.Duration, log *logger.Logger) *SummaryService {
	return &SummaryService{
		summaries: summaries,
		jobs:      jobs,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
		generator: summarizer.NewGenerator(time.Now),
		now:       time.Now,
		log:       log,
	}
}

// ContentHash identifies content for caching and deduplication.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Summarize never fails on content; cache trouble only costs a recompute.
func (s *SummaryService) Summarize(ctx context.Context, content string) *models.SummarizationResult {
	hash := ContentHash(content)
	if cached := s.cached(ctx, hash); cached != nil {
		return cached
	}

	v, _, _ := s.group.Do(hash, func() (interface{}, error) {
		result := s.generator.Summarize(content)
		s.store(ctx, hash, result)
		return result, nil
	})
	return v.(*models.SummarizationResult)
}

func (s *SummaryService) cached(ctx context.Context, hash string) *models.SummarizationResult {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, summaryCachePrefix+hash).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("summary cache read failed", "error", err)
		}
		return nil
	}
	var result models.SummarizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.log.Warn("summary cache entry corrupt", "hash", hash, "error", err)
		return nil
	}
	return &result
}

func (s *SummaryService) store(ctx context.Context, hash string, result *models.SummarizationResult) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, summaryCachePrefix+hash, data, s.cacheTTL).Err(); err != nil {
		s.log.Warn("summary cache write failed", "error", err)
	}
}

// Create summarizes synchronously and stores the result.
func (s *SummaryService) Create(ctx context.Context, userID uuid.UUID, req models.GenerateSummaryRequest) (*models.SummaryRecord, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	rec := newRecord(userID, req)
	rec.Result = s.Summarize(ctx, req.Content)
	rec.Status = StatusReady
	if err := s.summaries.Create(ctx, rec, req.Content); err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}
	return rec, nil
}

// Enqueue stores a pending record and queues a summarization job for the
// worker pool.
func (s *SummaryService) Enqueue(ctx context.Context, userID uuid.UUID, req models.GenerateSummaryRequest) (*models.Job, *models.SummaryRecord, error) {
	if err := validateStruct(req); err != nil {
		return nil, nil, err
	}
	if s.redis == nil {
		return nil, nil, &UnavailableError{Message: "Summary queue is unavailable"}
	}

	rec := newRecord(userID, req)
	rec.Status = StatusPending
	if err := s.summaries.Create(ctx, rec, req.Content); err != nil {
		return nil, nil, fmt.Errorf("failed to store summary: %w", err)
	}

	job := &models.Job{
		UserID:      userID,
		Type:        models.JobTypeSummarization,
		ReferenceID: rec.ID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to create job: %w", err)
	}

	jobBytes, _ := json.Marshal(job)
	if err := s.redis.LPush(ctx, SummarizationQueue, string(jobBytes)).Err(); err != nil {
		s.log.Error("failed to enqueue summarization job", "job_id", job.ID, "error", err)
		_ = s.jobs.UpdateStatus(ctx, job.ID, "failed")
		return nil, nil, &UnavailableError{Message: "Failed to enqueue summary job"}
	}
	return job, rec, nil
}

// Process runs a queued job's summarization and stores the result.
func (s *SummaryService) Process(ctx context.Context, job *models.Job) (*models.SummarizationResult, error) {
	content, err := s.summaries.GetContent(ctx, job.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load content for summary %s: %w", job.ReferenceID, err)
	}
	result := s.Summarize(ctx, content)
	if err := s.summaries.SaveResult(ctx, job.ReferenceID, StatusReady, result); err != nil {
		return nil, fmt.Errorf("failed to save summary %s: %w", job.ReferenceID, err)
	}
	return result, nil
}

// MarkFailed flags the summary behind a permanently failed job.
func (s *SummaryService) MarkFailed(ctx context.Context, job *models.Job) {
	if err := s.summaries.SaveResult(ctx, job.ReferenceID, StatusFailed, nil); err != nil {
		s.log.Warn("failed to mark summary failed", "summary_id", job.ReferenceID, "error", err)
	}
}

func (s *SummaryService) Get(ctx context.Context, userID, id uuid.UUID) (*models.SummaryRecord, error) {
	rec, err := s.summaries.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Summary not found"}
	}
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, &ForbiddenError{Message: "Access denied"}
	}
	return rec, nil
}

func (s *SummaryService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.SummaryRecord, int, error) {
	return s.summaries.ListByUser(ctx, userID, limit, offset)
}

func (s *SummaryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.summaries.Delete(ctx, id)
}

// StudyNotes is the printable and spoken rendering of a stored summary.
type StudyNotes struct {
	Notes  []string `json:"notes"`
	Spoken string   `json:"spoken"`
}

func (s *SummaryService) Notes(ctx context.Context, userID, id uuid.UUID) (*StudyNotes, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.Result == nil {
		return nil, &ConflictError{Message: "Summary is not ready yet"}
	}
	return &StudyNotes{
		Notes:  summarizer.StudyNotes(rec.Result.Summary),
		Spoken: summarizer.SpokenSummary(rec.Result.Summary),
	}, nil
}

func (s *SummaryService) Analyze(req models.AnalyzeTextRequest) (*models.ProcessedText, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	processed := textanalysis.ProcessText(req.Content, s.now())
	return &processed, nil
}

func (s *SummaryService) GetJob(ctx context.Context, userID, id uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Job not found"}
	}
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, &ForbiddenError{Message: "Access denied"}
	}
	return job, nil
}

// CancelJob marks a pending job cancelled. Workers skip cancelled jobs they
// have not started.
func (s *SummaryService) CancelJob(ctx context.Context, userID, id uuid.UUID) error {
	job, err := s.GetJob(ctx, userID, id)
	if err != nil {
		return err
	}
	if job.Status == "completed" || job.Status == "failed" {
		return &ConflictError{Message: "Job already finished"}
	}
	return s.jobs.UpdateStatus(ctx, id, "cancelled")
}

func newRecord(userID uuid.UUID, req models.GenerateSummaryRequest) *models.SummaryRecord {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle(req.Content)
	}
	return &models.SummaryRecord{
		UserID:      userID,
		Title:       title,
		ContentHash: ContentHash(req.Content),
		WordCount:   len(strings.Fields(req.Content)),
	}
}

func defaultTitle(content string) string {
	if sentences := textanalysis.ExtractSentences(content); len(sentences) > 0 {
		t := []rune(sentences[0])
		if len(t) > 60 {
			t = append(t[:57], []rune("...")...)
		}
		return string(t)
	}
	return "Untitled summary"
}
