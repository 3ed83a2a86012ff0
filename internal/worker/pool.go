package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/services"
)

const (
	defaultMaxRetries = 3
	popTimeout        = 5 * time.Second
	lockTTL           = 10 * time.Minute
)

type summaryProcessor interface {
	Process(ctx context.Context, job *models.Job) (*models.SummarizationResult, error)
	MarkFailed(ctx context.Context, job *models.Job)
}

type jobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type updatePublisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// Pool drains the summarization queue. Each job is claimed with a redis lock
// so a job pushed twice is processed once.
type Pool struct {
	redis       *redis.Client
	summaries   summaryProcessor
	jobs        jobStore
	updates     updatePublisher
	log         *logger.Logger
	workerCount int

	// requeue pushes a failed job back after its backoff; tests replace it.
	requeue func(job *models.Job, delay time.Duration)

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPool(
	redisClient *redis.Client,
	summaries summaryProcessor,
	jobs jobStore,
	updates updatePublisher,
	log *logger.Logger,
	workerCount int,
) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		redis:       redisClient,
		summaries:   summaries,
		jobs:        jobs,
		updates:     updates,
		log:         log,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
	p.requeue = p.pushAfter
	return p
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.log.Info("started worker goroutines", "count", p.workerCount, "queue", services.SummarizationQueue)
}

// Stop signals the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			p.log.Debug("worker shutting down", "worker", id)
			return
		case <-ctx.Done():
			return
		default:
		}

		result, err := p.redis.BLPop(ctx, popTimeout, services.SummarizationQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				p.log.Warn("queue pop failed", "worker", id, "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Error("failed to parse job", "worker", id, "error", err)
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue
		}

		p.log.Info("processing job", "worker", id, "job_id", job.ID, "type", job.Type)
		p.handle(ctx, &job)

		p.redis.Del(ctx, lockKey)
	}
}

// handle runs one claimed job to success, retry or permanent failure.
func (p *Pool) handle(ctx context.Context, job *models.Job) {
	if current, err := p.jobs.GetByID(ctx, job.ID); err == nil && current.Status == "cancelled" {
		p.log.Info("skipping cancelled job", "job_id", job.ID)
		return
	}

	p.jobs.UpdateStatus(ctx, job.ID, "processing")
	p.updates.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     1,
			StepName: "Analyzing content",
		},
	})

	if job.Type != models.JobTypeSummarization {
		p.handleFailure(ctx, job, fmt.Errorf("unknown job type: %s", job.Type))
		return
	}

	result, err := p.summaries.Process(ctx, job)
	if err != nil {
		p.handleFailure(ctx, job, err)
		return
	}
	p.handleSuccess(ctx, job, result)
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job, result *models.SummarizationResult) {
	p.jobs.UpdateStatus(ctx, job.ID, "completed")

	p.updates.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     2,
			StepName: "Generating flashcards",
		},
	})
	p.updates.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: "summary",
			IsFallback: result.IsFallback,
		},
	})

	p.log.Info("job completed", "job_id", job.ID, "cards", len(result.Flashcards), "fallback", result.IsFallback)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	if job.RetryCount < maxRetries {
		p.log.Warn("job failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "error", errMsg)
		p.jobs.UpdateStatus(ctx, job.ID, "pending")
		p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		p.requeue(job, backoff)
		return
	}

	p.log.Error("job failed permanently", "job_id", job.ID, "error", errMsg)
	p.jobs.UpdateStatus(ctx, job.ID, "failed")
	p.jobs.UpdateError(ctx, job.ID, errMsg, job.RetryCount)
	p.summaries.MarkFailed(ctx, job)

	p.updates.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    "JOB_FAILED",
			ErrorMessage: errMsg,
		},
	})
}

func (p *Pool) pushAfter(job *models.Job, delay time.Duration) {
	jobBytes, _ := json.Marshal(job)
	time.AfterFunc(delay, func() {
		if err := p.redis.LPush(context.Background(), services.SummarizationQueue, string(jobBytes)).Err(); err != nil {
			p.log.Error("failed to requeue job", "job_id", job.ID, "error", err)
		}
	})
}
