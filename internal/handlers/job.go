package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"flashvoice-backend/internal/middleware"
	"flashvoice-backend/internal/models"
)

type jobService interface {
	GetJob(ctx context.Context, userID, id uuid.UUID) (*models.Job, error)
	CancelJob(ctx context.Context, userID, id uuid.UUID) error
}

type JobHandler struct {
	jobs jobService
}

func NewJobHandler(jobs jobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "job")
	if !ok {
		return
	}

	job, err := h.jobs.GetJob(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "job")
	if !ok {
		return
	}

	if err := h.jobs.CancelJob(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}
