package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/middleware"
	"flashvoice-backend/internal/models"
	"flashvoice-backend/internal/services"
)

type summaryService interface {
	Create(ctx context.Context, userID uuid.UUID, req models.GenerateSummaryRequest) (*models.SummaryRecord, error)
	Enqueue(ctx context.Context, userID uuid.UUID, req models.GenerateSummaryRequest) (*models.Job, *models.SummaryRecord, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.SummaryRecord, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.SummaryRecord, int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Notes(ctx context.Context, userID, id uuid.UUID) (*services.StudyNotes, error)
}

type SummaryHandler struct {
	summaries summaryService
	log       *logger.Logger
}

func NewSummaryHandler(summaries summaryService, log *logger.Logger) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, log: log}
}

// Create summarizes the posted text synchronously.
func (h *SummaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateSummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := h.summaries.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.log.Warn("summary create failed", "error", err)
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Enqueue hands the text to the worker pool; progress arrives on /ws.
func (h *SummaryHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateSummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, rec, err := h.summaries.Enqueue(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":     job.ID,
		"summary_id": rec.ID,
		"status":     rec.Status,
	})
}

func (h *SummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20, 50)

	summaries, total, err := h.summaries.List(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch summaries", r))
		return
	}
	if summaries == nil {
		summaries = []*models.SummaryRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summaries": summaries,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "summary")
	if !ok {
		return
	}

	rec, err := h.summaries.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *SummaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "summary")
	if !ok {
		return
	}

	if err := h.summaries.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Summary deleted"})
}

// Notes returns the study notes and the spoken rendering of a summary.
func (h *SummaryHandler) Notes(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "summary")
	if !ok {
		return
	}

	notes, err := h.summaries.Notes(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}
