package handlers

import (
	"net/http"

	"flashvoice-backend/internal/models"
)

type textAnalyzer interface {
	Analyze(req models.AnalyzeTextRequest) (*models.ProcessedText, error)
}

type TextHandler struct {
	analyzer textAnalyzer
}

func NewTextHandler(analyzer textAnalyzer) *TextHandler {
	return &TextHandler{analyzer: analyzer}
}

func (h *TextHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeTextRequest
	if !decodeBody(w, r, &req) {
		return
	}

	processed, err := h.analyzer.Analyze(req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processed)
}
