package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"flashvoice-backend/internal/middleware"
	"flashvoice-backend/internal/models"
)

type voiceSessionLister interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]*models.VoiceSessionRecord, error)
}

type VoiceSessionHandler struct {
	sessions voiceSessionLister
}

func NewVoiceSessionHandler(sessions voiceSessionLister) *VoiceSessionHandler {
	return &VoiceSessionHandler{sessions: sessions}
}

func (h *VoiceSessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := pagination(r, 20, 100)

	sessions, err := h.sessions.List(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch voice sessions", r))
		return
	}
	if sessions == nil {
		sessions = []*models.VoiceSessionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
