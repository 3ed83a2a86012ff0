package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"flashvoice-backend/internal/handlers"
	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/middleware"
	"flashvoice-backend/internal/websocket"
)

type Handlers struct {
	Summary      *handlers.SummaryHandler
	Text         *handlers.TextHandler
	Job          *handlers.JobHandler
	VoiceSession *handlers.VoiceSessionHandler
	Hub          *websocket.Hub
	Voice        *websocket.VoiceGateway
}

func New(
	jwtAuth *middleware.JWTAuth,
	limiter *middleware.RateLimiter,
	h Handlers,
	frontendURL string,
	log *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Authenticated REST ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(limiter.Middleware)

			r.Route("/summaries", func(r chi.Router) {
				r.Post("/", h.Summary.Create)
				r.Post("/jobs", h.Summary.Enqueue)
				r.Get("/", h.Summary.List)
				r.Get("/{id}", h.Summary.Get)
				r.Get("/{id}/notes", h.Summary.Notes)
				r.Delete("/{id}", h.Summary.Delete)
			})

			r.Post("/text/analyze", h.Text.Analyze)

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/{id}", h.Job.GetJob)
				r.Delete("/{id}", h.Job.CancelJob)
			})

			r.Get("/voice-sessions", h.VoiceSession.List)
		})

		// ──── WebSockets (token query param) ────
		r.Get("/ws", h.Hub.HandleWebSocket)
		r.Get("/voice/ws", h.Voice.HandleWebSocket)
	})

	return r
}
