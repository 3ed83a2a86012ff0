package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"flashvoice-backend/internal/config"
	"flashvoice-backend/internal/database"
	"flashvoice-backend/internal/handlers"
	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/middleware"
	"flashvoice-backend/internal/repository"
	"flashvoice-backend/internal/router"
	"flashvoice-backend/internal/services"
	"flashvoice-backend/internal/speech"
	"flashvoice-backend/internal/voice"
	"flashvoice-backend/internal/websocket"
	"flashvoice-backend/internal/worker"
)

func main() {
	os.Exit(run())
}

// run wires the server and blocks until shutdown. It returns the process exit
// code so deferred cleanup runs before exit.
func run() int {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return 1
	}
	defer log.Sync()

	log.Info("🚀 Starting FlashVoice Backend...", "env", cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Error("✗ Configuration invalid", "error", err)
		return 1
	}
	log.Info("✓ Environment variables loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("✗ PostgreSQL connection failed", "error", err)
		return 1
	}
	defer pool.Close()
	log.Info("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("✗ Redis connection failed", "error", err)
		return 1
	}
	defer redisClients.Close()
	log.Info("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Error("✗ Database migration failed", "error", err)
		return 1
	}
	log.Info("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	summaryRepo := repository.NewSummaryRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	voiceSessionRepo := repository.NewVoiceSessionRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	summaryService := services.NewSummaryService(summaryRepo, jobRepo, redisClients.Queue, cfg.SummaryCacheTTL, log)
	voiceSessionService := services.NewVoiceSessionService(voiceSessionRepo, log)
	publisher := services.NewPublisher(redisClients.Queue, log)

	// ──── Step 5: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, summaryService, jobRepo, publisher, log, cfg.WorkerCount)
	workerPool.Start(ctx)
	log.Info("✓ Worker pool started", "workers", cfg.WorkerCount)

	// ──── Step 6: WebSockets ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, log)
	voiceGateway := websocket.NewVoiceGateway(jwtAuth, voiceSessionService, voiceConfig(cfg), log)
	log.Info("✓ WebSocket hub and voice gateway ready")

	// ──── Step 7: Start HTTP Server ────
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Close()

	r := router.New(jwtAuth, limiter, router.Handlers{
		Summary:      handlers.NewSummaryHandler(summaryService, log),
		Text:         handlers.NewTextHandler(summaryService),
		Job:          handlers.NewJobHandler(summaryService),
		VoiceSession: handlers.NewVoiceSessionHandler(voiceSessionService),
		Hub:          wsHub,
		Voice:        voiceGateway,
	}, cfg.FrontendURL, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("✓ FlashVoice Backend ready", "api", "http://localhost:"+cfg.Port+"/api/v1", "voice", "ws://localhost:"+cfg.Port+"/api/v1/voice/ws")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if verr := voiceGateway.Shutdown(shutdownCtx); verr != nil {
			log.Warn("voice sessions did not close in time", "error", verr)
		}
		workerPool.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("✗ Server error", "error", err)
		return 1
	}
	log.Info("Shutdown complete")
	return 0
}

func voiceConfig(cfg *config.Config) websocket.VoiceConfig {
	synthesis := speech.DefaultSynthesisConfig()
	synthesis.Language = cfg.VoiceLanguage
	synthesis.Rate = cfg.VoiceRate

	recognition := speech.DefaultRecognitionConfig()
	recognition.Language = cfg.VoiceLanguage

	return websocket.VoiceConfig{
		Timing: voice.Timing{
			IntroDelay:      cfg.VoiceIntroDelay,
			NavigationDelay: cfg.VoiceNavDelay,
			FeedbackDelay:   cfg.VoiceFeedbackDelay,
			ListenDelay:     cfg.VoiceListenDelay,
		},
		Synthesis:    synthesis,
		Recognition:  recognition,
		RestartDelay: cfg.VoiceRestartDelay,
	}
}
