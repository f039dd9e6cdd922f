package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/config"
	"github.com/coursekit/examforge/internal/database"
	"github.com/coursekit/examforge/internal/engine"
	"github.com/coursekit/examforge/internal/genai"
	"github.com/coursekit/examforge/internal/handler"
	"github.com/coursekit/examforge/internal/logger"
	"github.com/coursekit/examforge/internal/repository"
	"github.com/coursekit/examforge/internal/router"
	"github.com/coursekit/examforge/internal/service"
	"github.com/coursekit/examforge/internal/validator"
	"github.com/coursekit/examforge/internal/websocket"
	"github.com/coursekit/examforge/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamForge Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	chapterRepo := repository.NewChapterRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	// ─── Initialize Generation Capability ─────────────────────────────
	// Without an API key the engine runs repository-only and question
	// analysis is disabled.
	var (
		gen engine.Generator
		ai  *genai.Adapter
	)
	if cfg.GenAIAPIKey != "" {
		provider := genai.NewOpenAIProvider(cfg.GenAIBaseURL, cfg.GenAIAPIKey, cfg.GenAIModel)
		ai = genai.NewAdapter(provider, cfg.GenAITimeout, log)
		gen = ai
		log.Info().Str("model", cfg.GenAIModel).Msg("Generation capability enabled")
	} else {
		log.Info().Msg("Generation capability disabled: no API key configured")
	}

	// ─── Initialize Event Hub ─────────────────────────────────────────
	hub := websocket.NewHub(log)

	// ─── Initialize Services ──────────────────────────────────────────
	eng := engine.New(questionRepo, gen, log)
	authService := service.NewAuthService(cfg, userRepo, rdb)
	catalogService := service.NewCatalogService(courseRepo, chapterRepo)
	questionService := service.NewQuestionService(questionRepo, chapterRepo, courseRepo, ai, log)
	analyticsService := service.NewAnalyticsService(rdb, examRepo, hub, log)
	assemblyService := service.NewAssemblyService(
		eng, examRepo, questionRepo, chapterRepo, courseRepo, analyticsService, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Course:   handler.NewCourseHandler(catalogService),
		Question: handler.NewQuestionHandler(questionService),
		Exam:     handler.NewExamHandler(assemblyService, analyticsService, examRepo),
		WS:       handler.NewWSHandler(hub, cfg.AllowedOrigins, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	go hub.Run(workerCtx)

	analyticsWorker := worker.NewAnalyticsWorker(pool, rdb, log)
	go analyticsWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the hub and worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
