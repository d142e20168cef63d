package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-scoring/internal/cache"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/database"
	"github.com/stemsi/exstem-scoring/internal/handler"
	"github.com/stemsi/exstem-scoring/internal/logger"
	"github.com/stemsi/exstem-scoring/internal/queue"
	"github.com/stemsi/exstem-scoring/internal/repository"
	"github.com/stemsi/exstem-scoring/internal/router"
	"github.com/stemsi/exstem-scoring/internal/scoring"
	"github.com/stemsi/exstem-scoring/internal/service"
	"github.com/stemsi/exstem-scoring/internal/validator"
	"github.com/stemsi/exstem-scoring/internal/worker"
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
		Str("default_variant", cfg.DefaultVariant).
		Msg("Starting ExStem Scoring")

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
	testRepo := repository.NewTestRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	definitionCache := cache.NewRedis(rdb)
	workQueue := queue.NewRedisQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	engine := scoring.New(
		scoring.WithLogger(log),
		scoring.WithDefaultVariant(scoring.ParseVariant(cfg.DefaultVariant)),
	)
	scoringService := service.NewScoringService(engine, cfg.DefaultVariant, log)
	testService := service.NewTestService(testRepo, definitionCache, engine, cfg.DefaultVariant, log)
	submissionService := service.NewSubmissionService(submissionRepo, testService, definitionCache, workQueue, engine, log)
	rescoreService := service.NewRescoreService(submissionRepo, testService, workQueue, cfg.RescorePageSize, log)
	exportService := service.NewExportService(submissionRepo, testService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Scoring:    handler.NewScoringHandler(scoringService, log),
		Test:       handler.NewTestHandler(testService, rescoreService, exportService, log),
		Submission: handler.NewSubmissionHandler(submissionService, log),
		WS:         handler.NewWSHandler(submissionService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(workQueue, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	autosaveWorker := worker.NewAutosaveWorker(submissionRepo, workQueue, log)
	scoringWorker := worker.NewScoringWorker(submissionRepo, definitionCache, workQueue, cfg.ScoreBatchSize, cfg.ScoreFlushInterval, log)
	rescoreWorker := worker.NewRescoreWorker(submissionService, workQueue, log)

	for _, start := range []func(context.Context){autosaveWorker.Start, scoringWorker.Start, rescoreWorker.Start} {
		workers.Add(1)
		go func(start func(context.Context)) {
			defer workers.Done()
			start(workerCtx)
		}(start)
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every stored test into Redis BEFORE accepting traffic so the
	// first submits do not stampede Postgres.
	if err := testService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop background workers and wait for in-flight batches to flush.
	workerCancel()
	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Workers did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
