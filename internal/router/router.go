package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-scoring/internal/config"
	"github.com/stemsi/exstem-scoring/internal/handler"
	"github.com/stemsi/exstem-scoring/internal/middleware"
	"github.com/stemsi/exstem-scoring/internal/response"
)

// bandCacheSeconds is how long clients may cache a band lookup.
const bandCacheSeconds = 86400

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Scoring    *handler.ScoringHandler
	Test       *handler.TestHandler
	Submission *handler.SubmissionHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by middlewares.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// xlsx files are zip archives already.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper: func(c *gin.Context) bool {
			return strings.HasSuffix(c.Request.URL.Path, "/results/export")
		},
	}))

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// ─── 1. Stateless Scoring (Rate Limited) ───────────────────────────
	evalLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
	scoring := api.Group("/scoring")
	{
		scoring.POST("/evaluate", evalLimiter.Middleware(), handlers.Scoring.Evaluate)
		scoring.GET("/band", middleware.CacheControl(bandCacheSeconds), handlers.Scoring.Band)
	}

	// ─── 2. Tests ──────────────────────────────────────────────────────
	tests := api.Group("/tests")
	{
		tests.GET("", handlers.Test.ListTests)
		tests.POST("", handlers.Test.CreateTest)
		tests.GET("/:test_id", handlers.Test.GetTest)
		tests.PUT("/:test_id", handlers.Test.UpdateTest)
		tests.DELETE("/:test_id", handlers.Test.DeleteTest)
		tests.POST("/:test_id/rescore", handlers.Test.RescoreTest)
		tests.GET("/:test_id/results/export", handlers.Test.ExportResults)
		tests.POST("/:test_id/submissions", handlers.Submission.StartSubmission)
	}

	// ─── 3. Submissions ────────────────────────────────────────────────
	submissions := api.Group("/submissions/:submission_id")
	{
		submissions.GET("", handlers.Submission.GetSubmission)
		submissions.PUT("/answers", handlers.Submission.SaveAnswers)
		submissions.POST("/submit", handlers.Submission.SubmitSubmission)
		submissions.GET("/result", handlers.Submission.GetResult)
	}

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/submissions/:submission_id/stream", handlers.WS.SubmissionStream)
	}

	// ─── 5. System ─────────────────────────────────────────────────────
	system := api.Group("/system")
	{
		system.GET("/queues", handlers.System.QueueDepths)
	}

	return router
}
