package routes

import (
	"context"
	"net/http"
	"time"

	"infinite-experiment/gosplan/internal/api"
	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/db"
	"infinite-experiment/gosplan/internal/jobs"
	"infinite-experiment/gosplan/internal/logging"
	"infinite-experiment/gosplan/internal/metrics"
	"infinite-experiment/gosplan/internal/middleware"
	"infinite-experiment/gosplan/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func RegisterRoutes(cfg *config.Config, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// Initialize metrics registry
	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	// Initialize dependencies using DI pattern
	deps, err := api.InitDependencies(cfg, metricsReg)
	if err != nil {
		panic("Failed to initialize dependencies: " + err.Error())
	}

	// Initialize handlers with dependencies
	handlers := api.NewHandlers(deps)

	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, deps.Redis, upSince))

	// Presigned report access sits outside the API namespace
	r.Get("/reports/view", handlers.GetSignedReport())

	// Outbox dispatcher drains committed sync events onto the stream
	jobs.InitializeJobs(
		context.Background(),
		cfg,
		deps.Repo.Outbox,
		deps.Services.Queue,
		metricsReg,
	)

	// Queue workers consume the stream and run the orchestrator
	workers.InitializeWorkers(
		context.Background(),
		cfg,
		deps.Services.Queue,
		deps.Services.Sync,
		metricsReg,
	)

	// Register API routes
	RegisterAPIRoutes(r, handlers)

	return r
}
