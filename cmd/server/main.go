package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/db"
	"infinite-experiment/gosplan/internal/logging"
	"infinite-experiment/gosplan/internal/routes"
)

// @title Gosplan Catalog Sync API
// @version 1.0
// @description Sync orchestration engine between local product catalogs and a remote merchant API.
// @host localhost:8080
// @BasePath /
func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}

	if err := logging.Init(appEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Gosplan starting up",
		"environment", appEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	// Load sync engine configuration; a missing credential is fatal at boot,
	// never midway through a batch
	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err.Error())
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	logging.Info("Configuration loaded",
		"merchant_id", cfg.MerchantID,
		"batch_size", cfg.BatchSize,
		"concurrency", cfg.Concurrency,
		"auto_sync", cfg.AutoSyncEnabled,
	)

	// Connect to DB with sqlx
	if err := db.InitPostgres(); err != nil {
		logging.Error("Failed to connect to Postgres (sqlx)", "error", err.Error())
		log.Fatalf("❌ Failed to connect to Postgres (sqlx): %v", err)
	}
	logging.Info("Connected to Postgres (sqlx)")

	// Connect to DB with GORM
	host := os.Getenv("PG_HOST")
	port := os.Getenv("PG_PORT")
	user := os.Getenv("PG_USER")
	dbname := os.Getenv("PG_DB")
	password := os.Getenv("PG_PASSWORD")
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)

	gormDB, err := db.InitPostgresORM(dsn)
	if err != nil {
		logging.Error("Failed to connect to Postgres (GORM)", "error", err.Error())
		log.Fatalf("❌ Failed to connect to Postgres (GORM): %v", err)
	}
	logging.Info("Connected to Postgres (GORM)")

	if err := db.MigrateSyncTables(gormDB); err != nil {
		logging.Error("Failed to migrate sync tables", "error", err.Error())
		log.Fatalf("❌ Failed to migrate sync tables: %v", err)
	}
	logging.Info("Sync tables migrated")

	upSince := time.Now()

	// Initialize router with Chi
	// Note: metricsReg is created in RegisterRoutes and applied as global middleware
	router := routes.RegisterRoutes(cfg, upSince)

	// Setup metrics endpoint outside of Chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router) // Mount Chi router at root
	logging.Info("Prometheus metrics endpoint registered at /metrics")

	logging.Info("Server starting",
		"port", 8080,
		"environment", appEnv,
	)

	log.Println("Starting server on :8080")
	log.Fatal(http.ListenAndServe(":8080", mux))
}
