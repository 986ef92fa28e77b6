package api

import (
	"encoding/json"
	"net/http"
	"time"

	"infinite-experiment/gosplan/internal/models/dtos"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the server and its dependencies are running.
// @Tags Misc
// @Success 200 {string} string "ok"
// @Router /healthCheck [get]
func HealthCheckHandler(db *sqlx.DB, redisClient *redis.Client, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		services := make(map[string]dtos.ServiceStatus)

		// Check postgres
		pgstatus := "ok"
		pgDetails := "Postgres Connected"
		if err := db.Ping(); err != nil {
			pgstatus = "down"
			pgDetails = err.Error()
		}
		services["postgres"] = dtos.ServiceStatus{
			Status:  pgstatus,
			Details: pgDetails,
		}

		// Check redis
		redisStatus := "ok"
		redisDetails := "Redis Connected"
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			redisStatus = "down"
			redisDetails = err.Error()
		}
		services["redis"] = dtos.ServiceStatus{
			Status:  redisStatus,
			Details: redisDetails,
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := dtos.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			Uptime:   uptime,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
