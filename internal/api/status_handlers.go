package api

import (
	"net/http"
	"strconv"
	"time"

	"infinite-experiment/gosplan/internal/common"

	"github.com/go-chi/chi/v5"
)

// GetSyncStatus handles GET /api/v1/products/{productType}/{productID}/status
func (h *Handlers) GetSyncStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		productType := chi.URLParam(r, "productType")
		productID := chi.URLParam(r, "productID")

		status, err := h.deps.Services.Sync.GetStatus(r.Context(), productID, productType)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch sync status", http.StatusInternalServerError)
			return
		}
		if status == nil {
			common.RespondError(w, initTime, nil, "No sync record for product", http.StatusNotFound)
			return
		}

		common.RespondSuccess(w, initTime, "Sync status fetched", status)
	}
}

// GetSyncLogs handles GET /api/v1/products/{productType}/{productID}/logs
// Supports ?limit=N, default 50.
func (h *Handlers) GetSyncLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		productType := chi.URLParam(r, "productType")
		productID := chi.URLParam(r, "productID")

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				common.RespondError(w, initTime, err, "Invalid limit parameter", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		logs, err := h.deps.Services.Sync.GetLogs(r.Context(), productID, productType, limit)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch sync logs", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Sync logs fetched", logs)
	}
}

// GetSyncStats handles GET /api/v1/sync/stats
// Aggregate reporting over the whole sync population.
func (h *Handlers) GetSyncStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		stats, err := h.deps.Repo.Stats.Stats(r.Context())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to compute sync stats", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Sync stats computed", stats)
	}
}

// TestConnection handles GET /api/v1/provider/test
// Verifies remote catalog credentials without mutating anything.
func (h *Handlers) TestConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := h.deps.Services.Provider.TestConnection(r.Context()); err != nil {
			common.RespondError(w, initTime, err, "Remote catalog unreachable", http.StatusBadGateway)
			return
		}

		common.RespondSuccess(w, initTime, "Remote catalog reachable", map[string]string{
			"provider": h.deps.Services.Provider.GetProviderType(),
		})
	}
}
