package api

import (
	"net/http"
	"time"

	"infinite-experiment/gosplan/internal/common"

	"github.com/go-chi/chi/v5"
)

// reportLinkTTL is how long a signed report link stays valid
const reportLinkTTL = 15 * time.Minute

// requestScheme resolves the external scheme, honoring the proxy header
func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// CreateReportLink handles POST /api/v1/products/{productType}/{productID}/report-link
// Returns a presigned single-use URL exposing the product's sync report
// without API credentials.
func (h *Handlers) CreateReportLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		productType := chi.URLParam(r, "productType")
		productID := chi.URLParam(r, "productID")

		token, err := h.deps.Services.URLSigner.GenerateReportToken(productID, productType, reportLinkTTL)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to generate report link", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Report link generated", map[string]any{
			"url":        requestScheme(r) + "://" + r.Host + "/reports/view?token=" + token,
			"expires_in": int(reportLinkTTL.Seconds()),
		})
	}
}

// GetSignedReport handles GET /reports/view?token=...
// Validates the presigned token, burns it, and returns the sync report it
// points at.
func (h *Handlers) GetSignedReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			common.RespondError(w, initTime, nil, "Missing token", http.StatusBadRequest)
			return
		}

		token, err := h.deps.Services.URLSigner.ValidateToken(r.Context(), tokenString)
		if err != nil {
			common.RespondError(w, initTime, err, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		status, err := h.deps.Services.Sync.GetStatus(r.Context(), token.ProductID, token.ProductType)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch sync report", http.StatusInternalServerError)
			return
		}
		if status == nil {
			common.RespondError(w, initTime, nil, "No sync record for product", http.StatusNotFound)
			return
		}

		logs, err := h.deps.Services.Sync.GetLogs(r.Context(), token.ProductID, token.ProductType, 20)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch sync report", http.StatusInternalServerError)
			return
		}

		if err := h.deps.Services.URLSigner.MarkTokenAsUsed(r.Context(), token.TokenID); err != nil {
			common.RespondError(w, initTime, err, "Failed to consume token", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Sync report fetched", map[string]any{
			"status": status,
			"logs":   logs,
		})
	}
}
