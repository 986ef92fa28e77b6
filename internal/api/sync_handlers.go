package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"infinite-experiment/gosplan/internal/common"
	"infinite-experiment/gosplan/internal/models/dtos"
	"infinite-experiment/gosplan/internal/services"

	"github.com/go-chi/chi/v5"
)

// TriggerSync handles POST /api/v1/products/{productType}/{productID}/sync
// Pushes the payload in the request body to the remote catalog.
func (h *Handlers) TriggerSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		item, err := decodeSyncItem(r, chi.URLParam(r, "productType"), chi.URLParam(r, "productID"))
		if err != nil {
			common.RespondError(w, initTime, err, "Invalid sync request", http.StatusBadRequest)
			return
		}

		outcome, err := h.deps.Services.Sync.SyncOne(r.Context(), item)
		h.respondOutcome(w, initTime, outcome, err)
	}
}

// TriggerDelete handles DELETE /api/v1/products/{productType}/{productID}/sync
// Mirrors a local deletion to the remote catalog.
func (h *Handlers) TriggerDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		item := &syncItem{
			ProductID:   chi.URLParam(r, "productID"),
			ProductType: chi.URLParam(r, "productType"),
		}
		if err := item.validateIdentity(); err != nil {
			common.RespondError(w, initTime, err, "Invalid delete request", http.StatusBadRequest)
			return
		}

		outcome, err := h.deps.Services.Sync.DeleteOne(r.Context(), item)
		h.respondOutcome(w, initTime, outcome, err)
	}
}

// ForceUpdate handles POST /api/v1/products/{productType}/{productID}/force-update
// Re-pushes an already created product, bypassing the duplicate-payload shortcut.
func (h *Handlers) ForceUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		item, err := decodeSyncItem(r, chi.URLParam(r, "productType"), chi.URLParam(r, "productID"))
		if err != nil {
			common.RespondError(w, initTime, err, "Invalid force update request", http.StatusBadRequest)
			return
		}

		outcome, err := h.deps.Services.Sync.ForceUpdate(r.Context(), item)
		h.respondOutcome(w, initTime, outcome, err)
	}
}

// PreviewSync handles POST /api/v1/products/{productType}/{productID}/preview
// Runs defaults and validation without touching the remote catalog.
func (h *Handlers) PreviewSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		item, err := decodeSyncItem(r, chi.URLParam(r, "productType"), chi.URLParam(r, "productID"))
		if err != nil {
			common.RespondError(w, initTime, err, "Invalid preview request", http.StatusBadRequest)
			return
		}

		preview, err := h.deps.Services.Sync.Preview(r.Context(), item)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to build preview", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Preview generated", preview)
	}
}

// EnableSync handles POST /api/v1/products/{productType}/{productID}/enable
func (h *Handlers) EnableSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		productType := chi.URLParam(r, "productType")
		productID := chi.URLParam(r, "productID")

		if err := h.deps.Services.Sync.EnableSync(r.Context(), productID, productType); err != nil {
			common.RespondError(w, initTime, err, "Failed to enable sync", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Sync enabled", nil)
	}
}

// DisableSync handles POST /api/v1/products/{productType}/{productID}/disable
func (h *Handlers) DisableSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		productType := chi.URLParam(r, "productType")
		productID := chi.URLParam(r, "productID")

		if err := h.deps.Services.Sync.DisableSync(r.Context(), productID, productType); err != nil {
			common.RespondError(w, initTime, err, "Failed to disable sync", http.StatusInternalServerError)
			return
		}

		common.RespondSuccess(w, initTime, "Sync disabled", nil)
	}
}

// BatchSync handles POST /api/v1/sync/batch
// Body is a JSON array of sync items; the batch coordinator handles chunking
// and pacing.
func (h *Handlers) BatchSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var items []*syncItem
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
			common.RespondError(w, initTime, err, "Invalid batch request", http.StatusBadRequest)
			return
		}
		if len(items) == 0 {
			common.RespondError(w, initTime, nil, "Batch request is empty", http.StatusBadRequest)
			return
		}

		entities := make([]services.CatalogEntity, 0, len(items))
		for _, item := range items {
			if err := item.validateIdentity(); err != nil {
				common.RespondError(w, initTime, err, "Invalid batch item", http.StatusBadRequest)
				return
			}
			entities = append(entities, item)
		}

		summary, err := h.deps.Services.Batch.SyncMany(r.Context(), entities)
		if err != nil && summary == nil {
			common.RespondError(w, initTime, err, "Batch sync failed", http.StatusInternalServerError)
			return
		}

		message := "Batch sync completed"
		if err != nil {
			message = "Batch sync aborted: " + err.Error()
		}
		common.RespondSuccess(w, initTime, message, summary)
	}
}

// GetRemoteProduct handles GET /api/v1/products/{productType}/{productID}/remote
// Fetches the product's current remote representation.
func (h *Handlers) GetRemoteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		productType := chi.URLParam(r, "productType")
		productID := chi.URLParam(r, "productID")

		product, err := h.deps.Services.Sync.GetRemote(r.Context(), productID, productType)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch remote product", syncErrorStatus(err))
			return
		}
		if product == nil {
			common.RespondError(w, initTime, nil, "Product has not been synced", http.StatusNotFound)
			return
		}

		common.RespondSuccess(w, initTime, "Remote product fetched", product)
	}
}

// respondOutcome maps a sync outcome onto the response envelope
func (h *Handlers) respondOutcome(w http.ResponseWriter, initTime time.Time, outcome dtos.SyncOutcome, err error) {
	switch outcome.Status {
	case dtos.OutcomeSynced:
		common.RespondSuccess(w, initTime, "Sync completed", outcome)
	case dtos.OutcomeSkipped:
		common.RespondSuccess(w, initTime, "Sync skipped: "+outcome.Reason, outcome)
	default:
		failure := err
		if failure == nil {
			failure = outcome.Err
		}
		common.RespondError(w, initTime, failure, "Sync failed", syncErrorStatus(failure))
	}
}

// syncErrorStatus maps service errors onto HTTP status codes
func syncErrorStatus(err error) int {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity
	}

	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		return http.StatusConflict
	}

	if errors.Is(err, services.ErrNotSynced) {
		return http.StatusNotFound
	}

	return http.StatusBadGateway
}
