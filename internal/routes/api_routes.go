package routes

import (
	"infinite-experiment/gosplan/internal/api"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
// This keeps API route registration separate from the main router setup
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers) {

	r.Route("/api/v1", func(v1 chi.Router) {
		// Per-product sync surface
		v1.Route("/products/{productType}/{productID}", func(p chi.Router) {
			p.Post("/sync", handlers.TriggerSync())
			p.Delete("/sync", handlers.TriggerDelete())
			p.Post("/force-update", handlers.ForceUpdate())
			p.Post("/preview", handlers.PreviewSync())
			p.Post("/enable", handlers.EnableSync())
			p.Post("/disable", handlers.DisableSync())
			p.Get("/remote", handlers.GetRemoteProduct())
			p.Get("/status", handlers.GetSyncStatus())
			p.Get("/logs", handlers.GetSyncLogs())
			p.Post("/report-link", handlers.CreateReportLink())
		})

		// Batch coordination
		v1.Post("/sync/batch", handlers.BatchSync())

		// Reporting and diagnostics
		v1.Get("/sync/stats", handlers.GetSyncStats())
		v1.Get("/provider/test", handlers.TestConnection())
	})
}
