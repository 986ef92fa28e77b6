package workers

import (
	"context"
	"infinite-experiment/gosplan/internal/common"
	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/metrics"
	"infinite-experiment/gosplan/internal/services"
	"log"
	"os"
)

// InitializeWorkers starts the queue worker pool when auto sync is enabled
func InitializeWorkers(
	ctx context.Context,
	cfg *config.Config,
	queue *common.SyncQueueService,
	syncer *services.CatalogSyncService,
	reg *metrics.MetricsRegistry,
) *SyncQueueWorker {
	if !cfg.AutoSyncEnabled {
		log.Printf("[Workers] Auto sync disabled, queue workers not started")
		return nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "gosplan"
	}

	worker := NewSyncQueueWorker(hostname, queue, syncer, reg)

	numWorkers := cfg.Concurrency
	if numWorkers < 1 {
		numWorkers = 1
	}

	go func() {
		if err := worker.Start(ctx, numWorkers); err != nil {
			log.Printf("[Workers] Queue worker pool exited with error: %v", err)
		}
	}()

	return worker
}
