package jobs

import (
	"context"
	"infinite-experiment/gosplan/internal/common"
	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/db/repositories"
	"infinite-experiment/gosplan/internal/metrics"
	"time"
)

// InitializeJobs initializes and starts all background jobs
func InitializeJobs(
	ctx context.Context,
	cfg *config.Config,
	outboxRepo *repositories.OutboxRepo,
	queue *common.SyncQueueService,
	reg *metrics.MetricsRegistry,
) *OutboxDispatcherJob {
	// Outbox dispatcher moves committed sync events onto the Redis stream
	dispatcherJob := NewOutboxDispatcherJob(cfg, outboxRepo, queue, reg)

	// Start scheduled dispatch in background
	go dispatcherJob.RunScheduled(ctx, 5*time.Second)

	return dispatcherJob
}
