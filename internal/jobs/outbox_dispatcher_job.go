package jobs

import (
	"context"
	"fmt"
	"infinite-experiment/gosplan/internal/common"
	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/db/repositories"
	"infinite-experiment/gosplan/internal/metrics"
	"log"
	"time"
)

const (
	// dispatchBatchSize caps how many outbox events one pass moves to the stream
	dispatchBatchSize = 100

	// maxDispatchAttempts is how many passes may fail on an event before it is parked
	maxDispatchAttempts = 5
)

// OutboxDispatcherJob drains pending outbox events onto the Redis sync stream
// so queue workers can pick them up. Events that reached the stream are marked
// dispatched; events that could not be enqueued stay pending for the next pass.
type OutboxDispatcherJob struct {
	cfg        *config.Config
	outboxRepo *repositories.OutboxRepo
	queue      *common.SyncQueueService
	metrics    *metrics.MetricsRegistry
}

// NewOutboxDispatcherJob creates a new outbox dispatcher job instance
func NewOutboxDispatcherJob(
	cfg *config.Config,
	outboxRepo *repositories.OutboxRepo,
	queue *common.SyncQueueService,
	reg *metrics.MetricsRegistry,
) *OutboxDispatcherJob {
	return &OutboxDispatcherJob{
		cfg:        cfg,
		outboxRepo: outboxRepo,
		queue:      queue,
		metrics:    reg,
	}
}

// Run executes one dispatch pass over the pending outbox
func (j *OutboxDispatcherJob) Run(ctx context.Context) error {
	if !j.cfg.AutoSyncEnabled {
		return nil
	}

	start := time.Now()

	events, err := j.outboxRepo.FetchPending(ctx, dispatchBatchSize)
	if err != nil {
		log.Printf("[OutboxDispatcherJob] Error fetching pending events: %v", err)
		return fmt.Errorf("failed to fetch pending outbox events: %w", err)
	}

	if len(events) == 0 {
		j.observeBacklog(ctx)
		return nil
	}

	log.Printf("[OutboxDispatcherJob] Dispatching %d pending events", len(events))

	dispatched := 0
	failed := 0
	for _, event := range events {
		task := &common.SyncTask{
			OutboxEventID: event.ID,
			ProductID:     event.ProductID,
			ProductType:   event.ProductType,
			Action:        event.Action,
			Payload:       event.Payload,
		}

		if err := j.queue.EnqueueTask(ctx, common.SyncTaskStream, task); err != nil {
			log.Printf("[OutboxDispatcherJob] Error enqueuing event %s (%s/%s): %v",
				event.ID, event.ProductType, event.ProductID, err)
			if markErr := j.outboxRepo.MarkFailed(ctx, event.ID, maxDispatchAttempts); markErr != nil {
				log.Printf("[OutboxDispatcherJob] Error recording failed dispatch for %s: %v", event.ID, markErr)
			}
			failed++
			continue
		}

		if err := j.outboxRepo.MarkDispatched(ctx, event.ID); err != nil {
			// The task is already on the stream; the worker side tolerates a
			// duplicate if the next pass re-dispatches this event.
			log.Printf("[OutboxDispatcherJob] Error marking event %s dispatched: %v", event.ID, err)
			failed++
			continue
		}
		dispatched++
	}

	log.Printf("[OutboxDispatcherJob] Completed pass in %s. Dispatched: %d, Failed: %d",
		time.Since(start).Truncate(time.Millisecond), dispatched, failed)

	j.observeBacklog(ctx)
	return nil
}

// observeBacklog refreshes the pending-backlog gauge
func (j *OutboxDispatcherJob) observeBacklog(ctx context.Context) {
	if j.metrics == nil {
		return
	}
	pending, err := j.outboxRepo.CountPending(ctx)
	if err != nil {
		return
	}
	j.metrics.OutboxPending.Set(float64(pending))
}

// RunScheduled runs the dispatcher on a fixed interval until the context ends
func (j *OutboxDispatcherJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	if err := j.Run(ctx); err != nil {
		log.Printf("[OutboxDispatcherJob] Error in initial run: %v", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[OutboxDispatcherJob] Error in scheduled run: %v", err)
			}
		case <-ctx.Done():
			log.Printf("[OutboxDispatcherJob] Shutting down scheduled dispatch")
			return
		}
	}
}
