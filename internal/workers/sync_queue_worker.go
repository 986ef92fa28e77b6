package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"infinite-experiment/gosplan/internal/common"
	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/metrics"
	"infinite-experiment/gosplan/internal/models/dtos"
	"infinite-experiment/gosplan/internal/services"
	"log"
	"sync"
	"time"
)

// SyncConsumerGroup is the consumer group queue workers join on the task stream
const SyncConsumerGroup = "sync-workers"

// outboxEntity reconstructs a syncable entity from the payload snapshot a
// queue task carries, so the worker can feed the orchestrator without loading
// the caller's domain model.
type outboxEntity struct {
	productID   string
	productType string
	payload     *dtos.ProductPayload
}

func (e *outboxEntity) CatalogID() string   { return e.productID }
func (e *outboxEntity) CatalogType() string { return e.productType }

func (e *outboxEntity) ToCatalogPayload() (*dtos.ProductPayload, error) {
	if e.payload == nil {
		return nil, fmt.Errorf("task for %s/%s carries no payload", e.productType, e.productID)
	}
	return e.payload, nil
}

// SyncQueueWorker consumes auto-sync tasks from the Redis stream and routes
// them through the sync orchestrator
type SyncQueueWorker struct {
	workerID string
	queue    *common.SyncQueueService
	syncer   *services.CatalogSyncService
	metrics  *metrics.MetricsRegistry
}

// NewSyncQueueWorker creates a new sync queue worker
func NewSyncQueueWorker(
	workerID string,
	queue *common.SyncQueueService,
	syncer *services.CatalogSyncService,
	reg *metrics.MetricsRegistry,
) *SyncQueueWorker {
	return &SyncQueueWorker{
		workerID: workerID,
		queue:    queue,
		syncer:   syncer,
		metrics:  reg,
	}
}

// Start spawns numWorkers consumers on the task stream and blocks until the
// context is cancelled
func (w *SyncQueueWorker) Start(ctx context.Context, numWorkers int) error {
	log.Printf("[SyncQueueWorker] Starting %d workers with ID prefix: %s", numWorkers, w.workerID)

	if err := w.queue.CreateConsumerGroup(ctx, common.SyncTaskStream, SyncConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		workerName := fmt.Sprintf("%s-worker-%d", w.workerID, i)

		go func(workerName string) {
			defer wg.Done()
			w.processQueue(ctx, workerName)
		}(workerName)
	}

	wg.Wait()
	log.Printf("[SyncQueueWorker] All workers stopped")
	return nil
}

// processQueue continuously consumes tasks from the stream
func (w *SyncQueueWorker) processQueue(ctx context.Context, workerName string) {
	log.Printf("[%s] Started processing queue: %s", workerName, common.SyncTaskStream)

	processedCount := 0
	errorCount := 0

	for {
		select {
		case <-ctx.Done():
			log.Printf("[%s] Shutting down. Processed: %d, Errors: %d", workerName, processedCount, errorCount)
			return
		default:
			task, messageID, err := w.queue.DequeueTask(ctx, common.SyncTaskStream, SyncConsumerGroup, workerName, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("[%s] Error dequeuing task: %v", workerName, err)
				time.Sleep(time.Second)
				continue
			}

			if task == nil {
				// Block timed out, nothing queued
				continue
			}

			if err := w.processTask(ctx, task); err != nil {
				log.Printf("[%s] Error processing task for %s/%s (event %s): %v",
					workerName, task.ProductType, task.ProductID, task.OutboxEventID, err)
				errorCount++
				w.observe("error")
				// Ack anyway: the failure is already persisted on the sync
				// record, and a redelivery would replay the same terminal
				// error. Manual or batch sync handles recovery.
				if ackErr := w.queue.AckTask(ctx, common.SyncTaskStream, SyncConsumerGroup, messageID); ackErr != nil {
					log.Printf("[%s] Error acking failed task %s: %v", workerName, messageID, ackErr)
				}
				continue
			}

			if err := w.queue.AckTask(ctx, common.SyncTaskStream, SyncConsumerGroup, messageID); err != nil {
				log.Printf("[%s] Error acking task %s: %v", workerName, messageID, err)
			}
			processedCount++
			w.observe("success")
		}
	}
}

// processTask routes one task to the matching orchestrator operation
func (w *SyncQueueWorker) processTask(ctx context.Context, task *common.SyncTask) error {
	entity := &outboxEntity{
		productID:   task.ProductID,
		productType: task.ProductType,
	}

	if task.Payload != "" {
		var payload dtos.ProductPayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal task payload: %w", err)
		}
		entity.payload = &payload
	}

	switch task.Action {
	case string(constants.SyncActionDelete):
		outcome, err := w.syncer.DeleteOne(ctx, entity)
		return taskResult(outcome, err)
	case string(constants.SyncActionCreate), string(constants.SyncActionUpdate):
		outcome, err := w.syncer.SyncOne(ctx, entity)
		return taskResult(outcome, err)
	default:
		return fmt.Errorf("unknown task action: %s", task.Action)
	}
}

// taskResult folds an outcome into an error for the worker loop. The
// orchestrator only returns an error under fail-fast config, so the worker
// also inspects the outcome itself.
func taskResult(outcome dtos.SyncOutcome, err error) error {
	if err != nil {
		return err
	}
	if outcome.Status == dtos.OutcomeFailed {
		if outcome.Err != nil {
			return outcome.Err
		}
		return fmt.Errorf("sync failed: %s", outcome.Reason)
	}
	return nil
}

func (w *SyncQueueWorker) observe(result string) {
	if w.metrics == nil {
		return
	}
	w.metrics.QueueTasksProcessed.WithLabelValues(result).Inc()
}
