package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/logging"
	"infinite-experiment/gosplan/internal/metrics"
	"infinite-experiment/gosplan/internal/models/dtos"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// EntitySyncer is the per-entity operation the batch coordinator drives.
type EntitySyncer interface {
	SyncOne(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error)
}

// BatchSyncService processes a population of entities in bounded groups,
// throttling between groups so the remote API is never flooded.
type BatchSyncService struct {
	cfg     *config.Config
	syncer  EntitySyncer
	metrics *metrics.MetricsRegistry

	// limiter is the shared rate backstop for concurrent workers. With the
	// default sequential processing the inter-batch delay alone bounds the
	// request rate, so the limiter only exists when Concurrency > 1.
	limiter *rate.Limiter

	// sleep is swapped out in tests; defaults to a context-aware sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatchSyncService creates the batch coordinator. metricsReg may be nil in
// tests.
func NewBatchSyncService(cfg *config.Config, syncer EntitySyncer, metricsReg *metrics.MetricsRegistry) *BatchSyncService {
	s := &BatchSyncService{
		cfg:     cfg,
		syncer:  syncer,
		metrics: metricsReg,
	}

	if cfg.Concurrency > 1 && cfg.InterBatchDelay > 0 {
		// Cap concurrent throughput at one batch per inter-batch window,
		// matching what sequential processing would have allowed.
		perSecond := float64(cfg.BatchSize) / cfg.InterBatchDelay.Seconds()
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), cfg.BatchSize)
	}

	return s
}

// SyncMany partitions entities into consecutive groups of the configured
// batch size and syncs them, suspending between groups. With ThrowOnError the
// first failure aborts the run and propagates; otherwise every error is
// collected into the summary.
func (s *BatchSyncService) SyncMany(ctx context.Context, entities []CatalogEntity) (*dtos.BatchSummary, error) {
	if s.cfg.BatchSize < 1 {
		return nil, fmt.Errorf("invalid batch size %d: must be >= 1", s.cfg.BatchSize)
	}

	start := time.Now()
	summary := &dtos.BatchSummary{Total: len(entities)}
	if len(entities) == 0 {
		return summary, nil
	}

	var mu sync.Mutex
	groups := partition(entities, s.cfg.BatchSize)

	logging.Info("batch sync starting",
		"total", summary.Total,
		"groups", len(groups),
		"batch_size", s.cfg.BatchSize,
	)

	for groupIndex, group := range groups {
		if groupIndex > 0 {
			if err := s.suspend(ctx, s.cfg.InterBatchDelay); err != nil {
				// Cancelled between groups: completed entities keep their
				// outcomes, nothing further is started.
				return summary, err
			}
		}

		if err := s.syncGroup(ctx, group, summary, &mu); err != nil {
			return summary, err
		}
	}

	if s.metrics != nil {
		s.metrics.BatchRunsTotal.Inc()
		s.metrics.BatchEntities.Observe(float64(summary.Total))
	}

	logging.Info("batch sync completed",
		"total", summary.Total,
		"success", summary.SuccessCount,
		"failed", len(summary.Errors),
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)

	return summary, nil
}

func (s *BatchSyncService) syncGroup(ctx context.Context, group []CatalogEntity, summary *dtos.BatchSummary, mu *sync.Mutex) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, entity := range group {
		entity := entity
		g.Go(func() error {
			// Cooperative cancellation check before each entity starts;
			// an already in-flight entity finishes its remote call.
			if err := gctx.Err(); err != nil {
				return err
			}

			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			outcome, err := s.syncer.SyncOne(gctx, entity)

			mu.Lock()
			switch outcome.Status {
			case dtos.OutcomeSynced:
				summary.SuccessCount++
			case dtos.OutcomeFailed:
				summary.Errors = append(summary.Errors, dtos.BatchError{
					ProductID:   entity.CatalogID(),
					ProductType: entity.CatalogType(),
					Error:       outcome.Error(),
				})
			}
			mu.Unlock()

			// err is only non-nil under the fail-fast policy; returning it
			// cancels gctx and aborts the remaining entities.
			return err
		})
	}

	return g.Wait()
}

func (s *BatchSyncService) suspend(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if s.sleep != nil {
		return s.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// partition splits entities into consecutive groups of size; the last group
// may be smaller.
func partition(entities []CatalogEntity, size int) [][]CatalogEntity {
	var groups [][]CatalogEntity
	for start := 0; start < len(entities); start += size {
		end := start + size
		if end > len(entities) {
			end = len(entities)
		}
		groups = append(groups, entities[start:end])
	}
	return groups
}
