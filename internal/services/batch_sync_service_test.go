package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/models/dtos"
)

// mockEntitySyncer drives the coordinator without a real orchestrator
type mockEntitySyncer struct {
	mu       sync.Mutex
	calls    int
	syncFunc func(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error)
}

func (m *mockEntitySyncer) SyncOne(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.syncFunc != nil {
		return m.syncFunc(ctx, entity)
	}
	return dtos.SyncOutcome{Status: dtos.OutcomeSynced}, nil
}

func (m *mockEntitySyncer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func makeEntities(n int) []CatalogEntity {
	entities := make([]CatalogEntity, n)
	for i := 0; i < n; i++ {
		entities[i] = &testEntity{
			id:      fmt.Sprintf("p-%d", i),
			typ:     "product",
			payload: validPayload(),
		}
	}
	return entities
}

func batchConfig() *config.Config {
	return &config.Config{
		MerchantID:      "merchant-1",
		APIBaseURL:      "https://catalog.example.com",
		APIKey:          "test-key",
		BatchSize:       50,
		InterBatchDelay: 100 * time.Millisecond,
		Concurrency:     1,
		RetryAttempts:   1,
		RetryBaseDelay:  time.Millisecond,
		ThrowOnError:    false,
	}
}

func TestSyncMany_PartitionsAndPacesGroups(t *testing.T) {
	syncer := &mockEntitySyncer{}
	svc := NewBatchSyncService(batchConfig(), syncer, nil)

	var delays []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	summary, err := svc.SyncMany(context.Background(), makeEntities(120))
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if summary.Total != 120 || summary.SuccessCount != 120 {
		t.Errorf("Expected 120/120 synced, got %d/%d", summary.SuccessCount, summary.Total)
	}
	if syncer.callCount() != 120 {
		t.Errorf("Expected 120 sync calls, got %d", syncer.callCount())
	}

	// 120 entities at batch size 50 is 3 groups: a delay before groups 2
	// and 3, never before the first.
	if len(delays) != 2 {
		t.Fatalf("Expected 2 inter-batch delays, got %d", len(delays))
	}
	for i, d := range delays {
		if d != 100*time.Millisecond {
			t.Errorf("Delay %d: expected 100ms, got %v", i, d)
		}
	}
}

func TestSyncMany_EmptyPopulation(t *testing.T) {
	syncer := &mockEntitySyncer{}
	svc := NewBatchSyncService(batchConfig(), syncer, nil)

	summary, err := svc.SyncMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if summary.Total != 0 || summary.SuccessCount != 0 || len(summary.Errors) != 0 {
		t.Errorf("Expected empty summary, got %+v", summary)
	}
}

func TestSyncMany_InvalidBatchSize(t *testing.T) {
	cfg := batchConfig()
	cfg.BatchSize = 0
	svc := NewBatchSyncService(cfg, &mockEntitySyncer{}, nil)

	if _, err := svc.SyncMany(context.Background(), makeEntities(1)); err == nil {
		t.Fatal("Expected error for batch size 0")
	}
}

func TestSyncMany_CollectsFailuresWithoutAborting(t *testing.T) {
	syncer := &mockEntitySyncer{
		syncFunc: func(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error) {
			// Every 25th entity fails; ThrowOnError is off so no error
			// propagates out of SyncOne.
			if entity.CatalogID() == "p-0" || entity.CatalogID() == "p-25" ||
				entity.CatalogID() == "p-50" || entity.CatalogID() == "p-75" ||
				entity.CatalogID() == "p-100" {
				return dtos.SyncOutcome{
					Status: dtos.OutcomeFailed,
					Err:    errors.New("remote rejected payload"),
				}, nil
			}
			return dtos.SyncOutcome{Status: dtos.OutcomeSynced}, nil
		},
	}
	svc := NewBatchSyncService(batchConfig(), syncer, nil)
	svc.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	summary, err := svc.SyncMany(context.Background(), makeEntities(120))
	if err != nil {
		t.Fatalf("Expected collected errors without abort, got %v", err)
	}

	if summary.SuccessCount != 115 {
		t.Errorf("Expected 115 successes, got %d", summary.SuccessCount)
	}
	if len(summary.Errors) != 5 {
		t.Fatalf("Expected 5 collected errors, got %d", len(summary.Errors))
	}
	if summary.Errors[0].Error == "" {
		t.Error("Expected batch error to carry the message")
	}
	if syncer.callCount() != 120 {
		t.Errorf("Expected all 120 entities attempted, got %d", syncer.callCount())
	}
}

func TestSyncMany_FailFastAborts(t *testing.T) {
	cfg := batchConfig()
	cfg.ThrowOnError = true
	cause := errors.New("authentication failed")

	syncer := &mockEntitySyncer{
		syncFunc: func(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error) {
			if entity.CatalogID() == "p-10" {
				return dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: cause}, cause
			}
			return dtos.SyncOutcome{Status: dtos.OutcomeSynced}, nil
		},
	}
	svc := NewBatchSyncService(cfg, syncer, nil)
	svc.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	summary, err := svc.SyncMany(context.Background(), makeEntities(120))
	if !errors.Is(err, cause) {
		t.Fatalf("Expected fail-fast error, got %v", err)
	}

	// Sequential processing: the 11 entities before the failure completed,
	// nothing past the failing one was attempted.
	if syncer.callCount() != 11 {
		t.Errorf("Expected 11 entities attempted before abort, got %d", syncer.callCount())
	}
	if summary.SuccessCount != 10 {
		t.Errorf("Expected 10 successes before abort, got %d", summary.SuccessCount)
	}
}

func TestSyncMany_CancelledBetweenGroups(t *testing.T) {
	syncer := &mockEntitySyncer{}
	svc := NewBatchSyncService(batchConfig(), syncer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	summary, err := svc.SyncMany(ctx, makeEntities(120))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	// Only the first group ran; completed entities keep their outcomes.
	if syncer.callCount() != 50 {
		t.Errorf("Expected 50 entities attempted, got %d", syncer.callCount())
	}
	if summary.SuccessCount != 50 {
		t.Errorf("Expected 50 successes preserved, got %d", summary.SuccessCount)
	}
}

func TestSyncMany_ConcurrentWorkers(t *testing.T) {
	cfg := batchConfig()
	cfg.Concurrency = 4
	cfg.InterBatchDelay = 0 // no limiter, no pacing

	var mu sync.Mutex
	inFlight := 0
	peak := 0

	syncer := &mockEntitySyncer{
		syncFunc: func(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return dtos.SyncOutcome{Status: dtos.OutcomeSynced}, nil
		},
	}
	svc := NewBatchSyncService(cfg, syncer, nil)

	summary, err := svc.SyncMany(context.Background(), makeEntities(40))
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if summary.SuccessCount != 40 {
		t.Errorf("Expected 40 successes, got %d", summary.SuccessCount)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > cfg.Concurrency {
		t.Errorf("Concurrency bound exceeded: peak %d > limit %d", peak, cfg.Concurrency)
	}
	if peak < 2 {
		t.Errorf("Expected concurrent execution, peak was %d", peak)
	}
}
