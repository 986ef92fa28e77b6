package repositories

import (
	"context"
	"errors"
	"testing"

	"infinite-experiment/gosplan/internal/constants"
	gormModels "infinite-experiment/gosplan/internal/models/gorm"

	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepoTestDB(t *testing.T) *gormlib.DB {
	t.Helper()
	db, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&gormModels.ProductSyncRecord{},
		&gormModels.SyncAttemptLog{},
		&gormModels.SyncOutboxEvent{},
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestLoadOrCreate_Idempotent(t *testing.T) {
	repo := NewSyncRecordRepo(setupRepoTestDB(t))
	ctx := context.Background()

	first, err := repo.LoadOrCreate(ctx, "p-1", "product")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if first.Status != string(constants.SyncStatusPending) {
		t.Errorf("Expected pending status on creation, got %s", first.Status)
	}
	if !first.SyncEnabled {
		t.Error("Expected sync enabled on creation")
	}
	if first.ID == "" {
		t.Error("Expected UUID assigned")
	}

	second, err := repo.LoadOrCreate(ctx, "p-1", "product")
	if err != nil {
		t.Fatalf("Second LoadOrCreate failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected same record, got %s then %s", first.ID, second.ID)
	}
}

func TestLoadOrCreate_TypeIsPartOfIdentity(t *testing.T) {
	repo := NewSyncRecordRepo(setupRepoTestDB(t))
	ctx := context.Background()

	product, _ := repo.LoadOrCreate(ctx, "id-1", "product")
	variant, err := repo.LoadOrCreate(ctx, "id-1", "variant")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if product.ID == variant.ID {
		t.Error("Expected distinct records per (product_id, product_type) pair")
	}
}

func TestFind_UnknownReturnsNil(t *testing.T) {
	repo := NewSyncRecordRepo(setupRepoTestDB(t))

	record, err := repo.Find(context.Background(), "ghost", "product")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if record != nil {
		t.Errorf("Expected nil for unknown pair, got %+v", record)
	}
}

func TestCompareAndUpdate_PersistsAndBumpsVersion(t *testing.T) {
	repo := NewSyncRecordRepo(setupRepoTestDB(t))
	ctx := context.Background()

	record, _ := repo.LoadOrCreate(ctx, "p-2", "product")
	startVersion := record.Version

	remoteID := "remote-9"
	err := repo.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.Status = string(constants.SyncStatusSynced)
		r.RemoteID = &remoteID
	})
	if err != nil {
		t.Fatalf("CompareAndUpdate failed: %v", err)
	}
	if record.Version != startVersion+1 {
		t.Errorf("Expected version bump to %d, got %d", startVersion+1, record.Version)
	}

	reloaded, _ := repo.Find(ctx, "p-2", "product")
	if reloaded.Status != string(constants.SyncStatusSynced) {
		t.Errorf("Expected persisted status, got %s", reloaded.Status)
	}
	if reloaded.RemoteID == nil || *reloaded.RemoteID != "remote-9" {
		t.Errorf("Expected persisted remote ID, got %v", reloaded.RemoteID)
	}
}

func TestCompareAndUpdate_ClearsNullableColumns(t *testing.T) {
	repo := NewSyncRecordRepo(setupRepoTestDB(t))
	ctx := context.Background()

	record, _ := repo.LoadOrCreate(ctx, "p-3", "product")
	remoteID := "remote-1"
	msg := "boom"
	if err := repo.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.RemoteID = &remoteID
		r.LastError = &msg
	}); err != nil {
		t.Fatalf("Setup update failed: %v", err)
	}

	// Clearing pointer columns back to NULL must persist too
	if err := repo.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.RemoteID = nil
		r.LastError = nil
	}); err != nil {
		t.Fatalf("Clearing update failed: %v", err)
	}

	reloaded, _ := repo.Find(ctx, "p-3", "product")
	if reloaded.RemoteID != nil {
		t.Errorf("Expected remote ID cleared, got %v", *reloaded.RemoteID)
	}
	if reloaded.LastError != nil {
		t.Errorf("Expected last error cleared, got %v", *reloaded.LastError)
	}
}

func TestCompareAndUpdate_StaleWriterLoses(t *testing.T) {
	repo := NewSyncRecordRepo(setupRepoTestDB(t))
	ctx := context.Background()

	if _, err := repo.LoadOrCreate(ctx, "p-4", "product"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	// Two writers hold the same version
	writerA, _ := repo.Find(ctx, "p-4", "product")
	writerB, _ := repo.Find(ctx, "p-4", "product")

	if err := repo.CompareAndUpdate(ctx, writerA, func(r *gormModels.ProductSyncRecord) {
		r.Status = string(constants.SyncStatusSynced)
	}); err != nil {
		t.Fatalf("First writer failed: %v", err)
	}

	err := repo.CompareAndUpdate(ctx, writerB, func(r *gormModels.ProductSyncRecord) {
		r.Status = string(constants.SyncStatusFailed)
	})
	if !errors.Is(err, ErrWriteConflict) {
		t.Fatalf("Expected ErrWriteConflict for stale writer, got %v", err)
	}

	// The losing writer's copy stays untouched, the winner's write survives
	if writerB.Status == string(constants.SyncStatusFailed) {
		t.Error("Expected losing writer's in-memory copy untouched")
	}
	reloaded, _ := repo.Find(ctx, "p-4", "product")
	if reloaded.Status != string(constants.SyncStatusSynced) {
		t.Errorf("Expected winner's status persisted, got %s", reloaded.Status)
	}
}

func TestSyncLogRepo_AppendAndQuery(t *testing.T) {
	db := setupRepoTestDB(t)
	records := NewSyncRecordRepo(db)
	logs := NewSyncLogRepo(db)
	ctx := context.Background()

	record, _ := records.LoadOrCreate(ctx, "p-5", "product")

	failure := "remote unavailable"
	entries := []*gormModels.SyncAttemptLog{
		{SyncRecordID: record.ID, Action: "create", Status: "failed", ErrorMessage: &failure},
		{SyncRecordID: record.ID, Action: "create", Status: "success"},
		{SyncRecordID: record.ID, Action: "update", Status: "success"},
	}
	for _, entry := range entries {
		if err := logs.Append(ctx, entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := logs.GetByRecord(ctx, record.ID, 10)
	if err != nil {
		t.Fatalf("GetByRecord failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}

	lastSuccess, err := logs.GetLastSuccess(ctx, record.ID)
	if err != nil || lastSuccess == nil {
		t.Fatalf("GetLastSuccess failed: %v / %v", lastSuccess, err)
	}
	if lastSuccess.Action != "update" {
		t.Errorf("Expected newest success to be the update, got %s", lastSuccess.Action)
	}

	lastFailure, err := logs.GetLastFailure(ctx, record.ID)
	if err != nil || lastFailure == nil {
		t.Fatalf("GetLastFailure failed: %v / %v", lastFailure, err)
	}
	if lastFailure.ErrorMessage == nil || *lastFailure.ErrorMessage != failure {
		t.Errorf("Expected failure message preserved, got %v", lastFailure.ErrorMessage)
	}
}

func TestOutboxRepo_Lifecycle(t *testing.T) {
	repo := NewOutboxRepo(setupRepoTestDB(t))
	ctx := context.Background()

	event := &gormModels.SyncOutboxEvent{
		ProductID:   "p-6",
		ProductType: "product",
		Action:      "create",
		Payload:     `{"offerId":"p-6"}`,
		Status:      constants.OutboxStatusPending,
	}
	if err := repo.Enqueue(ctx, event); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	pending, err := repo.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending event, got %d", len(pending))
	}

	if err := repo.MarkDispatched(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkDispatched failed: %v", err)
	}

	pending, _ = repo.FetchPending(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("Expected no pending events after dispatch, got %d", len(pending))
	}

	count, err := repo.CountPending(ctx)
	if err != nil || count != 0 {
		t.Errorf("Expected pending count 0, got %d / %v", count, err)
	}
}

func TestOutboxRepo_MarkFailedParksAfterMaxAttempts(t *testing.T) {
	repo := NewOutboxRepo(setupRepoTestDB(t))
	ctx := context.Background()

	event := &gormModels.SyncOutboxEvent{
		ProductID:   "p-7",
		ProductType: "product",
		Action:      "update",
		Status:      constants.OutboxStatusPending,
	}
	if err := repo.Enqueue(ctx, event); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Two failures stay pending, the third parks the event
	for i := 0; i < 2; i++ {
		if err := repo.MarkFailed(ctx, event.ID, 3); err != nil {
			t.Fatalf("MarkFailed %d failed: %v", i, err)
		}
		pending, _ := repo.FetchPending(ctx, 10)
		if len(pending) != 1 {
			t.Fatalf("Expected event still pending after failure %d, got %d", i+1, len(pending))
		}
	}

	if err := repo.MarkFailed(ctx, event.ID, 3); err != nil {
		t.Fatalf("Final MarkFailed failed: %v", err)
	}
	pending, _ := repo.FetchPending(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("Expected event parked after max attempts, got %d pending", len(pending))
	}
}
