package repositories

import (
	"context"
	"time"

	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// OutboxRepo handles catalog_sync_outbox operations.
type OutboxRepo struct {
	db *gormlib.DB
}

// NewOutboxRepo creates a new outbox repository
func NewOutboxRepo(db *gormlib.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

// Enqueue inserts an outbox event. Callers that mutate products inside a
// transaction should pass the transaction handle via EnqueueTx instead so the
// event commits atomically with the mutation.
func (r *OutboxRepo) Enqueue(ctx context.Context, event *gorm.SyncOutboxEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// EnqueueTx inserts an outbox event inside the caller's transaction.
func (r *OutboxRepo) EnqueueTx(tx *gormlib.DB, event *gorm.SyncOutboxEvent) error {
	return tx.Create(event).Error
}

// FetchPending returns the oldest pending events up to limit.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]gorm.SyncOutboxEvent, error) {
	var events []gorm.SyncOutboxEvent

	err := r.db.WithContext(ctx).
		Where("status = ?", constants.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error

	if err != nil {
		return nil, err
	}

	return events, nil
}

// MarkDispatched flips an event to dispatched after it reached the stream.
func (r *OutboxRepo) MarkDispatched(ctx context.Context, eventID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&gorm.SyncOutboxEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":        constants.OutboxStatusDispatched,
			"dispatched_at": &now,
			"attempts":      gormlib.Expr("attempts + 1"),
		}).Error
}

// MarkFailed bumps the attempt counter and keeps the event pending so the
// next dispatcher pass retries it; after maxAttempts it is parked as failed.
func (r *OutboxRepo) MarkFailed(ctx context.Context, eventID string, maxAttempts int) error {
	res := r.db.WithContext(ctx).
		Model(&gorm.SyncOutboxEvent{}).
		Where("id = ? AND attempts + 1 >= ?", eventID, maxAttempts).
		Updates(map[string]interface{}{
			"status":   constants.OutboxStatusFailed,
			"attempts": gormlib.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Model(&gorm.SyncOutboxEvent{}).
		Where("id = ?", eventID).
		Update("attempts", gormlib.Expr("attempts + 1")).Error
}

// CountPending returns the current outbox backlog size.
func (r *OutboxRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&gorm.SyncOutboxEvent{}).
		Where("status = ?", constants.OutboxStatusPending).
		Count(&count).Error

	return count, err
}
