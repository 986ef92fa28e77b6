package repositories

import (
	"context"
	"errors"

	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// ErrWriteConflict is returned when a conditional update loses the race
// against a concurrent writer of the same sync record.
var ErrWriteConflict = errors.New("sync record was modified concurrently")

// SyncRecordRepo is the sole writer of product_sync_records. Every update
// goes through a version-conditioned UPDATE so concurrent syncs of the same
// product cannot lose writes.
type SyncRecordRepo struct {
	db *gormlib.DB
}

// NewSyncRecordRepo creates a new sync record repository
func NewSyncRecordRepo(db *gormlib.DB) *SyncRecordRepo {
	return &SyncRecordRepo{db: db}
}

// LoadOrCreate returns the sync record for a (product_id, product_type) pair,
// creating it lazily with status=pending on first use. Idempotent: the unique
// index on the pair guarantees at most one row.
func (r *SyncRecordRepo) LoadOrCreate(ctx context.Context, productID, productType string) (*gorm.ProductSyncRecord, error) {
	record := gorm.ProductSyncRecord{
		ProductID:   productID,
		ProductType: productType,
	}

	err := r.db.WithContext(ctx).
		Where("product_id = ? AND product_type = ?", productID, productType).
		Attrs(gorm.ProductSyncRecord{
			SyncEnabled: true,
			Status:      string(constants.SyncStatusPending),
		}).
		FirstOrCreate(&record).Error

	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Find returns the record for the pair, or nil when none exists.
func (r *SyncRecordRepo) Find(ctx context.Context, productID, productType string) (*gorm.ProductSyncRecord, error) {
	var record gorm.ProductSyncRecord

	err := r.db.WithContext(ctx).
		Where("product_id = ? AND product_type = ?", productID, productType).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

// CompareAndUpdate applies mutate to the record and persists it only if no
// other writer bumped the version in between. On a lost race the in-memory
// record is left untouched and ErrWriteConflict is returned.
func (r *SyncRecordRepo) CompareAndUpdate(ctx context.Context, record *gorm.ProductSyncRecord, mutate func(*gorm.ProductSyncRecord)) error {
	expectedVersion := record.Version

	updated := *record
	mutate(&updated)
	updated.Version = expectedVersion + 1

	res := r.db.WithContext(ctx).
		Model(&gorm.ProductSyncRecord{}).
		Where("id = ? AND version = ?", record.ID, expectedVersion).
		Select("sync_enabled", "remote_id", "status", "last_synced_at",
			"last_payload", "last_error", "last_error_at", "version").
		Updates(&updated)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWriteConflict
	}

	*record = updated
	return nil
}

// ListByStatus returns records in a given lifecycle state, newest first.
func (r *SyncRecordRepo) ListByStatus(ctx context.Context, status string, limit int) ([]gorm.ProductSyncRecord, error) {
	var records []gorm.ProductSyncRecord

	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
