package repositories

import (
	"context"
	"errors"

	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SyncLogRepo handles sync_attempt_logs operations. The table is append-only;
// nothing here updates or deletes rows.
type SyncLogRepo struct {
	db *gormlib.DB
}

// NewSyncLogRepo creates a new attempt log repository
func NewSyncLogRepo(db *gormlib.DB) *SyncLogRepo {
	return &SyncLogRepo{db: db}
}

// Append writes one terminal-outcome audit row.
func (r *SyncLogRepo) Append(ctx context.Context, entry *gorm.SyncAttemptLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetByRecord returns the newest attempt rows for a sync record.
func (r *SyncLogRepo) GetByRecord(ctx context.Context, syncRecordID string, limit int) ([]gorm.SyncAttemptLog, error) {
	var entries []gorm.SyncAttemptLog

	query := r.db.WithContext(ctx).
		Where("sync_record_id = ?", syncRecordID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

// GetLastSuccess returns the most recent successful attempt, or nil.
func (r *SyncLogRepo) GetLastSuccess(ctx context.Context, syncRecordID string) (*gorm.SyncAttemptLog, error) {
	return r.lastByStatus(ctx, syncRecordID, string(constants.SyncLogSuccess))
}

// GetLastFailure returns the most recent failed attempt, or nil.
func (r *SyncLogRepo) GetLastFailure(ctx context.Context, syncRecordID string) (*gorm.SyncAttemptLog, error) {
	return r.lastByStatus(ctx, syncRecordID, string(constants.SyncLogFailed))
}

func (r *SyncLogRepo) lastByStatus(ctx context.Context, syncRecordID, status string) (*gorm.SyncAttemptLog, error) {
	var entry gorm.SyncAttemptLog

	err := r.db.WithContext(ctx).
		Where("sync_record_id = ? AND status = ?", syncRecordID, status).
		Order("created_at DESC").
		First(&entry).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &entry, nil
}
