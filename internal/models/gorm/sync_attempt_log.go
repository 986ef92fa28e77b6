package gorm

import (
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// SyncAttemptLog is an append-only audit row written once per terminal outcome
// of a sync attempt sequence (success, or retries exhausted). Rows are never
// mutated after insert.
type SyncAttemptLog struct {
	ID           string `gorm:"column:id;primaryKey;type:uuid"`
	SyncRecordID string `gorm:"column:sync_record_id;type:uuid;not null;index"`

	Action       string  `gorm:"column:action;type:varchar(20);not null"`
	Status       string  `gorm:"column:status;type:varchar(20);not null"`
	ErrorMessage *string `gorm:"column:error_message;type:text"`

	RequestData  string `gorm:"column:request_data;type:jsonb"`
	ResponseData string `gorm:"column:response_data;type:jsonb"`

	RemoteID   *string `gorm:"column:remote_id;type:varchar(128)"`
	DurationMs *int64  `gorm:"column:duration_ms"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (SyncAttemptLog) TableName() string {
	return "sync_attempt_logs"
}

func (l *SyncAttemptLog) BeforeCreate(tx *gormlib.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// IsSuccessful reports whether the attempt sequence ended in success.
func (l *SyncAttemptLog) IsSuccessful() bool {
	return l.Status == "success"
}
