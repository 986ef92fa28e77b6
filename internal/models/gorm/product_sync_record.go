package gorm

import (
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// ProductSyncRecord tracks one local product's relationship to the remote
// catalog. Exactly one row exists per (product_id, product_type) pair.
type ProductSyncRecord struct {
	ID          string `gorm:"column:id;primaryKey;type:uuid"`
	ProductID   string `gorm:"column:product_id;type:varchar(64);not null;uniqueIndex:idx_product_sync_identity"`
	ProductType string `gorm:"column:product_type;type:varchar(128);not null;uniqueIndex:idx_product_sync_identity"`

	SyncEnabled bool    `gorm:"column:sync_enabled;not null;default:true"`
	RemoteID    *string `gorm:"column:remote_id;type:varchar(128)"`
	Status      string  `gorm:"column:status;type:varchar(20);not null;default:pending"`

	LastSyncedAt *time.Time `gorm:"column:last_synced_at"`
	LastPayload  string     `gorm:"column:last_payload;type:jsonb"`
	LastError    *string    `gorm:"column:last_error;type:text"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`

	// Bumped on every CompareAndUpdate; serializes writers per record.
	Version int64 `gorm:"column:version;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	AttemptLogs []SyncAttemptLog `gorm:"foreignKey:SyncRecordID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (ProductSyncRecord) TableName() string {
	return "product_sync_records"
}

// BeforeCreate assigns a UUID primary key so the model works on both
// Postgres and the in-memory SQLite used in tests.
func (r *ProductSyncRecord) BeforeCreate(tx *gormlib.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// IsSynced reports whether the record is in a consistent synced state.
func (r *ProductSyncRecord) IsSynced() bool {
	return r.Status == "synced" && r.RemoteID != nil && *r.RemoteID != ""
}

// IsSyncEnabled reports whether automatic syncing may touch this record.
func (r *ProductSyncRecord) IsSyncEnabled() bool {
	return r.SyncEnabled && r.Status != "disabled"
}
