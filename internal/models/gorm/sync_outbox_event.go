package gorm

import (
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// SyncOutboxEvent is the post-commit hand-off row for event-driven auto sync.
// Callers insert one inside the transaction that mutates the product; the
// dispatcher job moves pending rows onto the Redis stream.
type SyncOutboxEvent struct {
	ID          string `gorm:"column:id;primaryKey;type:uuid"`
	ProductID   string `gorm:"column:product_id;type:varchar(64);not null;index:idx_outbox_product"`
	ProductType string `gorm:"column:product_type;type:varchar(128);not null;index:idx_outbox_product"`

	// create, update or delete; mirrors the local mutation that produced it.
	Action string `gorm:"column:action;type:varchar(20);not null"`

	// Payload snapshot taken at commit time so the worker syncs what the
	// caller committed, not what the row looks like later.
	Payload string `gorm:"column:payload;type:jsonb"`

	Status       string     `gorm:"column:status;type:varchar(20);not null;default:pending;index"`
	Attempts     int        `gorm:"column:attempts;not null;default:0"`
	DispatchedAt *time.Time `gorm:"column:dispatched_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (SyncOutboxEvent) TableName() string {
	return "catalog_sync_outbox"
}

func (e *SyncOutboxEvent) BeforeCreate(tx *gormlib.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
