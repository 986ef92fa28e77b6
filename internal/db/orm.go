package db

import (
	"fmt"
	"log"

	"infinite-experiment/gosplan/internal/models/gorm"

	"gorm.io/driver/postgres"
	gormlib "gorm.io/gorm"
)

var PgDB *gormlib.DB

func InitPostgresORM(dsn string) (*gormlib.DB, error) {
	db, err := gormlib.Open(postgres.Open(dsn), &gormlib.Config{})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	PgDB = db
	log.Println("Connected to Postgres via GORM")
	return db, nil
}

// MigrateSyncTables creates the sync engine's tables. Schema migrations for
// caller-owned product tables stay with the caller.
func MigrateSyncTables(db *gormlib.DB) error {
	return db.AutoMigrate(
		&gorm.ProductSyncRecord{},
		&gorm.SyncAttemptLog{},
		&gorm.SyncOutboxEvent{},
	)
}
