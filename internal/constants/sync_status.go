package constants

// SyncStatus is the lifecycle state of a ProductSyncRecord
type SyncStatus string

const (
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusFailed   SyncStatus = "failed"
	SyncStatusDisabled SyncStatus = "disabled"
)

// SyncAction identifies the remote operation an attempt performed
type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
	SyncActionSync   SyncAction = "sync"
)

// SyncLogStatus is the terminal outcome recorded in sync_attempt_logs
type SyncLogStatus string

const (
	SyncLogSuccess SyncLogStatus = "success"
	SyncLogFailed  SyncLogStatus = "failed"
	SyncLogPending SyncLogStatus = "pending"
)

// Outbox event lifecycle for catalog_sync_outbox rows
const (
	OutboxStatusPending    = "pending"
	OutboxStatusDispatched = "dispatched"
	OutboxStatusFailed     = "failed"
)

// Valid payload enumerations, checked by the payload validator
var (
	ValidAvailabilities = []string{"in stock", "out of stock", "preorder"}
	ValidConditions     = []string{"new", "used", "refurbished"}
)

// API response statuses
type APIStatus string

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)
