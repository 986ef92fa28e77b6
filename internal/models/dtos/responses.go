package dtos

import "time"

// APIResponse is the standard envelope for every JSON endpoint.
type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ResponseTime string `json:"response_time,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// SyncStatusResponse is the query surface over one sync record.
type SyncStatusResponse struct {
	ProductID    string     `json:"product_id"`
	ProductType  string     `json:"product_type"`
	SyncEnabled  bool       `json:"sync_enabled"`
	Status       string     `json:"status"`
	RemoteID     *string    `json:"remote_id,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	LastError    *string    `json:"last_error,omitempty"`
	LastErrorAt  *time.Time `json:"last_error_at,omitempty"`
}

// SyncLogEntryResponse is one audit row on the logs endpoint.
type SyncLogEntryResponse struct {
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	RemoteID     *string   `json:"remote_id,omitempty"`
	DurationMs   *int64    `json:"duration_ms,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SyncStatsResponse is the aggregate reporting view over the whole population.
type SyncStatsResponse struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"by_status"`
	FailedLastDay int64            `json:"failed_last_day"`
	SyncedLastDay int64            `json:"synced_last_day"`
	OutboxPending int64            `json:"outbox_pending"`
	LastSuccessAt *time.Time       `json:"last_success_at,omitempty"`
	AvgDurationMs *float64         `json:"avg_duration_ms,omitempty"`
}

// ServiceStatus reports one dependency on the health endpoint.
type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// HealthCheckResponse aggregates dependency health.
type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
	Services map[string]ServiceStatus `json:"services"`
}
