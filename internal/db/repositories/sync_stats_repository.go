package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"infinite-experiment/gosplan/internal/models/dtos"

	"github.com/jmoiron/sqlx"
)

// SyncStatsRepo serves the aggregate reporting surface with raw SQL. Reads
// only; all writes stay with the gorm repositories.
type SyncStatsRepo struct {
	db *sqlx.DB
}

func NewSyncStatsRepo(db *sqlx.DB) *SyncStatsRepo {
	return &SyncStatsRepo{db: db}
}

type statusCountRow struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}

// Stats aggregates population counts, last-day outcomes and attempt latency.
func (r *SyncStatsRepo) Stats(ctx context.Context) (*dtos.SyncStatsResponse, error) {
	stats := &dtos.SyncStatsResponse{
		ByStatus: make(map[string]int64),
	}

	var rows []statusCountRow
	const byStatusQuery = `
		SELECT status, COUNT(*) AS count
		FROM product_sync_records
		GROUP BY status
	`
	if err := r.db.SelectContext(ctx, &rows, byStatusQuery); err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}

	dayAgo := time.Now().Add(-24 * time.Hour)

	const outcomesQuery = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'failed')  AS failed,
			COUNT(*) FILTER (WHERE status = 'success') AS synced,
			AVG(duration_ms) FILTER (WHERE duration_ms IS NOT NULL) AS avg_duration
		FROM sync_attempt_logs
		WHERE created_at >= $1
	`
	var outcome struct {
		Failed      int64           `db:"failed"`
		Synced      int64           `db:"synced"`
		AvgDuration sql.NullFloat64 `db:"avg_duration"`
	}
	if err := r.db.GetContext(ctx, &outcome, outcomesQuery, dayAgo); err != nil {
		return nil, err
	}
	stats.FailedLastDay = outcome.Failed
	stats.SyncedLastDay = outcome.Synced
	if outcome.AvgDuration.Valid {
		stats.AvgDurationMs = &outcome.AvgDuration.Float64
	}

	const lastSuccessQuery = `
		SELECT created_at
		FROM sync_attempt_logs
		WHERE status = 'success'
		ORDER BY created_at DESC
		LIMIT 1
	`
	var lastSuccess time.Time
	err := r.db.GetContext(ctx, &lastSuccess, lastSuccessQuery)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		stats.LastSuccessAt = &lastSuccess
	}

	const outboxQuery = `
		SELECT COUNT(*) FROM catalog_sync_outbox WHERE status = 'pending'
	`
	if err := r.db.GetContext(ctx, &stats.OutboxPending, outboxQuery); err != nil {
		return nil, err
	}

	return stats, nil
}
