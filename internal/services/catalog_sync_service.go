package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"infinite-experiment/gosplan/internal/common"
	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/db/repositories"
	"infinite-experiment/gosplan/internal/logging"
	"infinite-experiment/gosplan/internal/metrics"
	"infinite-experiment/gosplan/internal/models/dtos"
	gormModels "infinite-experiment/gosplan/internal/models/gorm"
	"infinite-experiment/gosplan/internal/providers"
)

// CatalogEntity is the capability any local entity type implements to become
// syncable. The orchestrator is generic over this interface, never over a
// concrete entity type.
type CatalogEntity interface {
	// CatalogID returns the local entity's stable identifier
	CatalogID() string

	// CatalogType identifies the entity type, e.g. "product"
	CatalogType() string

	// ToCatalogPayload maps the entity to the remote wire document. Must be
	// pure: no I/O, no mutation.
	ToCatalogPayload() (*dtos.ProductPayload, error)
}

// CatalogSyncService orchestrates one entity's sync with the remote catalog:
// record bookkeeping, eligibility, payload mapping and validation, the remote
// call through the retry executor, and the audit trail.
type CatalogSyncService struct {
	cfg       *config.Config
	client    providers.CatalogClient
	records   *repositories.SyncRecordRepo
	logs      *repositories.SyncLogRepo
	retry     *RetryExecutor
	validator *PayloadValidator
	cache     common.CacheInterface
	metrics   *metrics.MetricsRegistry
}

// NewCatalogSyncService creates the orchestrator. metricsReg may be nil in
// tests.
func NewCatalogSyncService(
	cfg *config.Config,
	client providers.CatalogClient,
	records *repositories.SyncRecordRepo,
	logs *repositories.SyncLogRepo,
	cache common.CacheInterface,
	metricsReg *metrics.MetricsRegistry,
) *CatalogSyncService {
	retry := NewRetryExecutor(cfg)
	if metricsReg != nil {
		retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			metricsReg.SyncRetriesTotal.Inc()
		}
	}

	return &CatalogSyncService{
		cfg:       cfg,
		client:    client,
		records:   records,
		logs:      logs,
		retry:     retry,
		validator: NewPayloadValidator(),
		cache:     cache,
		metrics:   metricsReg,
	}
}

// SyncOne pushes one entity's current representation to the remote catalog.
// The returned error is nil when ThrowOnError is off; the outcome always
// carries the result either way, and every failure is persisted before return.
func (s *CatalogSyncService) SyncOne(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return dtos.SyncOutcome{Status: dtos.OutcomeSkipped, Reason: "cancelled"}, err
	}

	record, err := s.records.LoadOrCreate(ctx, entity.CatalogID(), entity.CatalogType())
	if err != nil {
		return dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err},
			fmt.Errorf("failed to load sync record: %w", err)
	}

	if !record.IsSyncEnabled() {
		return dtos.SyncOutcome{Status: dtos.OutcomeSkipped, Reason: "sync disabled"}, nil
	}

	payload, err := entity.ToCatalogPayload()
	if err != nil {
		return s.failSync(ctx, record, actionFor(record), nil, start, fmt.Errorf("payload mapping failed: %w", err))
	}

	s.validator.ApplyDefaults(payload)
	if err := s.validator.Validate(payload); err != nil {
		// Terminal: the remote is never contacted with an invalid payload.
		return s.failSync(ctx, record, actionFor(record), payload, start, err)
	}

	// Checked before the record leaves Synced; a suppressed sync touches
	// neither the remote nor the record.
	if s.suppressDuplicate(record, payload) {
		return dtos.SyncOutcome{
			Status:   dtos.OutcomeSkipped,
			RemoteID: derefString(record.RemoteID),
			Reason:   "payload unchanged since last sync",
		}, nil
	}

	// Mark the attempt as starting. The conditional update doubles as the
	// per-key serialization point: a concurrent sync of the same entity
	// loses here instead of racing the remote call.
	if err := s.records.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.Status = string(constants.SyncStatusPending)
	}); err != nil {
		err = conflictFrom(err, entity.CatalogID(), entity.CatalogType())
		return s.outcomeError(dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err}, err)
	}

	action := actionFor(record)
	remoteID := derefString(record.RemoteID)

	err = s.retry.Execute(ctx, string(action), func(ctx context.Context) error {
		if record.RemoteID == nil {
			id, createErr := s.client.Create(ctx, payload)
			if createErr != nil {
				return createErr
			}
			remoteID = id
			return nil
		}
		// A remote record deleted out-of-band surfaces the provider's
		// not-found error here; re-creating silently would risk duplicates.
		return s.client.Update(ctx, *record.RemoteID, payload)
	})
	if err != nil {
		return s.failSync(ctx, record, action, payload, start, err)
	}

	if err := s.records.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		now := time.Now()
		r.Status = string(constants.SyncStatusSynced)
		r.RemoteID = &remoteID
		r.LastSyncedAt = &now
		r.LastPayload = payload.JSON()
		r.LastError = nil
		r.LastErrorAt = nil
	}); err != nil {
		err = conflictFrom(err, entity.CatalogID(), entity.CatalogType())
		s.appendLog(ctx, record.ID, action, constants.SyncLogFailed, payload, &remoteID, start, err)
		return s.outcomeError(dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err}, err)
	}

	s.appendLog(ctx, record.ID, action, constants.SyncLogSuccess, payload, &remoteID, start, nil)
	s.rememberPayload(record, payload)
	s.observe(action, constants.SyncLogSuccess, start)

	logging.WithEntity(entity.CatalogID(), entity.CatalogType()).Infow("synced with remote catalog",
		"action", action,
		"remote_id", remoteID,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)

	return dtos.SyncOutcome{Status: dtos.OutcomeSynced, RemoteID: remoteID}, nil
}

// DeleteOne mirrors a local deletion to the remote catalog. The sync record
// itself survives so a future re-creation is possible.
func (s *CatalogSyncService) DeleteOne(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return dtos.SyncOutcome{Status: dtos.OutcomeSkipped, Reason: "cancelled"}, err
	}

	record, err := s.records.Find(ctx, entity.CatalogID(), entity.CatalogType())
	if err != nil {
		return dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err},
			fmt.Errorf("failed to load sync record: %w", err)
	}
	if record == nil || record.RemoteID == nil || *record.RemoteID == "" {
		return dtos.SyncOutcome{Status: dtos.OutcomeSkipped, Reason: "never created remotely"}, nil
	}

	remoteID := *record.RemoteID
	err = s.retry.Execute(ctx, string(constants.SyncActionDelete), func(ctx context.Context) error {
		return s.client.Delete(ctx, remoteID)
	})
	if err != nil {
		return s.failSync(ctx, record, constants.SyncActionDelete, nil, start, err)
	}

	if err := s.records.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.RemoteID = nil
		r.LastSyncedAt = nil
		r.LastPayload = ""
		r.Status = string(constants.SyncStatusPending)
	}); err != nil {
		err = conflictFrom(err, entity.CatalogID(), entity.CatalogType())
		s.appendLog(ctx, record.ID, constants.SyncActionDelete, constants.SyncLogFailed, nil, &remoteID, start, err)
		return s.outcomeError(dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err}, err)
	}

	s.appendLog(ctx, record.ID, constants.SyncActionDelete, constants.SyncLogSuccess, nil, &remoteID, start, nil)
	s.forgetPayload(record)
	s.observe(constants.SyncActionDelete, constants.SyncLogSuccess, start)

	return dtos.SyncOutcome{Status: dtos.OutcomeSynced, RemoteID: remoteID}, nil
}

// ForceUpdate pushes the entity without the eligibility shortcuts, but only
// if it has already been created remotely.
func (s *CatalogSyncService) ForceUpdate(ctx context.Context, entity CatalogEntity) (dtos.SyncOutcome, error) {
	start := time.Now()

	record, err := s.records.Find(ctx, entity.CatalogID(), entity.CatalogType())
	if err != nil {
		return dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err}, err
	}
	if record == nil || record.RemoteID == nil || *record.RemoteID == "" {
		return dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: ErrNotSynced}, ErrNotSynced
	}

	payload, err := entity.ToCatalogPayload()
	if err != nil {
		return s.failSync(ctx, record, constants.SyncActionUpdate, nil, start, err)
	}
	s.validator.ApplyDefaults(payload)
	if err := s.validator.Validate(payload); err != nil {
		return s.failSync(ctx, record, constants.SyncActionUpdate, payload, start, err)
	}

	remoteID := *record.RemoteID
	err = s.retry.Execute(ctx, string(constants.SyncActionUpdate), func(ctx context.Context) error {
		return s.client.Update(ctx, remoteID, payload)
	})
	if err != nil {
		return s.failSync(ctx, record, constants.SyncActionUpdate, payload, start, err)
	}

	if err := s.records.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		now := time.Now()
		r.Status = string(constants.SyncStatusSynced)
		r.LastSyncedAt = &now
		r.LastPayload = payload.JSON()
		r.LastError = nil
		r.LastErrorAt = nil
	}); err != nil {
		err = conflictFrom(err, entity.CatalogID(), entity.CatalogType())
		return s.outcomeError(dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err}, err)
	}

	s.appendLog(ctx, record.ID, constants.SyncActionUpdate, constants.SyncLogSuccess, payload, &remoteID, start, nil)
	s.rememberPayload(record, payload)
	s.observe(constants.SyncActionUpdate, constants.SyncLogSuccess, start)

	return dtos.SyncOutcome{Status: dtos.OutcomeSynced, RemoteID: remoteID}, nil
}

// GetRemote fetches the remote catalog's current document for the entity.
func (s *CatalogSyncService) GetRemote(ctx context.Context, productID, productType string) (*dtos.CatalogProduct, error) {
	record, err := s.records.Find(ctx, productID, productType)
	if err != nil {
		return nil, err
	}
	if record == nil || record.RemoteID == nil || *record.RemoteID == "" {
		return nil, ErrNotSynced
	}

	var product *dtos.CatalogProduct
	err = s.retry.Execute(ctx, "get", func(ctx context.Context) error {
		var getErr error
		product, getErr = s.client.Get(ctx, *record.RemoteID)
		return getErr
	})
	if err != nil {
		if s.cfg.ThrowOnError {
			return nil, err
		}
		return nil, nil
	}
	return product, nil
}

// EnableSync re-enables automatic syncing; the record leaves Disabled and
// becomes Pending again.
func (s *CatalogSyncService) EnableSync(ctx context.Context, productID, productType string) error {
	record, err := s.records.LoadOrCreate(ctx, productID, productType)
	if err != nil {
		return err
	}
	err = s.records.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.SyncEnabled = true
		if r.Status == string(constants.SyncStatusDisabled) {
			r.Status = string(constants.SyncStatusPending)
		}
	})
	return conflictFrom(err, productID, productType)
}

// DisableSync suppresses all automatic syncing for the entity.
func (s *CatalogSyncService) DisableSync(ctx context.Context, productID, productType string) error {
	record, err := s.records.LoadOrCreate(ctx, productID, productType)
	if err != nil {
		return err
	}
	err = s.records.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.SyncEnabled = false
		r.Status = string(constants.SyncStatusDisabled)
	})
	return conflictFrom(err, productID, productType)
}

// Preview computes eligibility, the mapped payload and every validation
// violation without contacting the remote catalog.
func (s *CatalogSyncService) Preview(ctx context.Context, entity CatalogEntity) (*dtos.PreviewResult, error) {
	record, err := s.records.Find(ctx, entity.CatalogID(), entity.CatalogType())
	if err != nil {
		return nil, err
	}

	result := &dtos.PreviewResult{Eligible: true, Action: string(constants.SyncActionCreate)}
	if record != nil {
		if !record.IsSyncEnabled() {
			result.Eligible = false
			result.SkipReason = "sync disabled"
		}
		if record.RemoteID != nil && *record.RemoteID != "" {
			result.Action = string(constants.SyncActionUpdate)
		}
	}

	payload, err := entity.ToCatalogPayload()
	if err != nil {
		result.ValidationErrors = append(result.ValidationErrors, err.Error())
		return result, nil
	}
	s.validator.ApplyDefaults(payload)
	result.Payload = payload

	for _, violation := range s.validator.ValidateAll(payload) {
		result.ValidationErrors = append(result.ValidationErrors, violation.Error())
	}

	return result, nil
}

// GetStatus returns the query surface over one sync record, or nil when the
// entity has never been touched.
func (s *CatalogSyncService) GetStatus(ctx context.Context, productID, productType string) (*dtos.SyncStatusResponse, error) {
	record, err := s.records.Find(ctx, productID, productType)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	return &dtos.SyncStatusResponse{
		ProductID:    record.ProductID,
		ProductType:  record.ProductType,
		SyncEnabled:  record.SyncEnabled,
		Status:       record.Status,
		RemoteID:     record.RemoteID,
		LastSyncedAt: record.LastSyncedAt,
		LastError:    record.LastError,
		LastErrorAt:  record.LastErrorAt,
	}, nil
}

// GetLogs returns the newest audit entries for an entity.
func (s *CatalogSyncService) GetLogs(ctx context.Context, productID, productType string, limit int) ([]dtos.SyncLogEntryResponse, error) {
	record, err := s.records.Find(ctx, productID, productType)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	entries, err := s.logs.GetByRecord(ctx, record.ID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dtos.SyncLogEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = dtos.SyncLogEntryResponse{
			Action:       entry.Action,
			Status:       entry.Status,
			ErrorMessage: entry.ErrorMessage,
			RemoteID:     entry.RemoteID,
			DurationMs:   entry.DurationMs,
			CreatedAt:    entry.CreatedAt,
		}
	}
	return responses, nil
}

// failSync persists the failure into the sync record and the audit log before
// anything is returned to the caller.
func (s *CatalogSyncService) failSync(
	ctx context.Context,
	record *gormModels.ProductSyncRecord,
	action constants.SyncAction,
	payload *dtos.ProductPayload,
	start time.Time,
	cause error,
) (dtos.SyncOutcome, error) {
	msg := cause.Error()
	now := time.Now()

	var pErr *providers.ProviderError
	if s.metrics != nil && errors.As(cause, &pErr) {
		s.metrics.RemoteErrorsTotal.WithLabelValues(pErr.Code).Inc()
	}

	if err := s.records.CompareAndUpdate(ctx, record, func(r *gormModels.ProductSyncRecord) {
		r.Status = string(constants.SyncStatusFailed)
		r.LastError = &msg
		r.LastErrorAt = &now
	}); err != nil {
		err = conflictFrom(err, record.ProductID, record.ProductType)
		return s.outcomeError(dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: err}, err)
	}

	s.appendLog(ctx, record.ID, action, constants.SyncLogFailed, payload, record.RemoteID, start, cause)
	s.observe(action, constants.SyncLogFailed, start)

	logging.WithEntity(record.ProductID, record.ProductType).Errorw("sync failed",
		"action", action,
		"error", msg,
	)

	return s.outcomeError(dtos.SyncOutcome{Status: dtos.OutcomeFailed, Err: cause}, cause)
}

// outcomeError applies the configured exception policy: the error is
// propagated only when ThrowOnError is set.
func (s *CatalogSyncService) outcomeError(outcome dtos.SyncOutcome, err error) (dtos.SyncOutcome, error) {
	if s.cfg.ThrowOnError {
		return outcome, err
	}
	return outcome, nil
}

func (s *CatalogSyncService) appendLog(
	ctx context.Context,
	syncRecordID string,
	action constants.SyncAction,
	status constants.SyncLogStatus,
	payload *dtos.ProductPayload,
	remoteID *string,
	start time.Time,
	cause error,
) {
	duration := time.Since(start).Milliseconds()
	entry := &gormModels.SyncAttemptLog{
		SyncRecordID: syncRecordID,
		Action:       string(action),
		Status:       string(status),
		RemoteID:     remoteID,
		DurationMs:   &duration,
	}
	if payload != nil {
		entry.RequestData = payload.JSON()
	}
	if cause != nil {
		msg := cause.Error()
		entry.ErrorMessage = &msg
	}

	if err := s.logs.Append(ctx, entry); err != nil {
		logging.Warn("failed to append sync attempt log",
			"sync_record_id", syncRecordID,
			"error", err.Error(),
		)
	}
}

// suppressDuplicate reports whether the identical payload was already synced
// within the cache window. Purely an optimization; correctness never depends
// on the cache.
func (s *CatalogSyncService) suppressDuplicate(record *gormModels.ProductSyncRecord, payload *dtos.ProductPayload) bool {
	if !s.cfg.CacheDuplicateSyncs || s.cache == nil || !record.IsSynced() {
		return false
	}
	cached, found := s.cache.Get(duplicateKey(record))
	if !found {
		return false
	}
	fingerprint, ok := cached.(string)
	return ok && fingerprint == payload.Fingerprint()
}

func (s *CatalogSyncService) rememberPayload(record *gormModels.ProductSyncRecord, payload *dtos.ProductPayload) {
	if !s.cfg.CacheDuplicateSyncs || s.cache == nil {
		return
	}
	s.cache.Set(duplicateKey(record), payload.Fingerprint(), s.cfg.CacheDuration)
}

func (s *CatalogSyncService) forgetPayload(record *gormModels.ProductSyncRecord) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(duplicateKey(record))
}

func (s *CatalogSyncService) observe(action constants.SyncAction, status constants.SyncLogStatus, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.SyncAttemptsTotal.WithLabelValues(string(action), string(status)).Inc()
	s.metrics.SyncDuration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
}

func actionFor(record *gormModels.ProductSyncRecord) constants.SyncAction {
	if record.RemoteID == nil || *record.RemoteID == "" {
		return constants.SyncActionCreate
	}
	return constants.SyncActionUpdate
}

func duplicateKey(record *gormModels.ProductSyncRecord) string {
	return fmt.Sprintf("sync:dup:%s:%s", record.ProductType, record.ProductID)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
