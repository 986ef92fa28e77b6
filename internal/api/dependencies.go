package api

import (
	"os"
	"time"

	"infinite-experiment/gosplan/internal/common"
	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/db"
	"infinite-experiment/gosplan/internal/db/repositories"
	"infinite-experiment/gosplan/internal/metrics"
	"infinite-experiment/gosplan/internal/providers"
	"infinite-experiment/gosplan/internal/services"

	"github.com/redis/go-redis/v9"
)

type Repositories struct {
	Records *repositories.SyncRecordRepo
	Logs    *repositories.SyncLogRepo
	Outbox  *repositories.OutboxRepo
	Stats   *repositories.SyncStatsRepo
}

type Services struct {
	Cache     common.CacheInterface
	Queue     *common.SyncQueueService
	URLSigner *common.URLSignerService
	Provider  providers.CatalogClient
	Sync      *services.CatalogSyncService
	Batch     *services.BatchSyncService
}

type Dependencies struct {
	Config   *config.Config
	Redis    *redis.Client
	Repo     *Repositories
	Services *Services
}

func InitDependencies(cfg *config.Config, metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {

	repos := &Repositories{
		Records: repositories.NewSyncRecordRepo(db.PgDB),
		Logs:    repositories.NewSyncLogRepo(db.PgDB),
		Outbox:  repositories.NewOutboxRepo(db.PgDB),
		Stats:   repositories.NewSyncStatsRepo(db.DB),
	}

	cacheSvc := common.NewCacheService(cfg.CacheDuration, 10*time.Minute)
	redisClient := common.NewRedisClient()
	queueSvc := common.NewSyncQueueService(redisClient)
	urlSigner := common.NewURLSignerService([]byte(os.Getenv("GOSPLAN_SIGNING_SECRET")), redisClient)

	provider := providers.NewMerchantProvider(cfg)

	syncSvc := services.NewCatalogSyncService(cfg, provider, repos.Records, repos.Logs, cacheSvc, metricsReg)
	batchSvc := services.NewBatchSyncService(cfg, syncSvc, metricsReg)

	svcs := &Services{
		Cache:     cacheSvc,
		Queue:     queueSvc,
		URLSigner: urlSigner,
		Provider:  provider,
		Sync:      syncSvc,
		Batch:     batchSvc,
	}

	return &Dependencies{
		Config:   cfg,
		Redis:    redisClient,
		Repo:     repos,
		Services: svcs,
	}, nil
}
