package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigurationError is fatal at startup and must never be retried.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Key, e.Reason)
}

// Config carries every tunable the sync engine needs. It is loaded once at
// startup and passed explicitly into services at construction; no package
// reads the environment after Load returns.
type Config struct {
	// Remote catalog credentials
	MerchantID string
	APIBaseURL string
	APIKey     string

	// Batch coordination
	BatchSize       int
	InterBatchDelay time.Duration
	Concurrency     int

	// Retry policy
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// Error propagation
	ThrowOnError bool

	// Event-driven auto sync
	AutoSyncEnabled bool

	// Duplicate-sync suppression
	CacheDuplicateSyncs bool
	CacheDuration       time.Duration
}

// Defaults mirrored from the batch/retry contract
const (
	DefaultBatchSize       = 50
	DefaultRetryAttempts   = 3
	DefaultRetryBaseDelay  = 1000 * time.Millisecond
	DefaultInterBatchDelay = 100 * time.Millisecond
	DefaultConcurrency     = 1
	DefaultCacheDuration   = 300 * time.Second
)

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		MerchantID:          os.Getenv("GOSPLAN_MERCHANT_ID"),
		APIBaseURL:          os.Getenv("GOSPLAN_API_BASE_URL"),
		APIKey:              os.Getenv("GOSPLAN_API_KEY"),
		BatchSize:           envInt("GOSPLAN_BATCH_SIZE", DefaultBatchSize),
		RetryAttempts:       envInt("GOSPLAN_RETRY_ATTEMPTS", DefaultRetryAttempts),
		RetryBaseDelay:      envMillis("GOSPLAN_RETRY_BASE_DELAY_MS", DefaultRetryBaseDelay),
		InterBatchDelay:     envMillis("GOSPLAN_INTER_BATCH_DELAY_MS", DefaultInterBatchDelay),
		Concurrency:         envInt("GOSPLAN_CONCURRENCY", DefaultConcurrency),
		ThrowOnError:        envBool("GOSPLAN_THROW_ON_ERROR", true),
		AutoSyncEnabled:     envBool("GOSPLAN_AUTO_SYNC", true),
		CacheDuplicateSyncs: envBool("GOSPLAN_CACHE_DUPLICATE_SYNCS", true),
		CacheDuration:       envSeconds("GOSPLAN_CACHE_DURATION", DefaultCacheDuration),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.MerchantID == "" {
		return &ConfigurationError{Key: "GOSPLAN_MERCHANT_ID", Reason: "merchant ID is required"}
	}
	if c.APIBaseURL == "" {
		return &ConfigurationError{Key: "GOSPLAN_API_BASE_URL", Reason: "remote catalog base URL is required"}
	}
	if c.APIKey == "" {
		return &ConfigurationError{Key: "GOSPLAN_API_KEY", Reason: "catalog API key is required"}
	}
	if c.BatchSize < 1 {
		return &ConfigurationError{Key: "GOSPLAN_BATCH_SIZE", Reason: "batch size must be >= 1"}
	}
	if c.RetryAttempts < 1 {
		return &ConfigurationError{Key: "GOSPLAN_RETRY_ATTEMPTS", Reason: "retry attempts must be >= 1"}
	}
	if c.RetryBaseDelay < 0 {
		return &ConfigurationError{Key: "GOSPLAN_RETRY_BASE_DELAY_MS", Reason: "retry base delay must be >= 0"}
	}
	if c.InterBatchDelay < 0 {
		return &ConfigurationError{Key: "GOSPLAN_INTER_BATCH_DELAY_MS", Reason: "inter-batch delay must be >= 0"}
	}
	if c.Concurrency < 1 {
		return &ConfigurationError{Key: "GOSPLAN_CONCURRENCY", Reason: "concurrency must be >= 1"}
	}
	return nil
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envMillis(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return time.Duration(v) * time.Millisecond
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}
