package config

import (
	"errors"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOSPLAN_MERCHANT_ID", "merchant-1")
	t.Setenv("GOSPLAN_API_BASE_URL", "https://catalog.example.com")
	t.Setenv("GOSPLAN_API_KEY", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("Expected default batch size %d, got %d", DefaultBatchSize, cfg.BatchSize)
	}
	if cfg.RetryAttempts != DefaultRetryAttempts {
		t.Errorf("Expected default retry attempts %d, got %d", DefaultRetryAttempts, cfg.RetryAttempts)
	}
	if cfg.InterBatchDelay != DefaultInterBatchDelay {
		t.Errorf("Expected default inter-batch delay %v, got %v", DefaultInterBatchDelay, cfg.InterBatchDelay)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Expected default concurrency %d, got %d", DefaultConcurrency, cfg.Concurrency)
	}
	if !cfg.ThrowOnError {
		t.Error("Expected ThrowOnError on by default")
	}
	if !cfg.AutoSyncEnabled {
		t.Error("Expected auto sync on by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOSPLAN_BATCH_SIZE", "25")
	t.Setenv("GOSPLAN_INTER_BATCH_DELAY_MS", "250")
	t.Setenv("GOSPLAN_RETRY_BASE_DELAY_MS", "500")
	t.Setenv("GOSPLAN_CONCURRENCY", "4")
	t.Setenv("GOSPLAN_THROW_ON_ERROR", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BatchSize != 25 {
		t.Errorf("Expected batch size 25, got %d", cfg.BatchSize)
	}
	if cfg.InterBatchDelay != 250*time.Millisecond {
		t.Errorf("Expected 250ms inter-batch delay, got %v", cfg.InterBatchDelay)
	}
	if cfg.RetryBaseDelay != 500*time.Millisecond {
		t.Errorf("Expected 500ms retry base delay, got %v", cfg.RetryBaseDelay)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Concurrency)
	}
	if cfg.ThrowOnError {
		t.Error("Expected ThrowOnError off")
	}
}

func TestLoad_MissingCredentialFails(t *testing.T) {
	t.Setenv("GOSPLAN_MERCHANT_ID", "")
	t.Setenv("GOSPLAN_API_BASE_URL", "https://catalog.example.com")
	t.Setenv("GOSPLAN_API_KEY", "secret")

	_, err := Load()

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if cfgErr.Key != "GOSPLAN_MERCHANT_ID" {
		t.Errorf("Expected merchant ID flagged, got %s", cfgErr.Key)
	}
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GOSPLAN_BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("Expected fallback to default batch size, got %d", cfg.BatchSize)
	}
}

func TestValidate_RejectsBadTunables(t *testing.T) {
	base := func() *Config {
		return &Config{
			MerchantID:     "m",
			APIBaseURL:     "https://catalog.example.com",
			APIKey:         "k",
			BatchSize:      50,
			RetryAttempts:  3,
			RetryBaseDelay: time.Second,
			Concurrency:    1,
		}
	}

	cfg := base()
	cfg.BatchSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected batch size 0 rejected")
	}

	cfg = base()
	cfg.RetryAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected retry attempts 0 rejected")
	}

	cfg = base()
	cfg.Concurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected concurrency 0 rejected")
	}
}
