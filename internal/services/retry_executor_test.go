package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/providers"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestRetryExecutor_SuccessFirstAttempt(t *testing.T) {
	executor := &RetryExecutor{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, sleep: noSleep}

	calls := 0
	err := executor.Execute(context.Background(), "create", func(ctx context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetryExecutor_TerminalErrorNotRetried(t *testing.T) {
	executor := &RetryExecutor{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, sleep: noSleep}

	calls := 0
	terminal := &providers.ProviderError{
		Code:    constants.ErrCodeAuthenticationFailed,
		Message: "invalid credentials",
	}
	err := executor.Execute(context.Background(), "create", func(ctx context.Context) error {
		calls++
		return terminal
	})

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 call for terminal error, got %d", calls)
	}
}

func TestRetryExecutor_RetryableExhaustsAttempts(t *testing.T) {
	base := 100 * time.Millisecond
	executor := &RetryExecutor{MaxAttempts: 3, BaseDelay: base, sleep: noSleep}

	var delays []time.Duration
	executor.OnRetry = func(attempt int, delay time.Duration, err error) {
		delays = append(delays, delay)
	}

	calls := 0
	opErr := errors.New("connection timed out")
	err := executor.Execute(context.Background(), "update", func(ctx context.Context) error {
		calls++
		return opErr
	})

	if !errors.Is(err, opErr) {
		t.Fatalf("Expected last operation error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}

	// Backoff doubles per failed attempt; no delay after the final attempt.
	want := []time.Duration{base, 2 * base}
	if len(delays) != len(want) {
		t.Fatalf("Expected %d delays, got %d", len(want), len(delays))
	}
	for i, d := range delays {
		if d != want[i] {
			t.Errorf("Delay %d: expected %v, got %v", i, want[i], d)
		}
	}
}

func TestRetryExecutor_SucceedsAfterRetry(t *testing.T) {
	executor := &RetryExecutor{MaxAttempts: 3, BaseDelay: time.Millisecond, sleep: noSleep}

	calls := 0
	err := executor.Execute(context.Background(), "create", func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient failure")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestRetryExecutor_CancelledDuringBackoff(t *testing.T) {
	executor := &RetryExecutor{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	}

	calls := 0
	opErr := errors.New("transient failure")
	err := executor.Execute(context.Background(), "create", func(ctx context.Context) error {
		calls++
		return opErr
	})

	if !errors.Is(err, opErr) {
		t.Fatalf("Expected last operation error after cancellation, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no further attempts after cancelled backoff, got %d calls", calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"validation error", &ValidationError{Field: "title", Reason: "missing"}, Terminal},
		{"auth provider error", &providers.ProviderError{Code: constants.ErrCodeAuthenticationFailed}, Terminal},
		{"access denied provider error", &providers.ProviderError{Code: constants.ErrCodeAccessDenied}, Terminal},
		{"invalid payload provider error", &providers.ProviderError{Code: constants.ErrCodeProductInvalid}, Terminal},
		{"rate limited provider error", &providers.ProviderError{Code: constants.ErrCodeRateLimited}, Retryable},
		{"unavailable provider error", &providers.ProviderError{Code: constants.ErrCodeRemoteUnavailable}, Retryable},
		{"terminal signature in message", fmt.Errorf("oauth refresh rejected: Invalid_Grant"), Terminal},
		{"generic error", errors.New("connection reset by peer"), Retryable},
		{"wrapped validation error", fmt.Errorf("sync: %w", &ValidationError{Field: "price"}), Terminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNextDelay(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, base},
		{2, 2 * base},
		{3, 4 * base},
		{4, 8 * base},
		{0, base}, // clamped
	}

	for _, tt := range tests {
		if got := NextDelay(tt.attempt, base); got != tt.want {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
