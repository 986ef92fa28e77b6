package services

import (
	"context"
	"errors"
	"time"

	"infinite-experiment/gosplan/internal/config"
	"infinite-experiment/gosplan/internal/constants"
	"infinite-experiment/gosplan/internal/logging"
	"infinite-experiment/gosplan/internal/providers"
)

// ErrorClass is the retry verdict for one remote-call error.
type ErrorClass int

const (
	// Retryable errors may succeed on a later attempt (timeouts, 5xx,
	// rate limiting, anything unclassified).
	Retryable ErrorClass = iota
	// Terminal errors cannot succeed no matter how often they are retried.
	Terminal
)

// Classify decides whether an error from a remote-call attempt is worth
// retrying. The default is Retryable: only the known auth/malformed-request
// signatures and validation failures are terminal.
func Classify(err error) ErrorClass {
	if err == nil {
		return Retryable
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return Terminal
	}

	var pErr *providers.ProviderError
	if errors.As(err, &pErr) && constants.IsTerminalErrorCode(pErr.Code) {
		return Terminal
	}

	if constants.MatchesTerminalSignature(err.Error()) {
		return Terminal
	}

	return Retryable
}

// NextDelay computes the exponential backoff before the next try.
// attempt is 1-indexed: attempt 1 failed -> wait base, attempt 2 -> 2*base.
func NextDelay(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// RetryObserver is notified of every failed attempt before the executor
// suspends for the backoff delay.
type RetryObserver func(attempt int, delay time.Duration, err error)

// RetryExecutor wraps a single remote operation with bounded retries.
type RetryExecutor struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnRetry, if set, observes each failed-but-retried attempt.
	OnRetry RetryObserver

	// sleep is swapped out in tests; defaults to a context-aware sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryExecutor builds an executor from the service configuration.
func NewRetryExecutor(cfg *config.Config) *RetryExecutor {
	return &RetryExecutor{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	}
}

// Execute attempts op up to MaxAttempts times. Terminal errors stop the loop
// immediately; retryable ones suspend for the backoff delay first. The error
// returned after exhaustion is the last one encountered, not an aggregate.
func (e *RetryExecutor) Execute(ctx context.Context, operation string, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= e.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if Classify(lastErr) == Terminal || attempt == e.MaxAttempts {
			break
		}

		delay := NextDelay(attempt, e.BaseDelay)

		logging.Warn("remote operation failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.MaxAttempts,
			"delay", delay.String(),
			"error", lastErr.Error(),
		)
		if e.OnRetry != nil {
			e.OnRetry(attempt, delay, lastErr)
		}

		if err := e.suspend(ctx, delay); err != nil {
			// Cancelled during backoff: no further attempts are started.
			return lastErr
		}
	}

	return lastErr
}

func (e *RetryExecutor) suspend(ctx context.Context, d time.Duration) error {
	if e.sleep != nil {
		return e.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
