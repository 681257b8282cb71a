package bls

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryConfig defines retry behavior for upstream calls.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    1 * time.Second,
	MaxDelay:        10 * time.Second,
	BackoffMultiple: 2.0,
}

// retryable reports whether an error is worth another attempt. Quota
// exhaustion and upstream rejections are final; only short-window rate
// limits and transient server/network failures are retried.
func retryable(err error) bool {
	if errors.Is(err, ErrQuotaExhausted) {
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// doWithRetry executes fn with exponential backoff on retryable errors.
func doWithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryable(err) {
			return err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
