package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// InitialBackoff is the wait after the first failed attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps any single wait. Zero means no cap.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration:
// three attempts in total, waiting 500ms then 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Attempts returns the total number of attempts including the first.
func (rc RetryConfig) Attempts() int {
	if rc.MaxRetries < 0 {
		return 1
	}
	return rc.MaxRetries + 1
}

// Backoff returns the wait after failed attempt n (1-based):
// InitialBackoff * BackoffMultiplier^(n-1), capped at MaxBackoff.
func (rc RetryConfig) Backoff(attempt int) time.Duration {
	multiplier := rc.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 2.0
	}

	backoff := float64(rc.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= multiplier
		if rc.MaxBackoff > 0 && backoff >= float64(rc.MaxBackoff) {
			return rc.MaxBackoff
		}
	}

	d := time.Duration(backoff)
	if rc.MaxBackoff > 0 && d > rc.MaxBackoff {
		return rc.MaxBackoff
	}
	return d
}

// sleepFunc waits for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext waits without holding the caller past cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// retryWithBackoff runs fn until it succeeds or the attempts run out,
// waiting with exponential backoff in between. Every error is retried:
// transport failures and non-2xx responses alike.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, sleep sleepFunc, logger zerolog.Logger, endpoint string, fn func(attempt int) error) error {
	attempts := cfg.Attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errClass := classifyError(err)

		// A cancelled caller gets no further attempts
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctxErr)
		}

		// If this was the last attempt, don't wait
		if attempt >= attempts {
			break
		}

		backoff := cfg.Backoff(attempt)
		retriesTotal.WithLabelValues(string(errClass)).Inc()
		retryBackoffSeconds.WithLabelValues(string(errClass)).Observe(backoff.Seconds())

		logger.Debug().
			Err(err).
			Str("endpoint", endpoint).
			Str("error_class", string(errClass)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		if err := sleep(ctx, backoff); err != nil {
			logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}
	}

	errClass := classifyError(lastErr)
	retryExhaustedTotal.WithLabelValues(string(errClass)).Inc()
	logger.Warn().
		Err(lastErr).
		Str("endpoint", endpoint).
		Str("error_class", string(errClass)).
		Int("max_attempts", attempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
