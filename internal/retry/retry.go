package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Config describes one retry budget: up to MaxRetries extra attempts after
// the first, a fixed Delay between attempts, and a per-attempt Timeout.
// The delay is fixed rather than exponential: the vendor API is throttled by
// call spacing, so attempts are paced at the same cadence as regular calls.
type Config struct {
	MaxRetries int
	Delay      time.Duration
	Timeout    time.Duration
}

// Retryable lets an error opt out of retrying. Errors that do not implement
// it are treated as retryable.
type Retryable interface {
	IsRetryable() bool
}

// WithRetry runs operation until it succeeds, returns a non-retryable error,
// or the retry budget is exhausted. Each attempt gets its own timeout
// context derived from ctx.
func WithRetry[T any](ctx context.Context, config Config, operation func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Debug().
				Dur("delay", config.Delay).
				Int("attempt", attempt+1).
				Msg("Retrying after delay")

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(config.Delay):
			}
		}

		opCtx := ctx
		cancel := context.CancelFunc(func() {})
		if config.Timeout > 0 {
			opCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		}

		result, err := operation(opCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			log.Debug().
				Err(err).
				Int("attempt", attempt+1).
				Msg("Non-retryable error, giving up")
			return zero, err
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Operation failed")
	}

	return zero, fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}
