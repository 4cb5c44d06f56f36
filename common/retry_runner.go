package common

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type RetryConfig struct {
	// ShouldRetry reports whether another attempt is allowed after the
	// given attempt number failed with err. Attempt numbers start at 1.
	ShouldRetry func(attemptNumber uint32, err error) bool
	// NextDelay returns the pause before the attempt following attemptNumber.
	NextDelay func(attemptNumber uint32) time.Duration
}

// RetryRunner executes an action with bounded, delayed retries. Delays are
// interruptible through the context.
type RetryRunner struct {
	config RetryConfig
	logger zerolog.Logger
}

func NewRetryRunner(config RetryConfig, logger zerolog.Logger) RetryRunner {
	return RetryRunner{
		config: config,
		logger: logger,
	}
}

func (r *RetryRunner) Do(ctx context.Context, action func(ctx context.Context) error) error {
	attemptNumber := uint32(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			attemptNumber++
			err := action(ctx)

			if err == nil || !r.config.ShouldRetry(attemptNumber, err) {
				return err
			}

			delay := r.config.NextDelay(attemptNumber)
			r.logger.Warn().Err(err).Msgf("operation failed, retrying in %s", delay)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

func LimitRetries(maxAttempts uint32) func(attemptNumber uint32, err error) bool {
	return func(attemptNumber uint32, _ error) bool {
		return attemptNumber < maxAttempts
	}
}

// DoublingDelay yields base, 2*base, 4*base, ... capped at maxDelay.
func DoublingDelay(base, maxDelay time.Duration) func(attemptNumber uint32) time.Duration {
	return func(attemptNumber uint32) time.Duration {
		delay := base
		for i := uint32(1); i < attemptNumber; i++ {
			delay *= 2
			if delay >= maxDelay {
				return maxDelay
			}
		}
		return delay
	}
}
