package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryRunnerBoundedAttempts(t *testing.T) {
	t.Parallel()

	runner := NewRetryRunner(RetryConfig{
		ShouldRetry: LimitRetries(3),
		NextDelay:   DoublingDelay(time.Millisecond, time.Second),
	}, zerolog.Nop())

	attempts := 0
	err := runner.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryRunnerEventualSuccess(t *testing.T) {
	t.Parallel()

	runner := NewRetryRunner(RetryConfig{
		ShouldRetry: LimitRetries(3),
		NextDelay:   DoublingDelay(time.Millisecond, time.Second),
	}, zerolog.Nop())

	attempts := 0
	err := runner.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryRunnerCancellation(t *testing.T) {
	t.Parallel()

	runner := NewRetryRunner(RetryConfig{
		ShouldRetry: LimitRetries(10),
		NextDelay:   DoublingDelay(time.Minute, time.Hour),
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Do(ctx, func(context.Context) error {
			return errors.New("keeps failing")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("retry delay did not observe cancellation")
	}
}

func TestDoublingDelay(t *testing.T) {
	t.Parallel()

	next := DoublingDelay(time.Second, 10*time.Second)
	assert.Equal(t, time.Second, next(1))
	assert.Equal(t, 2*time.Second, next(2))
	assert.Equal(t, 4*time.Second, next(3))
	assert.Equal(t, 10*time.Second, next(10))
}
