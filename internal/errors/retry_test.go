package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsAfterTransientError(t *testing.T) {
	// Given: a function that fails twice then succeeds
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return LockedError("/tmp/idx")
		}
		return nil
	}

	// When: retrying
	err := Retry(context.Background(), fastRetryConfig(), fn)

	// Then: succeeds after 3 attempts
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_FailsAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return errors.New("persistent error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, attempts) // Initial + 2 retries
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	// Given: a policy that only retries lock contention
	cfg := fastRetryConfig()
	cfg.ShouldRetry = IsRetryable

	attempts := 0
	writeErr := WriteError("disk gone", nil)

	// When: the operation fails with a write error
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return writeErr
	})

	// Then: no retry happens and the original error comes back
	assert.Equal(t, 1, attempts)
	assert.Same(t, writeErr, err)
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Retry(ctx, fastRetryConfig(), func() error {
		attempts++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestDefaultRetryConfig_RetriesOnlyLockContention(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.True(t, cfg.ShouldRetry(LockedError("/tmp/idx")))
	assert.False(t, cfg.ShouldRetry(WriteError("boom", nil)))
	assert.False(t, cfg.ShouldRetry(errors.New("plain")))
}
