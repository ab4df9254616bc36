package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithExponentialBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	var retried []int

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	},
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error) { retried = append(retried, attempt) }))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithExponentialBackoff_MaxRetries(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return errors.New("persistent error")
	},
		WithMaxRetries(3),
		WithInitialDelay(time.Millisecond),
		WithName("upload release"))

	require.Error(t, err)
	// MaxRetries counts retries after the first attempt.
	assert.Equal(t, 4, attempts)
	assert.Contains(t, err.Error(), "upload release failed after 4 attempts")
	assert.Contains(t, err.Error(), "persistent error")
}

func TestWithExponentialBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error {
		attempts++
		return errors.New("error")
	}, WithInitialDelay(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_FatalStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0
	cause := errors.New("bad token")

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return Fatal(cause)
	}, WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsFatal(err))
}

func TestWithExponentialBackoff_MaxDelayCaps(t *testing.T) {
	t.Parallel()
	attempts := 0
	start := time.Now()

	_ = WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return errors.New("error")
	},
		WithMaxRetries(4),
		WithInitialDelay(5*time.Millisecond),
		WithMultiplier(10),
		WithMaxDelay(10*time.Millisecond))

	assert.Equal(t, 5, attempts)
	// 5ms + 10ms + 10ms + 10ms with the cap; without it this would take seconds.
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithExponentialBackoff_LogsAttempts(t *testing.T) {
	t.Parallel()
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return errors.New("locked")
		}
		return nil
	},
		WithInitialDelay(time.Millisecond),
		WithName("delete firewall"),
		WithLogger(logger))

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "delete firewall")
	assert.Contains(t, lines[0], "locked")
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("plain")))

	wrapped := Fatal(errors.New("inner"))
	assert.EqualError(t, wrapped, "inner")
	assert.True(t, IsFatal(wrapped))
}
