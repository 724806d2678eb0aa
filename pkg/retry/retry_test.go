package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) *Config {
	return &Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestExponentialBackoff_RetriesTransientUntilSuccess(t *testing.T) {
	cfg := fastConfig(5)
	var retried []int
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	calls := 0
	err := NewExponentialBackoff(cfg).Execute(func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestExponentialBackoff_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("password authentication failed")

	err := NewExponentialBackoff(fastConfig(5)).Execute(func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.False(t, IsMaxRetriesExceeded(err))
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoff_ReportsExhaustion(t *testing.T) {
	cause := errors.New("i/o timeout")

	err := NewExponentialBackoff(fastConfig(3)).Execute(func() error { return cause })

	assert.True(t, IsMaxRetriesExceeded(err))
	assert.ErrorIs(t, err, cause)
}

func TestExponentialBackoff_CustomRetryable(t *testing.T) {
	cfg := fastConfig(2)
	cfg.Retryable = func(error) bool { return true }

	calls := 0
	_ = NewExponentialBackoff(cfg).Execute(func() error {
		calls++
		return errors.New("anything")
	})

	assert.Equal(t, 2, calls)
}

func TestExponentialBackoff_HonoursContext(t *testing.T) {
	cfg := &Config{MaxAttempts: 10, BaseDelay: time.Hour, Multiplier: 1}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := NewExponentialBackoff(cfg).ExecuteContext(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExponentialBackoff_DelayIsCapped(t *testing.T) {
	eb := NewExponentialBackoff(&Config{BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2})

	assert.Equal(t, time.Second, eb.delay(1))
	assert.Equal(t, 2*time.Second, eb.delay(2))
	assert.Equal(t, 3*time.Second, eb.delay(3))
	assert.Equal(t, 3*time.Second, eb.delay(10))
}
