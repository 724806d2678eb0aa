package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newCircuitBreaker(&Config{FailureThreshold: 2, RecoveryTimeout: time.Minute, SuccessThreshold: 2}, func() time.Time { return now })

	fail := errors.New("upstream down")
	calls := 0
	failing := func() error { calls++; return fail }
	ok := func() error { calls++; return nil }

	assert.ErrorIs(t, cb.Call(failing), fail)
	assert.Equal(t, Closed, cb.State())
	assert.ErrorIs(t, cb.Call(failing), fail)
	assert.Equal(t, Open, cb.State())

	assert.ErrorIs(t, cb.Call(ok), ErrCircuitOpen)
	assert.Equal(t, 2, calls, "open circuit does not invoke fn")

	now = now.Add(time.Minute)
	assert.Equal(t, HalfOpen, cb.State())

	assert.NoError(t, cb.Call(ok))
	assert.Equal(t, HalfOpen, cb.State())
	assert.NoError(t, cb.Call(ok))
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 1}, func() time.Time { return now })

	_ = cb.Call(func() error { return errors.New("x") })
	now = now.Add(time.Second)
	assert.Equal(t, HalfOpen, cb.State())

	_ = cb.Call(func() error { return errors.New("x") })
	assert.Equal(t, Open, cb.State())

	cb.Reset()
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
}

func TestCircuitBreaker_ReportsTransitions(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var seen []string
	cb := newCircuitBreaker(&Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Second,
		SuccessThreshold: 1,
		OnStateChange: func(from, to CircuitState) {
			seen = append(seen, from.String()+"->"+to.String())
		},
	}, func() time.Time { return now })

	_ = cb.Call(func() error { return errors.New("down") })
	now = now.Add(time.Second)
	assert.NoError(t, cb.Call(func() error { return nil }))
	cb.Reset()

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, seen)
}
