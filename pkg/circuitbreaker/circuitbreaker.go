package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	// Closed lets calls through.
	Closed CircuitState = iota
	// Open rejects calls until the recovery timeout elapses.
	Open
	// HalfOpen lets trial calls through to probe recovery.
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards calls and opens the circuit after repeated failures.
type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
	Reset()
}

type Config struct {
	FailureThreshold int           // consecutive failures before opening
	RecoveryTimeout  time.Duration // time spent open before probing
	SuccessThreshold int           // half-open successes needed to close

	// OnStateChange runs after each transition, outside the breaker lock.
	OnStateChange func(from, to CircuitState)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 3,
	}
}

type circuitBreaker struct {
	config *Config
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	nextAttempt time.Time
	pending     []transition
}

type transition struct {
	from, to CircuitState
}

// NewCircuitBreaker returns a circuit breaker and applies defaults when config is nil.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config *Config, now func() time.Time) *circuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &circuitBreaker{config: config, now: now, state: Closed}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	cb.advance()
	allowed := cb.state != Open
	cb.unlock()

	if !allowed {
		return ErrCircuitOpen
	}

	// fn runs without the lock held.
	err := fn()

	cb.mu.Lock()
	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
	cb.unlock()

	return err
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	cb.advance()
	state := cb.state
	cb.unlock()

	return state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	cb.setState(Closed)
	cb.failures = 0
	cb.successes = 0
	cb.unlock()
}

// setState records a transition for OnStateChange. Callers hold mu.
func (cb *circuitBreaker) setState(to CircuitState) {
	if cb.state == to {
		return
	}
	if cb.config.OnStateChange != nil {
		cb.pending = append(cb.pending, transition{from: cb.state, to: to})
	}
	cb.state = to
}

// unlock releases mu and then reports any transitions recorded while it was held.
func (cb *circuitBreaker) unlock() {
	pending := cb.pending
	cb.pending = nil
	cb.mu.Unlock()

	for _, t := range pending {
		cb.config.OnStateChange(t.from, t.to)
	}
}

// advance moves Open to HalfOpen once the recovery timeout has passed. Callers hold mu.
func (cb *circuitBreaker) advance() {
	if cb.state == Open && !cb.now().Before(cb.nextAttempt) {
		cb.setState(HalfOpen)
		cb.successes = 0
	}
}

func (cb *circuitBreaker) trip() {
	cb.setState(Open)
	cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
}

func (cb *circuitBreaker) recordFailure() {
	cb.failures++

	switch cb.state {
	case Closed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.trip()
		}
	case HalfOpen:
		cb.trip()
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.failures = 0

	if cb.state == HalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.setState(Closed)
			cb.successes = 0
		}
	}
}
