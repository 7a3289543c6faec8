package resilience

import (
	"sync"
	"time"
)

// CircuitState represents the circuit breaker state.
type CircuitState int

const (
	// CircuitClosed is normal operation - requests pass through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means too many failures - requests are rejected.
	CircuitOpen
	// CircuitHalfOpen is testing recovery - the next call decides.
	CircuitHalfOpen
)

// String returns a human-readable state name.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// RecoveryTimeout is how long to stay open before testing recovery.
	RecoveryTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns the standard defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
	}
}

// CircuitBreaker guards one external dependency against cascading failure.
//
// One instance is shared by all concurrent callers of the same dependency;
// every state read and transition is serialized under a single mutex.
// RecordSuccess and RecordFailure are the only mutation paths besides the
// OPEN → HALF_OPEN probe performed inside CheckState.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	lastFailure time.Time

	now func() time.Time // injectable clock for tests
}

// NewCircuitBreaker creates a breaker in the CLOSED state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	return &CircuitBreaker{
		config: config,
		state:  CircuitClosed,
		now:    time.Now,
	}
}

// CheckState returns the current state, promoting OPEN to HALF_OPEN once the
// recovery timeout has elapsed since the last recorded failure.
func (cb *CircuitBreaker) CheckState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.lastFailure) >= cb.config.RecoveryTimeout {
		cb.state = CircuitHalfOpen
	}
	return cb.state
}

// Allow reports whether a call should be attempted right now.
func (cb *CircuitBreaker) Allow() bool {
	return cb.CheckState() != CircuitOpen
}

// RecordSuccess resets the failure counter unconditionally and closes the
// circuit (also the HALF_OPEN → CLOSED transition).
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure counts one failure. The circuit opens after the configured
// threshold of consecutive failures, or immediately when half-open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	if cb.state == CircuitHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.state = CircuitOpen
	}
}

// FailureCount returns the current consecutive-failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}
