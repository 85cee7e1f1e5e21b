package clients

import (
	"sync"
	"time"
)

// State is the state of a CircuitBreaker.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen blocks every request until the open timeout has elapsed.
	StateOpen

	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed and the
	// number of consecutive probe successes that close the circuit.
	HalfOpenLimit int
}

// CircuitBreaker stops calls to a failing downstream service.
//
//	closed    -> open       after MaxFailures consecutive failures
//	open      -> half-open  once Timeout has elapsed
//	half-open -> closed     after HalfOpenLimit consecutive successes
//	half-open -> open       on any failure
type CircuitBreaker struct {
	mu          sync.Mutex
	cfg         CircuitBreakerConfig
	state       State
	failures    int
	successes   int
	probes      int
	lastFailure time.Time

	onStateChange func(from, to State)
	now           func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called, asynchronously, on every transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onStateChange = fn
}

// Allow reports whether a request may proceed. Every allowed request must be
// followed by exactly one RecordSuccess, RecordFailure or RecordCanceled.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) < cb.cfg.Timeout {
			return false
		}

		cb.transitionTo(StateHalfOpen)
		cb.probes = 1

		return true
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenLimit {
			return false
		}

		cb.probes++

		return true
	default:
		return false
	}
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.successes++

		if cb.successes >= cb.cfg.HalfOpenLimit {
			cb.transitionTo(StateClosed)
		}
	}
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		cb.transitionTo(StateOpen)
	}
}

// RecordCanceled releases a request the caller abandoned. It counts as
// neither success nor failure.
func (cb *CircuitBreaker) RecordCanceled() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.probes > 0 {
		cb.probes--
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// transitionTo must be called with cb.mu held.
func (cb *CircuitBreaker) transitionTo(next State) {
	if cb.state == next {
		return
	}

	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0

	if next != StateHalfOpen {
		cb.probes = 0
	}

	if cb.onStateChange != nil {
		go cb.onStateChange(prev, next)
	}
}
