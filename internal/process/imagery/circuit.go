package imagery

import (
	"sync"
	"time"
)

const (
	circuitBreakerThreshold  = 3
	circuitBreakerResetAfter = 5 * time.Minute
	halfOpenSuccesses        = 2
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// circuitBreaker stops calling a provider after consecutive failures and lets a
// probe through once the reset window has passed.
type circuitBreaker struct {
	mu           sync.Mutex
	failures     int
	lastFailure  time.Time
	state        circuitState
	successCount int
	now          func() time.Time
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		state: circuitClosed,
		now:   time.Now,
	}
}

func (cb *circuitBreaker) canAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		return true
	case circuitOpen:
		if cb.now().Sub(cb.lastFailure) > circuitBreakerResetAfter {
			cb.state = circuitHalfOpen
			cb.successCount = 0

			return true
		}

		return false
	case circuitHalfOpen:
		return true
	default:
		return false
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0

	if cb.state == circuitHalfOpen {
		cb.successCount++
		if cb.successCount >= halfOpenSuccesses {
			cb.state = circuitClosed
		}
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	if cb.failures >= circuitBreakerThreshold || cb.state == circuitHalfOpen {
		cb.state = circuitOpen
	}
}
