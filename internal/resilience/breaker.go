package resilience

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when a request is blocked by an open circuit.
type ErrCircuitOpen struct {
	Name string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker %q is open, service temporarily unavailable", e.Name)
}

// BreakerStatus is a snapshot of a circuit breaker's state.
type BreakerStatus struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailure     time.Time `json:"last_failure,omitempty"`
	LastStateChange time.Time `json:"last_state_change"`
}

// CircuitBreaker blocks calls to a failing dependency until it recovers.
// Closed passes requests through, open blocks them, and half-open lets a
// limited number through to probe recovery.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	successThreshold int

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailure     time.Time
	lastStateChange time.Time
}

// NewCircuitBreaker creates a breaker with the given thresholds.
func NewCircuitBreaker(name string, failureThreshold int, recoveryTimeout time.Duration, successThreshold int) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		successThreshold: successThreshold,
		state:            StateClosed,
		lastStateChange:  time.Now(),
	}
}

// Call executes fn through the breaker.
func (b *CircuitBreaker) Call(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	if err := fn(); err != nil {
		b.onFailure()
		return err
	}

	b.onSuccess()
	return nil
}

func (b *CircuitBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}

	if b.lastFailure.IsZero() || time.Since(b.lastFailure) > b.recoveryTimeout {
		log.Printf("Circuit %s: attempting reset (half-open)", b.name)
		b.state = StateHalfOpen
		b.successCount = 0
		return nil
	}

	log.Printf("Circuit %s: open, request blocked", b.name)
	return &ErrCircuitOpen{Name: b.name}
}

func (b *CircuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successCount++
		log.Printf("Circuit %s: success in half-open (%d/%d)", b.name, b.successCount, b.successThreshold)
		if b.successCount >= b.successThreshold {
			log.Printf("Circuit %s: closed, service recovered", b.name)
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
			b.lastStateChange = time.Now()
		}
	case StateClosed:
		// Failures decay on success so stale failures don't trip the
		// breaker later.
		if b.failureCount > 0 {
			b.failureCount--
		}
	}
}

func (b *CircuitBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = time.Now()
	log.Printf("Circuit %s: failure (%d/%d)", b.name, b.failureCount, b.failureThreshold)

	switch {
	case b.state == StateHalfOpen:
		log.Printf("Circuit %s: open, recovery failed", b.name)
		b.state = StateOpen
		b.successCount = 0
		b.lastStateChange = time.Now()
	case b.failureCount >= b.failureThreshold:
		log.Printf("Circuit %s: open, threshold exceeded", b.name)
		b.state = StateOpen
		b.lastStateChange = time.Now()
	}
}

// Reset manually closes the breaker.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.lastFailure = time.Time{}
	b.lastStateChange = time.Now()
}

// Status returns a snapshot of the breaker.
func (b *CircuitBreaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStatus{
		Name:            b.name,
		State:           b.state,
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailure:     b.lastFailure,
		LastStateChange: b.lastStateChange,
	}
}

// Registry holds named circuit breakers.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty breaker registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the named breaker, creating it with defaults (5 failures,
// 60s recovery, 2 successes) when absent.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := NewCircuitBreaker(name, 5, 60*time.Second, 2)
	r.breakers[name] = b
	return b
}

// Status returns snapshots of all registered breakers.
func (r *Registry) Status() map[string]BreakerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := make(map[string]BreakerStatus, len(r.breakers))
	for name, b := range r.breakers {
		status[name] = b.Status()
	}
	return status
}
