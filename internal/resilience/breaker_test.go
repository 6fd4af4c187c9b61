package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failing() error { return errBoom }
func succeeding() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewCircuitBreaker("test", 3, time.Minute, 1)

	for i := 0; i < 3; i++ {
		if err := b.Call(failing); !errors.Is(err, errBoom) {
			t.Fatalf("Expected underlying error on call %d, got %v", i, err)
		}
	}

	if got := b.Status().State; got != StateOpen {
		t.Fatalf("Expected open state after 3 failures, got %s", got)
	}

	// Further calls are blocked without invoking fn
	called := false
	err := b.Call(func() error { called = true; return nil })
	var open *ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected fn not to be called while open")
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewCircuitBreaker("test", 1, 10*time.Millisecond, 2)

	if err := b.Call(failing); err == nil {
		t.Fatal("Expected failure")
	}
	if got := b.Status().State; got != StateOpen {
		t.Fatalf("Expected open state, got %s", got)
	}

	time.Sleep(20 * time.Millisecond)

	// First probe succeeds: half-open, not yet closed
	if err := b.Call(succeeding); err != nil {
		t.Fatalf("Expected probe to pass, got %v", err)
	}
	if got := b.Status().State; got != StateHalfOpen {
		t.Fatalf("Expected half-open after one success, got %s", got)
	}

	// Second success closes the breaker
	if err := b.Call(succeeding); err != nil {
		t.Fatalf("Expected probe to pass, got %v", err)
	}
	if got := b.Status().State; got != StateClosed {
		t.Fatalf("Expected closed after success threshold, got %s", got)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker("test", 1, 10*time.Millisecond, 2)

	b.Call(failing)
	time.Sleep(20 * time.Millisecond)

	if err := b.Call(failing); !errors.Is(err, errBoom) {
		t.Fatalf("Expected underlying error from probe, got %v", err)
	}
	if got := b.Status().State; got != StateOpen {
		t.Fatalf("Expected open after failed probe, got %s", got)
	}
}

func TestBreakerFailureDecayOnSuccess(t *testing.T) {
	b := NewCircuitBreaker("test", 3, time.Minute, 1)

	b.Call(failing)
	b.Call(failing)
	b.Call(succeeding)

	if got := b.Status().FailureCount; got != 1 {
		t.Errorf("Expected failure count to decay to 1, got %d", got)
	}
	if got := b.Status().State; got != StateClosed {
		t.Errorf("Expected closed state, got %s", got)
	}
}

func TestBreakerReset(t *testing.T) {
	b := NewCircuitBreaker("test", 1, time.Minute, 1)

	b.Call(failing)
	if got := b.Status().State; got != StateOpen {
		t.Fatalf("Expected open state, got %s", got)
	}

	b.Reset()
	status := b.Status()
	if status.State != StateClosed || status.FailureCount != 0 {
		t.Errorf("Expected closed breaker with zero failures after reset, got %+v", status)
	}
	if err := b.Call(succeeding); err != nil {
		t.Errorf("Expected call to pass after reset, got %v", err)
	}
}

func TestRegistryReturnsSameBreaker(t *testing.T) {
	r := NewRegistry()

	a := r.Get("openai_api")
	b := r.Get("openai_api")
	if a != b {
		t.Error("Expected the same breaker instance for the same name")
	}

	r.Get("usda_api")
	status := r.Status()
	if len(status) != 2 {
		t.Errorf("Expected 2 breakers in status, got %d", len(status))
	}
	if status["openai_api"].State != StateClosed {
		t.Errorf("Expected new breaker to start closed, got %s", status["openai_api"].State)
	}
}
