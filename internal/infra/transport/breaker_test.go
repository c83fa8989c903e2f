package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/nxtrade/tbutils/internal/core/domain"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(1, BreakerConfig{MaxFailures: 5, ResetTimeout: time.Minute})

	for i := 0; i < 4; i++ {
		b.OnFailure()
		if err := b.Allow(); err != nil {
			t.Fatalf("Breaker should stay closed below threshold, got %v after %d failures", err, i+1)
		}
	}

	b.OnFailure()
	if b.State() != domain.BreakerOpen {
		t.Fatalf("Expected open state after threshold, got %s", b.State())
	}

	err := b.Allow()
	var open *CircuitOpenError
	if !errors.As(err, &open) {
		t.Fatalf("Expected CircuitOpenError, got %v", err)
	}
	if open.Provider != 1 {
		t.Errorf("Expected provider 1 in error, got %d", open.Provider)
	}
	if open.RetryAfter <= 0 {
		t.Errorf("Expected positive retry-after, got %v", open.RetryAfter)
	}
}

func TestBreakerFailFastWithoutTransportCall(t *testing.T) {
	// max_failures=2: two failed calls, the third is rejected before I/O.
	b := NewBreaker(2, BreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute})
	b.OnFailure()
	b.OnFailure()

	var open *CircuitOpenError
	if err := b.Allow(); !errors.As(err, &open) {
		t.Fatalf("Expected CircuitOpenError on third call, got %v", err)
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewBreaker(1, BreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute})

	now := time.Now()
	b.now = func() time.Time { return now }

	b.OnFailure()
	b.OnFailure()
	if b.State() != domain.BreakerOpen {
		t.Fatalf("Expected open state, got %s", b.State())
	}

	// Still inside the reset window: rejected.
	now = now.Add(30 * time.Second)
	if err := b.Allow(); err == nil {
		t.Fatal("Expected rejection inside reset window")
	}

	// Past the window: exactly one probe allowed, state moves to half-open.
	now = now.Add(31 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Expected probe to pass, got %v", err)
	}
	if b.State() != domain.BreakerHalfOpen {
		t.Fatalf("Expected half-open state, got %s", b.State())
	}

	// Probe failure re-opens immediately.
	b.OnFailure()
	if b.State() != domain.BreakerOpen {
		t.Fatalf("Expected re-open after failed probe, got %s", b.State())
	}

	// Next probe succeeds: full reset.
	now = now.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("Expected probe to pass, got %v", err)
	}
	b.OnSuccess()
	if b.State() != domain.BreakerClosed {
		t.Fatalf("Expected closed state after successful probe, got %s", b.State())
	}
	if b.failureCount != 0 {
		t.Errorf("Expected failure count reset, got %d", b.failureCount)
	}
}

func TestBreakerSuccessResetsFromClosed(t *testing.T) {
	b := NewBreaker(1, BreakerConfig{MaxFailures: 3, ResetTimeout: time.Minute})

	b.OnFailure()
	b.OnFailure()
	b.OnSuccess()

	// Counter is reset; three more failures are needed to trip.
	b.OnFailure()
	b.OnFailure()
	if b.State() != domain.BreakerClosed {
		t.Fatalf("Expected closed state, got %s", b.State())
	}
	b.OnFailure()
	if b.State() != domain.BreakerOpen {
		t.Fatalf("Expected open state, got %s", b.State())
	}
}

func TestRegistryOnePerProvider(t *testing.T) {
	r := NewRegistry(BreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute})

	a := r.For(1)
	if r.For(1) != a {
		t.Error("Expected the same breaker instance per provider")
	}

	b := r.For(2)
	if a == b {
		t.Error("Expected distinct breakers for distinct providers")
	}

	// State evolves independently.
	a.OnFailure()
	a.OnFailure()
	if err := a.Allow(); err == nil {
		t.Error("Expected provider 1 breaker to be open")
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Expected provider 2 breaker to stay closed, got %v", err)
	}
}
