package transport

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/nxtrade/tbutils/internal/core/domain"
	"github.com/nxtrade/tbutils/internal/metrics"
)

// BreakerConfig defines circuit breaker thresholds for a provider.
type BreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// DefaultBreakerConfig trips after five consecutive failures and probes
// again one minute later.
var DefaultBreakerConfig = BreakerConfig{
	MaxFailures:  5,
	ResetTimeout: 60 * time.Second,
}

// Breaker is a three-state circuit breaker guarding one provider.
// State is process-local and cleared on restart.
type Breaker struct {
	provider int
	config   BreakerConfig

	mu           sync.Mutex
	state        domain.BreakerState
	failureCount int
	lastFailure  time.Time

	now func() time.Time
}

// NewBreaker creates a closed breaker for the given provider.
func NewBreaker(provider int, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultBreakerConfig.MaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultBreakerConfig.ResetTimeout
	}
	b := &Breaker{
		provider: provider,
		config:   cfg,
		state:    domain.BreakerClosed,
		now:      time.Now,
	}
	metrics.BreakerState.WithLabelValues(strconv.Itoa(provider)).Set(float64(domain.BreakerClosed))
	return b
}

// Allow reports whether a call may proceed. When the circuit is open and
// the reset timeout has elapsed, the breaker moves to half-open and lets
// exactly one probe through; otherwise it fails fast with CircuitOpenError.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != domain.BreakerOpen {
		return nil
	}

	elapsed := b.now().Sub(b.lastFailure)
	if elapsed > b.config.ResetTimeout {
		b.setState(domain.BreakerHalfOpen)
		slog.Info("circuit breaker entered half-open state", "provider", b.provider)
		return nil
	}

	return &CircuitOpenError{
		Provider:   b.provider,
		RetryAfter: b.config.ResetTimeout - elapsed,
	}
}

// OnSuccess fully resets the breaker, whether it was closed or probing.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != domain.BreakerClosed {
		slog.Info("circuit breaker reset to closed state", "provider", b.provider)
	}
	b.failureCount = 0
	b.lastFailure = time.Time{}
	b.setState(domain.BreakerClosed)
}

// OnFailure records a failed call; at the threshold the circuit opens.
// A failed half-open probe re-opens immediately since the count stays
// at or above the threshold.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = b.now()

	if b.failureCount >= b.config.MaxFailures {
		if b.state != domain.BreakerOpen {
			slog.Warn("circuit breaker tripped to open state",
				"provider", b.provider,
				"failures", b.failureCount)
		}
		b.setState(domain.BreakerOpen)
	}
}

// State returns the current breaker state.
func (b *Breaker) State() domain.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) setState(s domain.BreakerState) {
	b.state = s
	metrics.BreakerState.WithLabelValues(strconv.Itoa(b.provider)).Set(float64(s))
}

// Registry holds one breaker per provider id.
type Registry struct {
	mu       sync.Mutex
	config   BreakerConfig
	breakers map[int]*Breaker
}

// NewRegistry creates a registry; all breakers share the given config.
func NewRegistry(cfg BreakerConfig) *Registry {
	return &Registry{
		config:   cfg,
		breakers: make(map[int]*Breaker),
	}
}

// For returns the breaker for a provider, creating it on first use.
func (r *Registry) For(provider int) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[provider]
	if !ok {
		b = NewBreaker(provider, r.config)
		r.breakers[provider] = b
	}
	return b
}
