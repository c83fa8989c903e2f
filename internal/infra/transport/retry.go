package transport

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/nxtrade/tbutils/internal/core/domain"
	"github.com/nxtrade/tbutils/internal/metrics"
)

// RetryConfig defines retry behavior for a provider.
type RetryConfig struct {
	MaxAttempts     int
	Wait            time.Duration
	RetryableStatus []int
}

// DefaultRetryConfig is three attempts with a fixed two second wait
// between them.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	Wait:            2 * time.Second,
	RetryableStatus: []int{429, 500, 502, 503, 504},
}

// RequestFactory builds a fresh OutboundRequest per attempt so that
// time-sensitive headers can be regenerated.
type RequestFactory func() *domain.OutboundRequest

// RetryPolicy wraps a Transport with bounded, fixed-interval retries.
type RetryPolicy struct {
	transport Transport
	config    RetryConfig
	provider  int
	retryable map[int]bool
}

// NewRetryPolicy creates a retry policy over the given transport.
func NewRetryPolicy(t Transport, provider int, cfg RetryConfig) *RetryPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultRetryConfig.Wait
	}
	if cfg.RetryableStatus == nil {
		cfg.RetryableStatus = DefaultRetryConfig.RetryableStatus
	}
	retryable := make(map[int]bool, len(cfg.RetryableStatus))
	for _, code := range cfg.RetryableStatus {
		retryable[code] = true
	}
	return &RetryPolicy{transport: t, config: cfg, provider: provider, retryable: retryable}
}

// Attempts returns the configured attempt budget.
func (p *RetryPolicy) Attempts() int {
	return p.config.MaxAttempts
}

// Execute runs the attempt loop. A success or a permanent client error
// returns immediately. Retryable statuses are retried up to the budget;
// exhaustion returns the last failing response as-is, it does not fail.
// A NetworkError on the last attempt is returned to the caller.
// The retry count (attempts beyond the first) is reported alongside.
func (p *RetryPolicy) Execute(ctx context.Context, factory RequestFactory) (*domain.OutboundResponse, int, error) {
	for attempt := 0; attempt < p.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RetryAttemptsTotal.WithLabelValues(strconv.Itoa(p.provider)).Inc()
		}

		resp, err := p.transport.Send(ctx, factory())
		if err != nil {
			if attempt == p.config.MaxAttempts-1 {
				return nil, attempt, err
			}
			slog.Warn("request failed, retrying",
				"provider", p.provider,
				"error", err,
				"attempt", attempt+1,
				"max_attempts", p.config.MaxAttempts)
			if err := p.sleep(ctx); err != nil {
				return nil, attempt, err
			}
			continue
		}

		if resp.StatusCode < 400 || !p.retryable[resp.StatusCode] {
			return resp, attempt, nil
		}

		if attempt == p.config.MaxAttempts-1 {
			return resp, attempt, nil
		}

		slog.Warn("request failed, retrying",
			"provider", p.provider,
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"max_attempts", p.config.MaxAttempts)
		if err := p.sleep(ctx); err != nil {
			return nil, attempt, err
		}
	}

	// Unreachable: every attempt above returns or fails.
	return nil, p.config.MaxAttempts, ErrMaxRetriesExceeded
}

func (p *RetryPolicy) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.config.Wait):
		return nil
	}
}
