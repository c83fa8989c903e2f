// Package client is the TradingBot API client: a Transport wrapped with a
// retry policy and a per-provider circuit breaker, with one telemetry
// record written per logical call.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nxtrade/tbutils/internal/core/domain"
	"github.com/nxtrade/tbutils/internal/infra/transport"
	"github.com/nxtrade/tbutils/internal/metrics"
	"github.com/nxtrade/tbutils/internal/telemetry"
)

// Config holds client settings for one provider.
type Config struct {
	BaseURL   string
	APIKey    string
	Provider  int
	UserAgent string
	Timeout   time.Duration
	Retry     transport.RetryConfig
	Breaker   transport.BreakerConfig
}

// Client issues resilient calls against the TradingBot REST API.
type Client struct {
	cfg       Config
	transport transport.Transport
	retry     *transport.RetryPolicy
	breakers  *transport.Registry
	recorder  *telemetry.Recorder
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport (used in tests).
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		c.transport = t
		c.retry = transport.NewRetryPolicy(t, c.cfg.Provider, c.cfg.Retry)
	}
}

// WithBreakerRegistry shares a breaker registry across clients.
func WithBreakerRegistry(r *transport.Registry) Option {
	return func(c *Client) { c.breakers = r }
}

// New creates a client for the given provider configuration.
func New(cfg Config, recorder *telemetry.Recorder, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tbutils"
	}

	t := transport.NewHTTPTransport()
	c := &Client{
		cfg:       cfg,
		transport: t,
		retry:     transport.NewRetryPolicy(t, cfg.Provider, cfg.Retry),
		breakers:  transport.NewRegistry(cfg.Breaker),
		recorder:  recorder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) headers(forceDelete bool) map[string]string {
	h := map[string]string{
		"Accept":     "application/json",
		"User-Agent": c.cfg.UserAgent,
	}
	if c.cfg.APIKey != "" {
		h["X-Api-Key"] = c.cfg.APIKey
	}
	if forceDelete {
		h["X-Force-Delete"] = "true"
	}
	return h
}

// do issues one logical call: breaker gate, retry loop, telemetry record.
// Hard failures (circuit open, exhausted network errors) return an error;
// a delivered non-2xx response is returned as-is for the caller to inspect.
func (c *Client) do(ctx context.Context, method, endpoint string, query map[string]string, payload any, forceDelete bool) (*domain.OutboundResponse, error) {
	breaker := c.breakers.For(c.cfg.Provider)
	if err := breaker.Allow(); err != nil {
		return nil, err
	}
	stateAtCall := breaker.State()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request payload: %w", err)
		}
	}

	headers := c.headers(forceDelete)
	if len(body) > 0 {
		headers["Content-Type"] = "application/json"
	}
	headerJSON, _ := json.Marshal(headers)

	req := &domain.OutboundRequest{
		Method:        method,
		URL:           transport.JoinURL(c.cfg.BaseURL, endpoint),
		Headers:       headers,
		Query:         query,
		Body:          body,
		Timeout:       c.cfg.Timeout,
		CorrelationID: uuid.NewString(),
	}

	call := &domain.APICall{
		Provider:       c.cfg.Provider,
		Endpoint:       endpoint,
		Method:         method,
		RequestHeaders: string(headerJSON),
		RequestPayload: string(body),
		RequestedAt:    time.Now(),
		BreakerState:   stateAtCall,
		CorrelationID:  req.CorrelationID,
		UserAgent:      c.cfg.UserAgent,
	}

	resp, retries, err := c.retry.Execute(ctx, req.Clone)
	call.RespondedAt = time.Now()
	call.RetryCount = retries
	call.DurationMS = call.RespondedAt.Sub(call.RequestedAt).Milliseconds()

	providerLabel := fmt.Sprintf("%d", c.cfg.Provider)
	metrics.APICallsTotal.WithLabelValues(providerLabel, method).Inc()
	metrics.APICallLatency.WithLabelValues(providerLabel, method).
		Observe(call.RespondedAt.Sub(call.RequestedAt).Seconds())

	if err != nil {
		breaker.OnFailure()
		call.Success = false
		call.ErrorMessage = err.Error()
		metrics.APIErrorsTotal.WithLabelValues(providerLabel, "network").Inc()
		c.recorder.Record(ctx, call)
		return nil, err
	}

	respHeaders, _ := json.Marshal(resp.Headers)
	call.StatusCode = resp.StatusCode
	call.ResponseHeaders = string(respHeaders)
	call.ResponsePayload = string(resp.Body)
	call.DurationMS = resp.Duration.Milliseconds()

	if resp.OK() {
		call.Success = true
		breaker.OnSuccess()
	} else {
		call.Success = false
		call.ErrorCode = fmt.Sprintf("%d", resp.StatusCode)
		call.ErrorMessage = string(translate(resp).Code)
		breaker.OnFailure()
		metrics.APIErrorsTotal.WithLabelValues(providerLabel, "http").Inc()
	}

	c.recorder.Record(ctx, call)
	return resp, nil
}

// getJSON performs a GET and decodes a 2xx body into out. Non-2xx responses
// are translated into an APIError. An empty body leaves out untouched.
func (c *Client) getJSON(ctx context.Context, endpoint string, query map[string]string, out any) error {
	resp, err := c.do(ctx, "GET", endpoint, query, nil, false)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return translate(resp)
	}
	if len(resp.Body) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// sendJSON performs a POST/PUT with a JSON payload and returns the decoded
// response mapping. An empty response body yields an empty mapping.
func (c *Client) sendJSON(ctx context.Context, method, endpoint string, payload any) (map[string]any, error) {
	resp, err := c.do(ctx, method, endpoint, nil, payload, false)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, translate(resp)
	}
	result := map[string]any{}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}
	}
	return result, nil
}

// GetEquity fetches the securities-in-focus feed for a date.
func (c *Client) GetEquity(ctx context.Context, onDate string) ([]domain.Equity, error) {
	if onDate == "" {
		onDate = today()
	}
	var out []domain.Equity
	err := c.getJSON(ctx, pathEquity+"/"+onDate, nil, &out)
	return out, err
}

// GetOrders fetches orders for a date.
func (c *Client) GetOrders(ctx context.Context, onDate string) ([]domain.Order, error) {
	if onDate == "" {
		onDate = today()
	}
	var out []domain.Order
	err := c.getJSON(ctx, pathOrders+"/"+onDate, nil, &out)
	return out, err
}

// GetPositions fetches positions for a date.
func (c *Client) GetPositions(ctx context.Context, onDate string) ([]domain.Position, error) {
	if onDate == "" {
		onDate = today()
	}
	var out []domain.Position
	err := c.getJSON(ctx, pathPositions+"/"+onDate, nil, &out)
	return out, err
}

// GetTradingDates fetches all trading dates.
func (c *Client) GetTradingDates(ctx context.Context) ([]domain.TradingDate, error) {
	var out []domain.TradingDate
	err := c.getJSON(ctx, pathTradingDates, nil, &out)
	return out, err
}

// GetFIIDII fetches institutional investment data.
func (c *Client) GetFIIDII(ctx context.Context) ([]domain.FIIDII, error) {
	var out []domain.FIIDII
	err := c.getJSON(ctx, pathFIIDII, nil, &out)
	return out, err
}

// GetExpiryDates fetches expiry dates for a security type.
func (c *Client) GetExpiryDates(ctx context.Context, securityType string) ([]string, error) {
	if securityType == "" {
		securityType = "equity"
	}
	var out []string
	err := c.getJSON(ctx, pathExpiryDates+"/"+strings.ToLower(securityType), nil, &out)
	return out, err
}

// GetHistoricalDerivatives fetches historical derivatives data, optionally
// scoped to one security. The feed shape varies per contract type, so the
// raw JSON is returned for the caller to interpret.
func (c *Client) GetHistoricalDerivatives(ctx context.Context, security string, query map[string]string) (json.RawMessage, error) {
	endpoint := pathHistoricalDerivatives
	if security != "" {
		endpoint += "/" + security
	}
	var out json.RawMessage
	err := c.getJSON(ctx, endpoint, query, &out)
	return out, err
}

// GetEvents fetches the event calendar. A securities filter with fewer than
// securityInLimit entries is JSON-encoded into the security__in parameter;
// larger lists are dropped with a warning rather than chunked.
func (c *Client) GetEvents(ctx context.Context, query map[string]string, securities []string) ([]domain.Event, error) {
	q := map[string]string{}
	for k, v := range query {
		q[k] = v
	}
	if len(securities) > 0 {
		if len(securities) < securityInLimit {
			encoded, err := json.Marshal(securities)
			if err != nil {
				return nil, fmt.Errorf("failed to encode securities filter: %w", err)
			}
			q["security__in"] = string(encoded)
		} else {
			slog.Warn("securities filter exceeds the safe API limit, dropping filter",
				"count", len(securities),
				"limit", securityInLimit)
		}
	}

	var out []domain.Event
	err := c.getJSON(ctx, pathEvents, q, &out)
	return out, err
}

// CreateOrders posts a batch of new orders for today.
func (c *Client) CreateOrders(ctx context.Context, orders []domain.Order) (map[string]any, error) {
	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			return nil, err
		}
	}
	return c.sendJSON(ctx, "POST", pathOrders+"/"+today(), orders)
}

// CreatePositions posts a batch of new positions for today.
func (c *Client) CreatePositions(ctx context.Context, positions []domain.Position) (map[string]any, error) {
	for i := range positions {
		if err := positions[i].Validate(); err != nil {
			return nil, err
		}
	}
	return c.sendJSON(ctx, "POST", pathPositions+"/"+today(), positions)
}

// UpdateOrders puts updated orders one record at a time (the API has no
// bulk update endpoint) and merges the per-record results.
func (c *Client) UpdateOrders(ctx context.Context, orders []domain.Order) (map[string]any, error) {
	results := map[string]any{}
	endpoint := pathOrders + "/" + today()
	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			return results, err
		}
		res, err := c.sendJSON(ctx, "PUT", endpoint, orders[i])
		if err != nil {
			return results, err
		}
		for k, v := range res {
			results[k] = v
		}
	}
	return results, nil
}

// UpdatePositions puts updated positions one record at a time and merges
// the per-record results.
func (c *Client) UpdatePositions(ctx context.Context, positions []domain.Position) (map[string]any, error) {
	results := map[string]any{}
	endpoint := pathPositions + "/" + today()
	for i := range positions {
		if err := positions[i].Validate(); err != nil {
			return results, err
		}
		res, err := c.sendJSON(ctx, "PUT", endpoint, positions[i])
		if err != nil {
			return results, err
		}
		for k, v := range res {
			results[k] = v
		}
	}
	return results, nil
}

// Delete issues a destructive call with the X-Force-Delete header set.
func (c *Client) Delete(ctx context.Context, endpoint string) (map[string]any, error) {
	resp, err := c.do(ctx, "DELETE", endpoint, nil, nil, true)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, translate(resp)
	}
	result := map[string]any{}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}
	}
	return result, nil
}
