package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nxtrade/tbutils/internal/core/domain"
)

// Transport issues exactly one HTTP request. No retries, no status
// interpretation; a delivered non-2xx response is a valid response.
type Transport interface {
	Send(ctx context.Context, req *domain.OutboundRequest) (*domain.OutboundResponse, error)
}

// HTTPTransport implements Transport over net/http with a pooled client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with connection pooling. The
// per-request timeout comes from each OutboundRequest, not the client.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Send performs one attempt and returns the raw response or a NetworkError.
func (t *HTTPTransport) Send(ctx context.Context, req *domain.OutboundRequest) (*domain.OutboundResponse, error) {
	start := time.Now()

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &NetworkError{URL: req.URL, Err: err}
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: req.URL, Err: err}
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &domain.OutboundResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       respBody,
		Duration:   time.Since(start),
	}, nil
}

// JoinURL resolves an endpoint against a base URL. Absolute endpoints
// are passed through untouched.
func JoinURL(base, endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.IsAbs() {
		return endpoint
	}
	b := base
	for len(b) > 0 && b[len(b)-1] == '/' {
		b = b[:len(b)-1]
	}
	e := endpoint
	for len(e) > 0 && e[0] == '/' {
		e = e[1:]
	}
	return b + "/" + e
}
