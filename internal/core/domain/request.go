package domain

import "time"

// OutboundRequest describes a single HTTP attempt against a provider.
// A fresh instance is built per retry attempt so time-sensitive headers
// can be regenerated; it is never mutated after construction.
type OutboundRequest struct {
	Method        string
	URL           string
	Headers       map[string]string
	Query         map[string]string
	Body          []byte
	Timeout       time.Duration
	CorrelationID string
}

// Clone returns a deep copy suitable for re-issuing the same logical call.
func (r *OutboundRequest) Clone() *OutboundRequest {
	c := *r
	if r.Headers != nil {
		c.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			c.Headers[k] = v
		}
	}
	if r.Query != nil {
		c.Query = make(map[string]string, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = v
		}
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}

// OutboundResponse is the outcome of one completed attempt.
type OutboundResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// OK reports whether the response carries a 2xx/3xx status.
func (r *OutboundResponse) OK() bool {
	return r.StatusCode < 400
}
