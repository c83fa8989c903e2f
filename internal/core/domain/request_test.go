package domain

import (
	"testing"
	"time"
)

func TestOutboundRequestClone(t *testing.T) {
	orig := &OutboundRequest{
		Method:        "POST",
		URL:           "http://api.test/api/orders",
		Headers:       map[string]string{"X-Api-Key": "k"},
		Query:         map[string]string{"on_date": "2026-08-25"},
		Body:          []byte(`{"orderId":1}`),
		Timeout:       5 * time.Second,
		CorrelationID: "c-1",
	}

	clone := orig.Clone()
	clone.Headers["X-Api-Key"] = "changed"
	clone.Query["on_date"] = "changed"
	clone.Body[0] = 'X'

	if orig.Headers["X-Api-Key"] != "k" {
		t.Error("Clone shares the headers map")
	}
	if orig.Query["on_date"] != "2026-08-25" {
		t.Error("Clone shares the query map")
	}
	if orig.Body[0] != '{' {
		t.Error("Clone shares the body slice")
	}
	if clone.CorrelationID != "c-1" || clone.Method != "POST" {
		t.Errorf("Clone dropped scalar fields: %+v", clone)
	}
}

func TestOutboundResponseOK(t *testing.T) {
	for _, tt := range []struct {
		status int
		ok     bool
	}{
		{200, true}, {201, true}, {302, true}, {400, false}, {404, false}, {500, false},
	} {
		r := &OutboundResponse{StatusCode: tt.status}
		if r.OK() != tt.ok {
			t.Errorf("OK() for %d = %v, want %v", tt.status, r.OK(), tt.ok)
		}
	}
}
