package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		field string
	}{
		{"valid", Order{OrderID: 1, Symbol: "RELIANCE", Quantity: 10}, ""},
		{"missing order id", Order{Symbol: "RELIANCE"}, "orderId"},
		{"missing symbol", Order{OrderID: 1}, "symbol"},
		{"negative quantity", Order{OrderID: 1, Symbol: "TCS", Quantity: -1}, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected valid order, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, ve.Field)
			}
		})
	}
}

func TestPositionValidate(t *testing.T) {
	p := Position{Symbol: "RELIANCE", Quantity: 5}
	if err := p.Validate(); err != nil {
		t.Fatalf("Expected valid position, got %v", err)
	}

	var ve *ValidationError
	if err := (&Position{}).Validate(); !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestCapPayloads(t *testing.T) {
	c := &APICall{
		RequestPayload:  strings.Repeat("a", PayloadCap+1),
		ResponsePayload: strings.Repeat("b", PayloadCap*2),
	}
	c.CapPayloads()

	if len(c.RequestPayload) != PayloadCap {
		t.Errorf("Expected request payload capped at %d, got %d", PayloadCap, len(c.RequestPayload))
	}
	if len(c.ResponsePayload) != PayloadCap {
		t.Errorf("Expected response payload capped at %d, got %d", PayloadCap, len(c.ResponsePayload))
	}

	short := &APICall{RequestPayload: "ok"}
	short.CapPayloads()
	if short.RequestPayload != "ok" {
		t.Error("Expected short payload left untouched")
	}
}

func TestBreakerStateString(t *testing.T) {
	tests := []struct {
		state BreakerState
		want  string
	}{
		{BreakerOpen, "open"},
		{BreakerClosed, "closed"},
		{BreakerHalfOpen, "half-open"},
		{BreakerState(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State %d = %q, want %q", tt.state, got, tt.want)
		}
	}
}
