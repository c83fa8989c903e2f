package domain

import "fmt"

// ValidationError reports a malformed record detected at the boundary,
// before any network call is made. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Order is a broker order as received from the upstream feed. Security,
// OnDate and Timestamp are enrichment fields populated during reconciliation.
type Order struct {
	OrderID    int64   `json:"orderId"`
	Symbol     string  `json:"symbol"`
	Security   string  `json:"security,omitempty"`
	Side       string  `json:"side,omitempty"`
	OrderType  string  `json:"orderType,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`
	LimitPrice float64 `json:"lmtPrice,omitempty"`
	Status     string  `json:"status,omitempty"`
	OnDate     string  `json:"on_date,omitempty"`
	Timestamp  string  `json:"timestamp,omitempty"`
}

// Validate checks the fields required to identify and persist an order.
func (o *Order) Validate() error {
	if o.OrderID == 0 {
		return &ValidationError{Field: "orderId", Reason: "must be set"}
	}
	if o.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if o.Quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	return nil
}

// Position is a broker position snapshot, keyed by symbol.
type Position struct {
	Symbol        string  `json:"symbol"`
	Security      string  `json:"security,omitempty"`
	Quantity      int     `json:"position,omitempty"`
	AvgPrice      float64 `json:"avgCost,omitempty"`
	RealizedPnL   float64 `json:"realizedPnl,omitempty"`
	UnrealizedPnL float64 `json:"unrealizedPnl,omitempty"`
	OnDate        string  `json:"on_date,omitempty"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// Validate checks the fields required to identify a position.
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	return nil
}
