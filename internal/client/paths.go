package client

import "time"

// API endpoint paths, relative to the configured base URL.
const (
	pathEquity                = "api/equity"
	pathOrders                = "api/orders"
	pathPositions             = "api/positions"
	pathTradingDates          = "api/trading-dates"
	pathFIIDII                = "api/fii-dii"
	pathExpiryDates           = "api/expiry-dates"
	pathEvents                = "api/events"
	pathHistoricalDerivatives = "api/historical-derivatives"
)

// securityInLimit caps the number of values accepted by the server-side
// security__in filter. Larger lists are dropped with a warning instead of
// being chunked client-side.
const securityInLimit = 80

func today() string {
	return time.Now().Format("2006-01-02")
}
