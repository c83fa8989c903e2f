package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nxtrade/tbutils/internal/core/domain"
	"github.com/nxtrade/tbutils/internal/infra/storage/memory"
	"github.com/nxtrade/tbutils/internal/infra/transport"
	"github.com/nxtrade/tbutils/internal/telemetry"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memory.TelemetryRepo, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	repo := memory.NewTelemetryRepo()
	c := New(Config{
		BaseURL:  srv.URL,
		APIKey:   "secret",
		Provider: 1,
		Timeout:  5 * time.Second,
		Retry:    transport.RetryConfig{MaxAttempts: 3, Wait: time.Millisecond},
		Breaker:  transport.BreakerConfig{MaxFailures: 5, ResetTimeout: time.Minute},
	}, telemetry.NewRecorder(repo))
	return c, repo, srv.Close
}

func TestGetOrders(t *testing.T) {
	var gotPath, gotKey, gotAgent string
	c, repo, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotAgent = r.Header.Get("User-Agent")
		_ = json.NewEncoder(w).Encode([]domain.Order{{OrderID: 1, Symbol: "RELIANCE"}})
	}))
	defer done()

	orders, err := c.GetOrders(context.Background(), "2026-08-25")
	if err != nil {
		t.Fatalf("GetOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != 1 {
		t.Fatalf("Unexpected orders: %v", orders)
	}
	if gotPath != "/api/orders/2026-08-25" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("Expected auth header, got %q", gotKey)
	}
	if gotAgent != "tbutils" {
		t.Errorf("Expected default user agent, got %q", gotAgent)
	}

	// One telemetry record for the logical call.
	if repo.Count() != 1 {
		t.Fatalf("Expected 1 telemetry record, got %d", repo.Count())
	}
	recent, _ := repo.Recent(context.Background(), 1, 1)
	call := recent[0]
	if !call.Success || call.StatusCode != 200 || call.RetryCount != 0 {
		t.Errorf("Unexpected telemetry record: %+v", call)
	}
	if call.BreakerState != domain.BreakerClosed {
		t.Errorf("Expected closed breaker state, got %s", call.BreakerState)
	}
	if call.CorrelationID == "" {
		t.Error("Expected a correlation id")
	}
}

func TestRetryThenSuccessSingleTelemetryRecord(t *testing.T) {
	var calls int32
	c, repo, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer done()

	if _, err := c.GetOrders(context.Background(), ""); err != nil {
		t.Fatalf("GetOrders failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 HTTP attempts, got %d", calls)
	}
	if repo.Count() != 1 {
		t.Fatalf("Expected a single telemetry record per logical call, got %d", repo.Count())
	}
	recent, _ := repo.Recent(context.Background(), 1, 1)
	if recent[0].RetryCount != 2 {
		t.Errorf("Expected retry count 2, got %d", recent[0].RetryCount)
	}
}

func TestValidationErrorTranslation(t *testing.T) {
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"security not found"}`, http.StatusBadRequest)
	}))
	defer done()

	_, err := c.GetOrders(context.Background(), "2026-08-25")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != 400 || apiErr.Code != CodeValidationFailed {
		t.Errorf("Unexpected translation: %+v", apiErr)
	}
}

func TestDuplicateRecordTranslation(t *testing.T) {
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer done()

	_, err := c.CreateOrders(context.Background(), []domain.Order{{OrderID: 1, Symbol: "TCS", Quantity: 1}})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Code != CodeDuplicateRecord {
		t.Errorf("Expected duplicate code, got %s", apiErr.Code)
	}
}

func TestCreateOrdersValidatesBeforeSending(t *testing.T) {
	var called bool
	c, repo, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer done()

	_, err := c.CreateOrders(context.Background(), []domain.Order{{Symbol: "TCS"}})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if ve.Field != "orderId" {
		t.Errorf("Unexpected field: %s", ve.Field)
	}
	if called {
		t.Error("Expected no HTTP call for an invalid order")
	}
	if repo.Count() != 0 {
		t.Error("Expected no telemetry record for a rejected batch")
	}
}

func TestGetEventsSecurityFilter(t *testing.T) {
	var gotFilter string
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("security__in")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer done()

	_, err := c.GetEvents(context.Background(), nil, []string{"RELIANCE", "TCS"})
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}

	var decoded []string
	if err := json.Unmarshal([]byte(gotFilter), &decoded); err != nil {
		t.Fatalf("Filter is not JSON: %q", gotFilter)
	}
	if len(decoded) != 2 || decoded[0] != "RELIANCE" {
		t.Errorf("Unexpected filter: %v", decoded)
	}
}

func TestGetEventsOversizedFilterDropped(t *testing.T) {
	var gotFilter string
	var hasFilter bool
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("security__in")
		_, hasFilter = r.URL.Query()["security__in"]
		_, _ = w.Write([]byte(`[]`))
	}))
	defer done()

	securities := make([]string, securityInLimit)
	for i := range securities {
		securities[i] = "S"
	}
	if _, err := c.GetEvents(context.Background(), nil, securities); err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if hasFilter {
		t.Errorf("Expected oversized filter to be dropped, got %q", gotFilter)
	}
}

func TestDeleteSetsForceHeader(t *testing.T) {
	var gotHeader string
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Force-Delete")
		if r.Method != "DELETE" {
			t.Errorf("Expected DELETE, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`{"deleted":1}`))
	}))
	defer done()

	res, err := c.Delete(context.Background(), "api/orders/2026-08-25")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if gotHeader != "true" {
		t.Errorf("Expected X-Force-Delete header, got %q", gotHeader)
	}
	if res["deleted"] != float64(1) {
		t.Errorf("Unexpected result: %v", res)
	}
}

func TestCircuitOpenShortCircuits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	repo := memory.NewTelemetryRepo()
	c := New(Config{
		BaseURL:  srv.URL,
		Provider: 2,
		Retry:    transport.RetryConfig{MaxAttempts: 3, Wait: time.Millisecond},
		Breaker:  transport.BreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute},
	}, telemetry.NewRecorder(repo))

	// First call reaches the server, fails, trips the breaker.
	if _, err := c.GetOrders(context.Background(), "2026-08-25"); err == nil {
		t.Fatal("Expected APIError from 404")
	}
	if calls != 1 {
		t.Fatalf("Expected 1 HTTP attempt, got %d", calls)
	}

	// Second call is rejected before any network I/O or telemetry write.
	_, err := c.GetOrders(context.Background(), "2026-08-25")
	var open *transport.CircuitOpenError
	if !errors.As(err, &open) {
		t.Fatalf("Expected CircuitOpenError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no further HTTP attempts, got %d", calls)
	}
	if repo.Count() != 1 {
		t.Errorf("Expected no telemetry record for a rejected call, got %d", repo.Count())
	}
}

func TestGetExpiryDatesLowercasesType(t *testing.T) {
	var gotPath string
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`["2026-08-28"]`))
	}))
	defer done()

	dates, err := c.GetExpiryDates(context.Background(), "EQUITY")
	if err != nil {
		t.Fatalf("GetExpiryDates failed: %v", err)
	}
	if gotPath != "/api/expiry-dates/equity" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if len(dates) != 1 || dates[0] != "2026-08-28" {
		t.Errorf("Unexpected dates: %v", dates)
	}
}

func TestUpdateOrdersPerRecordPut(t *testing.T) {
	var puts int32
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("Expected PUT, got %s", r.Method)
		}
		n := atomic.AddInt32(&puts, 1)
		var o domain.Order
		_ = json.NewDecoder(r.Body).Decode(&o)
		_ = json.NewEncoder(w).Encode(map[string]any{o.Symbol: n})
	}))
	defer done()

	res, err := c.UpdateOrders(context.Background(), []domain.Order{
		{OrderID: 1, Symbol: "A", Quantity: 1},
		{OrderID: 2, Symbol: "B", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("UpdateOrders failed: %v", err)
	}
	if puts != 2 {
		t.Errorf("Expected 2 PUT requests, got %d", puts)
	}
	if len(res) != 2 {
		t.Errorf("Expected merged results from both records, got %v", res)
	}
}

func TestUpdateOrdersStopsAtFirstFailure(t *testing.T) {
	var puts int32
	c, _, done := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&puts, 1)
		if n == 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": n})
	}))
	defer done()

	res, err := c.UpdateOrders(context.Background(), []domain.Order{
		{OrderID: 1, Symbol: "A", Quantity: 1},
		{OrderID: 2, Symbol: "B", Quantity: 2},
		{OrderID: 3, Symbol: "C", Quantity: 3},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	// Partial results from the records that succeeded before the failure.
	if len(res) != 1 {
		t.Errorf("Expected partial results, got %v", res)
	}
	if puts != 2 {
		t.Errorf("Expected the loop to stop after the failure, got %d PUTs", puts)
	}
}
