package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nxtrade/tbutils/internal/core/domain"
)

// TelemetryRepo implements storage.TelemetryRepository using PostgreSQL.
type TelemetryRepo struct {
	ext sqlx.ExtContext
}

// NewTelemetryRepo creates a new PostgreSQL telemetry repository.
func NewTelemetryRepo(db *DB) *TelemetryRepo {
	return &TelemetryRepo{ext: db.DB}
}

const insertCallQuery = `
	INSERT INTO external_api_request (
		api_provider, api_endpoint, http_method,
		request_headers, request_payload,
		http_status_code, response_headers, response_payload,
		request_timestamp, response_timestamp, duration_ms,
		is_success, error_code, error_message,
		retry_count, circuit_breaker_state, correlation_id, user_agent, created_at
	) VALUES (
		:api_provider, :api_endpoint, :http_method,
		:request_headers, :request_payload,
		:http_status_code, :response_headers, :response_payload,
		:request_timestamp, :response_timestamp, :duration_ms,
		:is_success, :error_code, :error_message,
		:retry_count, :circuit_breaker_state, :correlation_id, :user_agent, NOW()
	)
`

type callRow struct {
	RequestID       int64          `db:"request_id"`
	Provider        int            `db:"api_provider"`
	Endpoint        string         `db:"api_endpoint"`
	Method          string         `db:"http_method"`
	RequestHeaders  sql.NullString `db:"request_headers"`
	RequestPayload  sql.NullString `db:"request_payload"`
	StatusCode      sql.NullInt64  `db:"http_status_code"`
	ResponseHeaders sql.NullString `db:"response_headers"`
	ResponsePayload sql.NullString `db:"response_payload"`
	RequestedAt     time.Time      `db:"request_timestamp"`
	RespondedAt     sql.NullTime   `db:"response_timestamp"`
	DurationMS      sql.NullInt64  `db:"duration_ms"`
	IsSuccess       int16          `db:"is_success"`
	ErrorCode       sql.NullString `db:"error_code"`
	ErrorMessage    sql.NullString `db:"error_message"`
	RetryCount      int            `db:"retry_count"`
	BreakerState    sql.NullInt64  `db:"circuit_breaker_state"`
	CorrelationID   sql.NullString `db:"correlation_id"`
	UserAgent       sql.NullString `db:"user_agent"`
	CreatedAt       time.Time      `db:"created_at"`
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toRow(c *domain.APICall) map[string]any {
	isSuccess := 0
	if c.Success {
		isSuccess = 1
	}
	var respondedAt sql.NullTime
	if !c.RespondedAt.IsZero() {
		respondedAt = sql.NullTime{Time: c.RespondedAt, Valid: true}
	}
	var status sql.NullInt64
	if c.StatusCode != 0 {
		status = sql.NullInt64{Int64: int64(c.StatusCode), Valid: true}
	}
	return map[string]any{
		"api_provider":          c.Provider,
		"api_endpoint":          c.Endpoint,
		"http_method":           c.Method,
		"request_headers":       nullStr(c.RequestHeaders),
		"request_payload":       nullStr(c.RequestPayload),
		"http_status_code":      status,
		"response_headers":      nullStr(c.ResponseHeaders),
		"response_payload":      nullStr(c.ResponsePayload),
		"request_timestamp":     c.RequestedAt,
		"response_timestamp":    respondedAt,
		"duration_ms":           sql.NullInt64{Int64: c.DurationMS, Valid: true},
		"is_success":            isSuccess,
		"error_code":            nullStr(c.ErrorCode),
		"error_message":         nullStr(c.ErrorMessage),
		"retry_count":           c.RetryCount,
		"circuit_breaker_state": sql.NullInt64{Int64: int64(c.BreakerState), Valid: true},
		"correlation_id":        nullStr(c.CorrelationID),
		"user_agent":            nullStr(c.UserAgent),
	}
}

func (r *callRow) toDomain() *domain.APICall {
	c := &domain.APICall{
		ID:              r.RequestID,
		Provider:        r.Provider,
		Endpoint:        r.Endpoint,
		Method:          r.Method,
		RequestHeaders:  r.RequestHeaders.String,
		RequestPayload:  r.RequestPayload.String,
		StatusCode:      int(r.StatusCode.Int64),
		ResponseHeaders: r.ResponseHeaders.String,
		ResponsePayload: r.ResponsePayload.String,
		RequestedAt:     r.RequestedAt,
		DurationMS:      r.DurationMS.Int64,
		Success:         r.IsSuccess == 1,
		ErrorCode:       r.ErrorCode.String,
		ErrorMessage:    r.ErrorMessage.String,
		RetryCount:      r.RetryCount,
		BreakerState:    domain.BreakerState(r.BreakerState.Int64),
		CorrelationID:   r.CorrelationID.String,
		UserAgent:       r.UserAgent.String,
	}
	if r.RespondedAt.Valid {
		c.RespondedAt = r.RespondedAt.Time
	}
	return c
}

// Save appends one telemetry record.
func (r *TelemetryRepo) Save(ctx context.Context, call *domain.APICall) error {
	call.CapPayloads()
	if _, err := sqlx.NamedExecContext(ctx, r.ext, insertCallQuery, toRow(call)); err != nil {
		return fmt.Errorf("failed to save telemetry record: %w", err)
	}
	return nil
}

// Recent retrieves the most recent records, newest first.
func (r *TelemetryRepo) Recent(ctx context.Context, provider int, limit int) ([]*domain.APICall, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT request_id, api_provider, api_endpoint, http_method,
		       request_headers, request_payload,
		       http_status_code, response_headers, response_payload,
		       request_timestamp, response_timestamp, duration_ms,
		       is_success, error_code, error_message,
		       retry_count, circuit_breaker_state, correlation_id, user_agent, created_at
		FROM external_api_request
	`
	args := []any{}
	if provider > 0 {
		query += ` WHERE api_provider = $1 ORDER BY request_timestamp DESC LIMIT $2`
		args = append(args, provider, limit)
	} else {
		query += ` ORDER BY request_timestamp DESC LIMIT $1`
		args = append(args, limit)
	}

	var rows []callRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query telemetry records: %w", err)
	}

	calls := make([]*domain.APICall, 0, len(rows))
	for i := range rows {
		calls = append(calls, rows[i].toDomain())
	}
	return calls, nil
}
