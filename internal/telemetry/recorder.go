// Package telemetry persists one durable record per outbound API call.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/nxtrade/tbutils/internal/core/domain"
	"github.com/nxtrade/tbutils/internal/infra/storage"
	"github.com/nxtrade/tbutils/internal/metrics"
)

// Recorder writes telemetry records through a transactional unit of work.
// A write failure is logged and rolled back, never surfaced: telemetry
// must not break the business operation.
type Recorder struct {
	factory storage.UnitOfWorkFactory
}

// NewRecorder creates a recorder over the given unit-of-work factory.
// A nil factory disables persistence (records are dropped silently).
func NewRecorder(factory storage.UnitOfWorkFactory) *Recorder {
	return &Recorder{factory: factory}
}

// Record persists one telemetry record. Never returns an error.
func (r *Recorder) Record(ctx context.Context, call *domain.APICall) {
	if r == nil || r.factory == nil {
		return
	}

	uow, err := r.factory.NewUnitOfWork(ctx)
	if err != nil {
		metrics.TelemetryWriteFailures.Inc()
		slog.Error("failed to open telemetry transaction", "error", err)
		return
	}

	if err := uow.Telemetry().Save(ctx, call); err != nil {
		_ = uow.Rollback()
		metrics.TelemetryWriteFailures.Inc()
		slog.Error("failed to save telemetry record",
			"endpoint", call.Endpoint,
			"error", err)
		return
	}

	if err := uow.Commit(); err != nil {
		_ = uow.Rollback()
		metrics.TelemetryWriteFailures.Inc()
		slog.Error("failed to commit telemetry record",
			"endpoint", call.Endpoint,
			"error", err)
	}
}
