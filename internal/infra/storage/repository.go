package storage

import (
	"context"

	"github.com/nxtrade/tbutils/internal/core/domain"
)

// TelemetryRepository handles append-only telemetry storage operations
type TelemetryRepository interface {
	// Save appends one telemetry record
	Save(ctx context.Context, call *domain.APICall) error

	// Recent retrieves the most recent records for a provider
	// (provider 0 = all providers)
	Recent(ctx context.Context, provider int, limit int) ([]*domain.APICall, error)
}

// UnitOfWork bundles writes into one database transaction
type UnitOfWork interface {
	// Telemetry returns the transactional telemetry repository
	Telemetry() TelemetryRepository

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction; safe to call after Commit
	Rollback() error
}

// UnitOfWorkFactory opens a new unit of work with an active transaction
type UnitOfWorkFactory interface {
	NewUnitOfWork(ctx context.Context) (UnitOfWork, error)
}
