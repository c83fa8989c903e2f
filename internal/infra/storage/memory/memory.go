// Package memory provides an in-memory storage implementation used when
// no database is configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/nxtrade/tbutils/internal/core/domain"
	"github.com/nxtrade/tbutils/internal/infra/storage"
)

// TelemetryRepo implements storage.TelemetryRepository in memory.
type TelemetryRepo struct {
	mu    sync.Mutex
	calls []*domain.APICall
}

// NewTelemetryRepo creates an empty in-memory telemetry repository.
func NewTelemetryRepo() *TelemetryRepo {
	return &TelemetryRepo{}
}

// Save appends one telemetry record.
func (r *TelemetryRepo) Save(_ context.Context, call *domain.APICall) error {
	call.CapPayloads()
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *call
	c.ID = int64(len(r.calls) + 1)
	r.calls = append(r.calls, &c)
	return nil
}

// Recent retrieves the most recent records, newest first.
func (r *TelemetryRepo) Recent(_ context.Context, provider int, limit int) ([]*domain.APICall, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.APICall
	for i := len(r.calls) - 1; i >= 0 && len(out) < limit; i-- {
		if provider > 0 && r.calls[i].Provider != provider {
			continue
		}
		c := *r.calls[i]
		out = append(out, &c)
	}
	return out, nil
}

// Count returns the number of stored records.
func (r *TelemetryRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// UnitOfWork implements storage.UnitOfWork over the in-memory repository.
// Writes are staged and applied on Commit.
type UnitOfWork struct {
	repo    *TelemetryRepo
	staged  *TelemetryRepo
	applied bool
}

// NewUnitOfWork opens a staged unit of work over the repository.
func (r *TelemetryRepo) NewUnitOfWork(_ context.Context) (storage.UnitOfWork, error) {
	return &UnitOfWork{repo: r, staged: NewTelemetryRepo()}, nil
}

// Telemetry returns the staged telemetry repository.
func (u *UnitOfWork) Telemetry() storage.TelemetryRepository {
	return u.staged
}

// Commit applies the staged writes.
func (u *UnitOfWork) Commit() error {
	if u.applied {
		return nil
	}
	u.applied = true

	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()
	for _, c := range u.staged.calls {
		cp := *c
		cp.ID = int64(len(u.repo.calls) + 1)
		u.repo.calls = append(u.repo.calls, &cp)
	}
	return nil
}

// Rollback discards the staged writes. Safe to call multiple times.
func (u *UnitOfWork) Rollback() error {
	if !u.applied {
		u.staged = NewTelemetryRepo()
	}
	return nil
}
