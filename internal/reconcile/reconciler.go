package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/nxtrade/tbutils/internal/core/domain"
	"github.com/nxtrade/tbutils/internal/metrics"
)

// API is the subset of the TradingBot client used during reconciliation.
type API interface {
	GetOrders(ctx context.Context, onDate string) ([]domain.Order, error)
	GetPositions(ctx context.Context, onDate string) ([]domain.Position, error)
	CreateOrders(ctx context.Context, orders []domain.Order) (map[string]any, error)
	CreatePositions(ctx context.Context, positions []domain.Position) (map[string]any, error)
	UpdateOrders(ctx context.Context, orders []domain.Order) (map[string]any, error)
	UpdatePositions(ctx context.Context, positions []domain.Position) (map[string]any, error)
}

// SnapshotCache holds remote snapshots between reconciliations. Implemented
// by the Redis client; nil disables caching and every run hits the API.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, kind, onDate string, dest any) (bool, error)
	SetSnapshot(ctx context.Context, kind, onDate string, v any, ttl time.Duration) error
	InvalidateSnapshot(ctx context.Context, kind, onDate string) error
}

// Report summarizes one reconciliation run. A zero value means there was
// nothing to do and no write calls were made.
type Report struct {
	Created map[string]any
	Updated map[string]any
}

const (
	snapshotOrders    = "orders"
	snapshotPositions = "positions"
)

// Reconciler partitions live broker records against the remote state and
// dispatches batched create/update calls.
type Reconciler struct {
	api         API
	cache       SnapshotCache
	snapshotTTL time.Duration
}

// NewReconciler creates a reconciler. cache may be nil.
func NewReconciler(api API, cache SnapshotCache) *Reconciler {
	return &Reconciler{
		api:         api,
		cache:       cache,
		snapshotTTL: 5 * time.Minute,
	}
}

func orderKey(o domain.Order) string {
	return strconv.FormatInt(o.OrderID, 10)
}

// positionKey matches live records (keyed by broker symbol) against cached
// records (keyed by the enriched security field).
func positionKey(p domain.Position) string {
	if p.Security != "" {
		return p.Security
	}
	return p.Symbol
}

func enrichOrder(o domain.Order) domain.Order {
	now := time.Now()
	o.Security = o.Symbol
	o.OnDate = now.Format("2006-01-02")
	o.Timestamp = now.Format(time.RFC3339)
	return o
}

func enrichPosition(p domain.Position) domain.Position {
	now := time.Now()
	p.Security = p.Symbol
	p.OnDate = now.Format("2006-01-02")
	p.Timestamp = now.Format(time.RFC3339)
	return p
}

func (r *Reconciler) cachedOrders(ctx context.Context, onDate string) ([]domain.Order, error) {
	if r.cache != nil {
		var snapshot []domain.Order
		found, err := r.cache.GetSnapshot(ctx, snapshotOrders, onDate, &snapshot)
		if err != nil {
			slog.Warn("order snapshot read failed, falling back to API", "error", err)
		} else if found {
			return snapshot, nil
		}
	}

	orders, err := r.api.GetOrders(ctx, onDate)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.SetSnapshot(ctx, snapshotOrders, onDate, orders, r.snapshotTTL); err != nil {
			slog.Warn("order snapshot write failed", "error", err)
		}
	}
	return orders, nil
}

func (r *Reconciler) cachedPositions(ctx context.Context, onDate string) ([]domain.Position, error) {
	if r.cache != nil {
		var snapshot []domain.Position
		found, err := r.cache.GetSnapshot(ctx, snapshotPositions, onDate, &snapshot)
		if err != nil {
			slog.Warn("position snapshot read failed, falling back to API", "error", err)
		} else if found {
			return snapshot, nil
		}
	}

	positions, err := r.api.GetPositions(ctx, onDate)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.SetSnapshot(ctx, snapshotPositions, onDate, positions, r.snapshotTTL); err != nil {
			slog.Warn("position snapshot write failed", "error", err)
		}
	}
	return positions, nil
}

// SaveOrders persists new orders, skipping ones whose order id already
// exists remotely. Orders are create-only; existing ones are left alone.
func (r *Reconciler) SaveOrders(ctx context.Context, live []domain.Order) (Report, error) {
	if len(live) == 0 {
		return Report{}, nil
	}

	onDate := time.Now().Format("2006-01-02")
	cache, err := r.cachedOrders(ctx, onDate)
	if err != nil {
		return Report{}, err
	}

	toCreate, _ := Partition(live, cache, orderKey)
	if len(toCreate) == 0 {
		slog.Info("no new orders to save")
		return Report{}, nil
	}

	for i := range toCreate {
		toCreate[i] = enrichOrder(toCreate[i])
	}

	metrics.ReconcileBatchSize.WithLabelValues("create_orders").Observe(float64(len(toCreate)))
	created, err := r.api.CreateOrders(ctx, toCreate)
	if err != nil {
		return Report{}, err
	}

	r.invalidate(ctx, snapshotOrders, onDate)
	return Report{Created: created}, nil
}

// SavePositions persists positions: unseen securities are created, known
// ones are updated in place.
func (r *Reconciler) SavePositions(ctx context.Context, live []domain.Position) (Report, error) {
	if len(live) == 0 {
		return Report{}, nil
	}

	onDate := time.Now().Format("2006-01-02")
	cache, err := r.cachedPositions(ctx, onDate)
	if err != nil {
		return Report{}, err
	}

	toCreate, toUpdate := Partition(live, cache, positionKey)

	var report Report

	if len(toCreate) > 0 {
		for i := range toCreate {
			toCreate[i] = enrichPosition(toCreate[i])
		}
		metrics.ReconcileBatchSize.WithLabelValues("create_positions").Observe(float64(len(toCreate)))
		created, err := r.api.CreatePositions(ctx, toCreate)
		if err != nil {
			return report, err
		}
		report.Created = created
	}

	if len(toUpdate) > 0 {
		updated, err := r.UpdatePositions(ctx, toUpdate)
		if err != nil {
			return report, err
		}
		report.Updated = updated
	}

	if report.Created != nil || report.Updated != nil {
		r.invalidate(ctx, snapshotPositions, onDate)
	}
	return report, nil
}

// UpdateOrders pushes updated orders keyed by order id.
func (r *Reconciler) UpdateOrders(ctx context.Context, orders map[string]domain.Order) (map[string]any, error) {
	if len(orders) == 0 {
		slog.Info("no orders to update")
		return map[string]any{}, nil
	}

	batch := make([]domain.Order, 0, len(orders))
	for _, k := range sortedKeys(orders) {
		batch = append(batch, enrichOrder(orders[k]))
	}
	metrics.ReconcileBatchSize.WithLabelValues("update_orders").Observe(float64(len(batch)))
	return r.api.UpdateOrders(ctx, batch)
}

// UpdatePositions pushes updated positions keyed by security.
func (r *Reconciler) UpdatePositions(ctx context.Context, positions map[string]domain.Position) (map[string]any, error) {
	if len(positions) == 0 {
		slog.Info("no positions to update")
		return map[string]any{}, nil
	}

	batch := make([]domain.Position, 0, len(positions))
	for _, k := range sortedKeys(positions) {
		batch = append(batch, enrichPosition(positions[k]))
	}
	metrics.ReconcileBatchSize.WithLabelValues("update_positions").Observe(float64(len(batch)))
	return r.api.UpdatePositions(ctx, batch)
}

func (r *Reconciler) invalidate(ctx context.Context, kind, onDate string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateSnapshot(ctx, kind, onDate); err != nil {
		slog.Warn("snapshot invalidation failed", "kind", kind, "error", err)
	}
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
