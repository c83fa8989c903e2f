// Package tbutils wires the TradingBot API client, telemetry storage and
// reconciliation engine into a single service facade.
package tbutils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nxtrade/tbutils/internal/client"
	"github.com/nxtrade/tbutils/internal/core/config"
	redisclient "github.com/nxtrade/tbutils/internal/infra/redis"
	"github.com/nxtrade/tbutils/internal/infra/storage/postgres"
	"github.com/nxtrade/tbutils/internal/infra/transport"
	"github.com/nxtrade/tbutils/internal/reconcile"
	"github.com/nxtrade/tbutils/internal/telemetry"
)

// Service bundles the API client and reconciler with their storage
// collaborators. Construct once at process start and share.
type Service struct {
	Client     *client.Client
	Reconciler *reconcile.Reconciler

	db    *postgres.DB
	cache *redisclient.Client
}

// New builds a Service from resolved configuration. Redis is optional
// (empty URL disables snapshot caching); the database is required for
// telemetry persistence.
func New(ctx context.Context, cfg *config.AppConfig) (*Service, error) {
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	var cache *redisclient.Client
	if cfg.Redis.URL != "" {
		cache, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		slog.Info("Using Redis snapshot cache")
	}

	recorder := telemetry.NewRecorder(db)

	api := client.New(client.Config{
		BaseURL:  cfg.API.BaseURL,
		APIKey:   cfg.API.APIKey,
		Provider: cfg.API.Provider,
		Timeout:  time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		Retry: transport.RetryConfig{
			MaxAttempts: cfg.API.MaxAttempts,
			Wait:        time.Duration(cfg.API.RetryWaitSeconds) * time.Second,
		},
		Breaker: transport.BreakerConfig{
			MaxFailures:  cfg.API.MaxFailures,
			ResetTimeout: time.Duration(cfg.API.ResetTimeoutSeconds) * time.Second,
		},
	}, recorder)

	svc := &Service{
		Client: api,
		db:     db,
		cache:  cache,
	}
	if cache != nil {
		svc.Reconciler = reconcile.NewReconciler(api, cache)
	} else {
		svc.Reconciler = reconcile.NewReconciler(api, nil)
	}
	return svc, nil
}

// Close releases the storage connections.
func (s *Service) Close() error {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
