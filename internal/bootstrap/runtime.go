// Package bootstrap wires configuration, storage and the feed engine for
// the command-line entry points.
package bootstrap

import (
	"context"
	"fmt"

	"feedengine/internal/cache"
	"feedengine/internal/config"
	"feedengine/internal/database"
	"feedengine/internal/observability"
	"feedengine/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the connections and engine built from a Config.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Engine *service.Engine

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and Redis, starts tracing and builds
// the feed engine. Redis is optional; a nil client disables caching.
func InitRuntime(cfg *config.Config) (*Runtime, error) {
	observability.SetLevel(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	cache.UserTTL = cfg.UserCacheTTL()

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "feedengine",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	return &Runtime{
		Config: cfg,
		DB:     db,
		Redis:  cache.GetClient(),
		Engine: service.NewEngine(service.NewStores(db), service.Options{
			Location:   loc,
			QuickLimit: cfg.SearchQuickLimit,
			TopLimit:   cfg.SearchTopLimit,
		}),
		shutdownTracing: shutdown,
	}, nil
}

// Close flushes spans and releases the connections.
func (r *Runtime) Close(ctx context.Context) error {
	var firstErr error
	if r.shutdownTracing != nil {
		if err := r.shutdownTracing(ctx); err != nil {
			firstErr = err
		}
	}
	if err := cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if sqlDB, err := r.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
