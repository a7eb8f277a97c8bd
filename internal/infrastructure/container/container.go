// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"time"

	"github.com/alchemorsel/pantry/internal/application/insights"
	"github.com/alchemorsel/pantry/internal/infrastructure/ai"
	"github.com/alchemorsel/pantry/internal/infrastructure/config"
	"github.com/alchemorsel/pantry/internal/infrastructure/http/server"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantry/internal/infrastructure/pricing"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/alchemorsel/pantry/pkg/healthcheck"
	"github.com/alchemorsel/pantry/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ConfigPath is the config file handed to config.Load; empty searches the
// default locations.
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	StoreModule,
	CacheModule,
	AdvisoryModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:            cfg.App.LogLevel,
			Format:           cfg.App.LogFormat,
			Development:      cfg.App.Debug,
			Service:          cfg.App.Name,
			Environment:      cfg.App.Environment,
			SampleInitial:    100,
			SampleThereafter: 100,
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	NewMetrics,
	NewTracing,
)

// StoreModule provides the food store selected by database.driver
var StoreModule = fx.Provide(
	NewStore,
	func(s *Store) outbound.FoodRepository { return s.Repository },
	func(s *Store) outbound.FoodStore { return s.Repository },
)

// CacheModule provides the advisory response cache
var CacheModule = fx.Provide(
	NewCache,
	func(c *Cache) outbound.CacheRepository { return c.Repository },
)

// AdvisoryModule provides the advisory provider and its health probe
var AdvisoryModule = fx.Provide(
	NewAdvisoryService,
	ai.NewHealthChecker,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewTableStore,
	func(store outbound.FoodStore, tables *insights.TableStore, cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) *insights.Aggregator {
		return insights.NewAggregator(store, tables, cfg.Analysis.CatalogSampleSize, metrics, log)
	},
	func(agg *insights.Aggregator, advisory outbound.AdvisoryService, cfg *config.Config, metrics *monitoring.MetricsCollector, tracing *monitoring.TracingProvider, log *zap.Logger) *insights.Engine {
		return insights.NewEngine(agg, advisory, log,
			insights.WithMetrics(metrics),
			insights.WithTracer(tracing.Tracer()),
			insights.WithAdvisoryTimeout(cfg.Analysis.RequestTimeout),
		)
	},
	NewEnricher,
	insights.NewInsightService,
	NewHealthCheck,
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
	WatchCategoryTable,
)

// NewMetrics returns nil when metrics are disabled; every recorder accepts a
// nil collector.
func NewMetrics(cfg *config.Config, log *zap.Logger) *monitoring.MetricsCollector {
	if !cfg.Monitoring.EnableMetrics {
		return nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return monitoring.NewMetricsCollector(reg, log)
}

// NewTracing configures the OTLP exporter and flushes it on stop
func NewTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		Endpoint:       cfg.Monitoring.OTLPEndpoint,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// NewTableStore seeds the hot-reloadable category table from config
func NewTableStore(cfg *config.Config) (*insights.TableStore, error) {
	table, err := cfg.CategoryTable()
	if err != nil {
		return nil, err
	}
	return insights.NewTableStore(table), nil
}

// NewEnricher wires the price client when pricing is enabled
func NewEnricher(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) *insights.Enricher {
	var source outbound.PriceSource
	if cfg.Pricing.Enabled {
		source = pricing.NewClient(pricing.Config{
			BaseURL: cfg.Pricing.BaseURL,
			APIKey:  cfg.Pricing.APIKey,
			Timeout: cfg.Pricing.Timeout,
		}, log)
	}
	return insights.NewEnricher(source, cfg.Pricing.Delay, metrics, log)
}

// NewHealthCheck registers the store, cache and advisory probes
func NewHealthCheck(cfg *config.Config, store *Store, cache *Cache, advisory *ai.HealthChecker, log *zap.Logger) *healthcheck.HealthCheck {
	hc := healthcheck.New(cfg.App.Version, log)
	hc.Register("store", healthcheck.NewPingChecker(store.Ping))
	if cache.Redis != nil {
		hc.RegisterOptional("redis", healthcheck.NewPingChecker(func(ctx context.Context) error {
			return cache.Redis.Ping(ctx).Err()
		}))
	}
	hc.RegisterOptional("advisory", advisory)
	return hc
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	store *Store,
	cache *Cache,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting pantry insights service",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("store", cfg.Database.Driver),
				zap.String("advisory_provider", cfg.AI.Provider),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down pantry insights service")

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if err := cache.Close(); err != nil {
				log.Error("Failed to close cache", zap.Error(err))
			}
			if err := store.Close(ctx); err != nil {
				log.Error("Failed to close store", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

// WatchCategoryTable swaps the category table whenever the config file
// changes. Runs without a config file simply skip watching.
func WatchCategoryTable(path ConfigPath, tables *insights.TableStore, log *zap.Logger) {
	err := config.Watch(string(path), log, func(cfg *config.Config) {
		table, err := cfg.CategoryTable()
		if err != nil {
			log.Warn("Keeping previous category table", zap.Error(err))
			return
		}
		tables.Store(table)
		log.Info("Category table reloaded", zap.Int("categories", len(table)))
	})
	if err != nil {
		log.Debug("Config hot reload disabled", zap.Error(err))
	}
}

const storeStartTimeout = 30 * time.Second
