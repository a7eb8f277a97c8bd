package container

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/pantry/internal/infrastructure/ai"
	"github.com/alchemorsel/pantry/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/pantry/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/pantry/internal/infrastructure/config"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	gormstore "github.com/alchemorsel/pantry/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pantry/internal/infrastructure/persistence/memory"
	mongostore "github.com/alchemorsel/pantry/internal/infrastructure/persistence/mongo"
	"github.com/alchemorsel/pantry/internal/infrastructure/persistence/postgres"
	redisstore "github.com/alchemorsel/pantry/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/pantry/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the food repository plus the hooks the health endpoint and
// shutdown need.
type Store struct {
	Repository outbound.FoodRepository
	Ping       func(ctx context.Context) error
	close      func(ctx context.Context) error
}

// Close releases the underlying connection
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewStore opens the store for database.driver and seeds the demo household
// when database.seed is set.
func NewStore(cfg *config.Config, log *zap.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeStartTimeout)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Seed {
		if err := sqlite.SeedDatabase(ctx, store.Repository, time.Now()); err != nil {
			log.Warn("Failed to seed database", zap.Error(err))
		} else {
			log.Info("Demo household available", zap.String("user_id", sqlite.DemoUserID.String()))
		}
	}
	return store, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Info("Using in-memory food store")
		return &Store{
			Repository: memory.NewFoodRepository(),
			Ping:       func(context.Context) error { return nil },
		}, nil

	case "sqlite", "":
		db, err := sqlite.SetupDatabase(cfg.Database.Path, gormLogLevel(cfg.Database.LogLevel))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
		return &Store{
			Repository: gormstore.NewFoodRepository(db, log),
			Ping:       sqlDB.PingContext,
			close:      func(context.Context) error { return sqlDB.Close() },
		}, nil

	case "postgres":
		cm, err := postgres.NewConnectionManager(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Store{
			Repository: gormstore.NewFoodRepository(cm.GetDB(), log),
			Ping:       cm.HealthCheck,
			close:      func(context.Context) error { return cm.Close() },
		}, nil

	case "mongo":
		client, err := mongostore.Connect(ctx, cfg.Database.MongoURI)
		if err != nil {
			return nil, err
		}
		repo := mongostore.NewFoodRepository(client.Database(cfg.Database.Database), log)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.Database.Database))
		return &Store{
			Repository: repo,
			Ping:       repo.HealthCheck,
			close:      client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug", "info":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}

// Cache backs the advisory response cache. Redis is nil when the in-memory
// cache is in use.
type Cache struct {
	Repository outbound.CacheRepository
	Redis      *redis.Client
}

// Close closes the Redis client, if any
func (c *Cache) Close() error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}

// NewCache connects to Redis when enabled and falls back to process memory
// when it is disabled or unreachable.
func NewCache(cfg *config.Config, log *zap.Logger) *Cache {
	if !cfg.Redis.Enabled {
		return &Cache{Repository: memory.NewCacheRepository()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := redisstore.NewClient(ctx, cfg)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory advisory cache",
			zap.String("addr", cfg.RedisAddr()),
			zap.Error(err))
		return &Cache{Repository: memory.NewCacheRepository()}
	}
	return &Cache{
		Repository: redisstore.NewCacheRepository(client, "pantry:", log),
		Redis:      client,
	}
}

// NewAdvisoryService selects the provider named by ai.provider. It returns a
// nil service for "none", which sends every pipeline down the fallback path.
func NewAdvisoryService(cfg *config.Config, cache outbound.CacheRepository, metrics *monitoring.MetricsCollector, log *zap.Logger) (outbound.AdvisoryService, error) {
	aiCfg := ai.Config{
		BaseURL:   cfg.AI.BaseURL,
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		Timeout:   cfg.AI.Timeout,
		MaxTokens: cfg.AI.MaxTokens,
	}

	var provider outbound.AdvisoryService
	switch cfg.AI.Provider {
	case "openai":
		provider = openai.NewClient(aiCfg, metrics, log)
	case "ollama":
		provider = ollama.NewClient(aiCfg, metrics, log)
	case "none", "":
		log.Info("Advisory provider disabled, insights use heuristics only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.AI.Provider)
	}

	if !cfg.AI.EnableCache {
		return provider, nil
	}
	return ai.NewCachingAdvisor(provider, cache, cfg.AI.CacheTTL, metrics, log), nil
}
